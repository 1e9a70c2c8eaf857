package pdfium

// ImportPages copies pages of src into dest before index. pageRange uses
// the "1,3,5-7" syntax with 1-based page numbers; empty imports every page.
func (l *Library) ImportPages(dest, src Handle, pageRange string, index int) error {
	if err := validIndex("insert index", index); err != nil {
		return err
	}
	var cRange *byte
	if pageRange != "" {
		var err error
		if cRange, err = cString("page range", pageRange); err != nil {
			return err
		}
	}
	destRef, err := l.doc(dest)
	if err != nil {
		return err
	}
	srcRef, err := l.doc(src)
	if err != nil {
		return err
	}

	if !cBool(l.fn.importPages(destRef, srcRef, cRange, int32(index))) {
		return &NativeCallError{Op: "FPDF_ImportPages", Detail: "invalid page range " + pageRange}
	}
	return nil
}

// ImportPagesByIndex copies the listed 0-based pages of src into dest
// before index. An empty list imports every page.
func (l *Library) ImportPagesByIndex(dest, src Handle, pages []int, index int) error {
	if err := validIndex("insert index", index); err != nil {
		return err
	}
	indices := make([]int32, len(pages))
	for i, p := range pages {
		if err := validIndex("page index", p); err != nil {
			return err
		}
		indices[i] = int32(p)
	}
	destRef, err := l.doc(dest)
	if err != nil {
		return err
	}
	srcRef, err := l.doc(src)
	if err != nil {
		return err
	}

	var first *int32
	if len(indices) > 0 {
		first = &indices[0]
	}
	if !cBool(l.fn.importPagesByIndex(destRef, srcRef, first, cULong(len(indices)), int32(index))) {
		return &NativeCallError{Op: "FPDF_ImportPagesByIndex"}
	}
	return nil
}

// ImportNPagesToOne lays out the pages of src perRow by perColumn on each
// page of a new document of the given size. The new document owns no
// source bytes.
func (l *Library) ImportNPagesToOne(src Handle, width, height float64, perRow, perColumn int) (Handle, error) {
	if perRow <= 0 {
		return 0, &ValidationError{Param: "pages per row", Value: perRow, Message: "must be positive"}
	}
	if perColumn <= 0 {
		return 0, &ValidationError{Param: "pages per column", Value: perColumn, Message: "must be positive"}
	}
	if width <= 0 || height <= 0 {
		return 0, &ValidationError{Param: "output size", Value: [2]float64{width, height}, Message: "must be positive"}
	}
	srcRef, err := l.doc(src)
	if err != nil {
		return 0, err
	}

	ref := l.fn.importNPagesToOne(srcRef, float32(width), float32(height), uintptr(perRow), uintptr(perColumn))
	if ref == 0 {
		return 0, &NativeCallError{Op: "FPDF_ImportNPagesToOne"}
	}
	return l.handles.allocateDocument(ref, nil), nil
}

// CopyViewerPreferences copies the /ViewerPreferences of src into dest.
func (l *Library) CopyViewerPreferences(dest, src Handle) error {
	destRef, err := l.doc(dest)
	if err != nil {
		return err
	}
	srcRef, err := l.doc(src)
	if err != nil {
		return err
	}
	if !cBool(l.fn.copyViewerPreferences(destRef, srcRef)) {
		return &NativeCallError{Op: "FPDF_CopyViewerPreferences", Detail: "source has no viewer preferences"}
	}
	return nil
}
