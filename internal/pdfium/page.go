package pdfium

import (
	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// FlattenMode selects which appearance streams FlattenPage bakes in.
type FlattenMode int

const (
	FlattenNormalDisplay FlattenMode = iota
	FlattenPrint
)

// FlattenResult is the outcome of a successful FlattenPage.
type FlattenResult int

const (
	FlattenSuccess FlattenResult = iota + 1
	FlattenNothingToDo
)

func (r FlattenResult) String() string {
	if r == FlattenNothingToDo {
		return "nothing to do"
	}
	return "success"
}

// Viewport describes the device area a page is mapped onto.
type Viewport struct {
	StartX, StartY int
	Width, Height  int
	// Rotation in quarter turns clockwise, 0-3.
	Rotation int
}

// LoadPage opens page index of doc.
func (l *Library) LoadPage(doc Handle, index int) (Handle, error) {
	if err := validIndex("page index", index); err != nil {
		return 0, err
	}
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}

	page := l.fn.loadPage(ref, int32(index))
	if page == 0 {
		return 0, &NativeCallError{Op: "FPDF_LoadPage", Detail: "page index out of range or page is damaged"}
	}
	return l.track(KindPage, page, doc), nil
}

// ClosePage closes a page opened by LoadPage.
func (l *Library) ClosePage(page Handle) error {
	if l.IsClosed() {
		return ErrLibraryClosed
	}
	return l.release(page, KindPage)
}

// PageWidth returns the page width in points.
func (l *Library) PageWidth(page Handle) (float64, error) {
	ref, err := l.page(page)
	if err != nil {
		return 0, err
	}
	return float64(l.fn.getPageWidthF(ref)), nil
}

// PageHeight returns the page height in points.
func (l *Library) PageHeight(page Handle) (float64, error) {
	ref, err := l.page(page)
	if err != nil {
		return 0, err
	}
	return float64(l.fn.getPageHeightF(ref)), nil
}

// BoundingBox returns the visible area of the page, the crop box clipped to
// the media box.
func (l *Library) BoundingBox(page Handle) (protocol.Rect, error) {
	ref, err := l.page(page)
	if err != nil {
		return protocol.Rect{}, err
	}

	var r fsRectF
	if !cBool(l.fn.getPageBoundingBox(ref, &r)) {
		return protocol.Rect{}, &NativeCallError{Op: "FPDF_GetPageBoundingBox"}
	}
	return rectFromF(r), nil
}

// PageRotation returns the /Rotate of the page in quarter turns.
func (l *Library) PageRotation(page Handle) (int, error) {
	ref, err := l.page(page)
	if err != nil {
		return 0, err
	}
	return int(l.fn.pageGetRotation(ref)), nil
}

// SetPageRotation sets the /Rotate of the page in quarter turns.
func (l *Library) SetPageRotation(page Handle, rotation int) error {
	if err := validRotation(rotation); err != nil {
		return err
	}
	ref, err := l.page(page)
	if err != nil {
		return err
	}
	l.fn.pageSetRotation(ref, int32(rotation))
	return nil
}

// HasTransparency reports whether the page contains transparent content.
func (l *Library) HasTransparency(page Handle) (bool, error) {
	ref, err := l.page(page)
	if err != nil {
		return false, err
	}
	return cBool(l.fn.pageHasTransparency(ref)), nil
}

// FlattenPage merges annotations and form fields into the page content.
func (l *Library) FlattenPage(page Handle, mode FlattenMode) (FlattenResult, error) {
	if mode != FlattenNormalDisplay && mode != FlattenPrint {
		return 0, &ValidationError{Param: "flatten mode", Value: int(mode), Message: "must be 0 (display) or 1 (print)"}
	}
	ref, err := l.page(page)
	if err != nil {
		return 0, err
	}

	switch res := l.fn.pageFlatten(ref, int32(mode)); res {
	case 1:
		return FlattenSuccess, nil
	case 2:
		return FlattenNothingToDo, nil
	default:
		return 0, &NativeCallError{Op: "FPDFPage_Flatten"}
	}
}

// GenerateContent regenerates the content stream after page objects or
// boxes were modified.
func (l *Library) GenerateContent(page Handle) error {
	ref, err := l.page(page)
	if err != nil {
		return err
	}
	if !cBool(l.fn.pageGenerateContent(ref)) {
		return &NativeCallError{Op: "FPDFPage_GenerateContent"}
	}
	return nil
}

// DeviceToPage converts a device pixel to page coordinates.
func (l *Library) DeviceToPage(page Handle, vp Viewport, x, y int) (protocol.Point, error) {
	if err := validRotation(vp.Rotation); err != nil {
		return protocol.Point{}, err
	}
	ref, err := l.page(page)
	if err != nil {
		return protocol.Point{}, err
	}

	var px, py float64
	ok := l.fn.deviceToPage(ref,
		int32(vp.StartX), int32(vp.StartY), int32(vp.Width), int32(vp.Height), int32(vp.Rotation),
		int32(x), int32(y), &px, &py)
	if !cBool(ok) {
		return protocol.Point{}, &NativeCallError{Op: "FPDF_DeviceToPage"}
	}
	return protocol.Point{X: px, Y: py}, nil
}

// PageToDevice converts page coordinates to a device pixel.
func (l *Library) PageToDevice(page Handle, vp Viewport, x, y float64) (protocol.DevicePoint, error) {
	if err := validRotation(vp.Rotation); err != nil {
		return protocol.DevicePoint{}, err
	}
	ref, err := l.page(page)
	if err != nil {
		return protocol.DevicePoint{}, err
	}

	var dx, dy int32
	ok := l.fn.pageToDevice(ref,
		int32(vp.StartX), int32(vp.StartY), int32(vp.Width), int32(vp.Height), int32(vp.Rotation),
		x, y, &dx, &dy)
	if !cBool(ok) {
		return protocol.DevicePoint{}, &NativeCallError{Op: "FPDF_PageToDevice"}
	}
	return protocol.DevicePoint{X: int(dx), Y: int(dy)}, nil
}

func rectFromF(r fsRectF) protocol.Rect {
	return protocol.Rect{
		Left:   float64(r.Left),
		Top:    float64(r.Top),
		Right:  float64(r.Right),
		Bottom: float64(r.Bottom),
	}
}
