package pdfium

import (
	"unsafe"

	"go.uber.org/zap"
)

// Metadata tags accepted by MetaText.
var MetadataTags = []string{
	"Title", "Author", "Subject", "Keywords",
	"Creator", "Producer", "CreationDate", "ModDate",
}

// LoadDocument opens a document from memory. PDFium reads data lazily, so
// the slice is retained until CloseDocument and must not be modified while
// the document is open. An empty password is passed as NULL.
func (l *Library) LoadDocument(data []byte, password string) (Handle, error) {
	return l.loadDocument("", data, password)
}

// LoadDocumentFrom opens a document from src.
func (l *Library) LoadDocumentFrom(src DocumentSource, password string) (Handle, error) {
	if l.IsClosed() {
		return 0, ErrLibraryClosed
	}
	data, err := src.Bytes()
	if err != nil {
		return 0, err
	}
	return l.loadDocument(src.Name(), data, password)
}

func (l *Library) loadDocument(name string, data []byte, password string) (Handle, error) {
	if l.IsClosed() {
		return 0, ErrLibraryClosed
	}
	// An empty buffer has no address to hand over; report it the way the
	// native loader reports unparseable bytes.
	if len(data) == 0 {
		return 0, &DocumentLoadError{Source: name, Code: ErrCodeFormat}
	}
	if len(data) > maxInt32 {
		return 0, &ValidationError{Param: "document data", Value: len(data), Message: "larger than 2 GiB"}
	}

	var pw *byte
	if password != "" {
		var err error
		if pw, err = cString("password", password); err != nil {
			return 0, err
		}
	}

	ref := l.fn.loadMemDocument(unsafe.Pointer(&data[0]), int32(len(data)), pw)
	if ref == 0 {
		return 0, &DocumentLoadError{Source: name, Code: ErrorCode(l.fn.getLastError())}
	}

	h := l.handles.allocateDocument(ref, data)
	l.logger.Debug("Document loaded",
		zap.Uint32("handle", uint32(h)),
		zap.String("source", name),
		zap.Int("size_bytes", len(data)),
	)
	return h, nil
}

// CloseDocument closes the native document and then drops its bytes. Pages
// and text pages of the document stay in the table and must be closed by
// the caller.
func (l *Library) CloseDocument(doc Handle) error {
	if l.IsClosed() {
		return ErrLibraryClosed
	}
	if n := l.handles.children(doc); n > 0 {
		l.logger.Warn("Closing document with open pages",
			zap.Uint32("handle", uint32(doc)),
			zap.Int("open_children", n),
		)
	}
	return l.release(doc, KindDocument)
}

// PageCount returns the number of pages in doc.
func (l *Library) PageCount(doc Handle) (int, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	return int(l.fn.getPageCount(ref)), nil
}

// MetaText reads an Info dictionary entry. The bool is false when the entry
// is absent or empty.
func (l *Library) MetaText(doc Handle, tag string) (string, bool, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return "", false, err
	}
	ctag, err := cString("metadata tag", tag)
	if err != nil {
		return "", false, err
	}

	return readUTF16Field("metadata "+tag, func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.getMetaText(ref, ctag, buf, n)
	})
}

// FileVersion returns the header version as major*10+minor, e.g. 17.
func (l *Library) FileVersion(doc Handle) (int, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	var v int32
	if !cBool(l.fn.getFileVersion(ref, &v)) {
		return 0, &NativeCallError{Op: "FPDF_GetFileVersion", Detail: "document was created from scratch"}
	}
	return int(v), nil
}

// Permissions returns the /P flags of the security handler.
func (l *Library) Permissions(doc Handle) (uint32, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	return uint32(l.fn.getDocPermissions(ref)), nil
}

// UserPermissions returns the permissions granted to the user password,
// ignoring any owner unlock.
func (l *Library) UserPermissions(doc Handle) (uint32, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	return uint32(l.fn.getDocUserPermissions(ref)), nil
}

// PageMode returns the /PageMode of the catalog, or -1 when unknown.
func (l *Library) PageMode(doc Handle) (int, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	return int(l.fn.docGetPageMode(ref)), nil
}

// SecurityHandlerRevision returns -1 for unencrypted documents.
func (l *Library) SecurityHandlerRevision(doc Handle) (int, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return 0, err
	}
	return int(l.fn.getSecurityHandlerRevision(ref)), nil
}

// IsTagged reports whether the document is a tagged PDF.
func (l *Library) IsTagged(doc Handle) (bool, error) {
	ref, err := l.doc(doc)
	if err != nil {
		return false, err
	}
	return cBool(l.fn.catalogIsTagged(ref)), nil
}

// PageLabel returns the label of page index.
func (l *Library) PageLabel(doc Handle, index int) (string, bool, error) {
	if err := validIndex("page index", index); err != nil {
		return "", false, err
	}
	ref, err := l.doc(doc)
	if err != nil {
		return "", false, err
	}

	return readUTF16Field("page label", func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.getPageLabel(ref, int32(index), buf, n)
	})
}
