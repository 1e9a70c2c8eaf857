package pdfium

import (
	"unsafe"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// ColorType selects which colour of an annotation is read or written.
type ColorType int

const (
	ColorStroke ColorType = iota
	ColorInterior
)

// AnnotationCount returns the number of annotations on page.
func (l *Library) AnnotationCount(page Handle) (int, error) {
	ref, err := l.page(page)
	if err != nil {
		return 0, err
	}
	n := l.fn.pageGetAnnotCount(ref)
	if n < 0 {
		return 0, &NativeCallError{Op: "FPDFPage_GetAnnotCount"}
	}
	return int(n), nil
}

// Annotations lists every annotation on page. Each one is opened, read and
// closed before the next.
func (l *Library) Annotations(page Handle) ([]protocol.AnnotationInfo, error) {
	ref, err := l.page(page)
	if err != nil {
		return nil, err
	}

	count := l.fn.pageGetAnnotCount(ref)
	if count <= 0 {
		return nil, nil
	}

	out := make([]protocol.AnnotationInfo, 0, count)
	for i := int32(0); i < count; i++ {
		annot := l.fn.pageGetAnnot(ref, i)
		if annot == 0 {
			continue
		}

		info := protocol.AnnotationInfo{
			Index:   int(i),
			Subtype: protocol.AnnotationSubtype(l.fn.annotGetSubtype(annot)),
		}
		var r fsRectF
		if cBool(l.fn.annotGetRect(annot, &r)) {
			rect := rectFromF(r)
			info.Rect = &rect
		}
		var c protocol.Color
		if cBool(l.fn.annotGetColor(annot, int32(ColorStroke), &c.R, &c.G, &c.B, &c.A)) {
			info.Color = &c
		}
		l.fn.pageCloseAnnot(annot)

		out = append(out, info)
	}
	return out, nil
}

// CreateAnnotation appends an annotation of the given subtype and returns
// its index.
func (l *Library) CreateAnnotation(page Handle, subtype protocol.AnnotationSubtype) (int, error) {
	ref, err := l.page(page)
	if err != nil {
		return 0, err
	}

	annot := l.fn.pageCreateAnnot(ref, int32(subtype))
	if annot == 0 {
		return 0, &NativeCallError{Op: "FPDFPage_CreateAnnot", Detail: "unsupported subtype " + subtype.String()}
	}
	l.fn.pageCloseAnnot(annot)

	return int(l.fn.pageGetAnnotCount(ref)) - 1, nil
}

// RemoveAnnotation deletes annotation index from page. Later annotations
// shift down by one.
func (l *Library) RemoveAnnotation(page Handle, index int) error {
	if err := validIndex("annotation index", index); err != nil {
		return err
	}
	ref, err := l.page(page)
	if err != nil {
		return err
	}
	if !cBool(l.fn.pageRemoveAnnot(ref, int32(index))) {
		return &NativeCallError{Op: "FPDFPage_RemoveAnnot", Detail: "annotation index out of range"}
	}
	return nil
}

// withAnnotation opens annotation index, runs fn and closes it again.
func (l *Library) withAnnotation(page Handle, index int, op string, fn func(annot uintptr) int32) error {
	if err := validIndex("annotation index", index); err != nil {
		return err
	}
	ref, err := l.page(page)
	if err != nil {
		return err
	}

	annot := l.fn.pageGetAnnot(ref, int32(index))
	if annot == 0 {
		return &NativeCallError{Op: "FPDFPage_GetAnnot", Detail: "annotation index out of range"}
	}
	defer l.fn.pageCloseAnnot(annot)

	if !cBool(fn(annot)) {
		return &NativeCallError{Op: op}
	}
	return nil
}

// SetAnnotationRect moves annotation index to r.
func (l *Library) SetAnnotationRect(page Handle, index int, r protocol.Rect) error {
	rect := fsRectF{
		Left:   float32(r.Left),
		Top:    float32(r.Top),
		Right:  float32(r.Right),
		Bottom: float32(r.Bottom),
	}
	return l.withAnnotation(page, index, "FPDFAnnot_SetRect", func(annot uintptr) int32 {
		return l.fn.annotSetRect(annot, &rect)
	})
}

// SetAnnotationColor sets the stroke or interior colour. Components are
// 0-255.
func (l *Library) SetAnnotationColor(page Handle, index int, ct ColorType, c protocol.Color) error {
	if ct != ColorStroke && ct != ColorInterior {
		return &ValidationError{Param: "color type", Value: int(ct), Message: "must be 0 (color) or 1 (interior)"}
	}
	for _, v := range []uint32{c.R, c.G, c.B, c.A} {
		if v > 255 {
			return &ValidationError{Param: "color", Value: c, Message: "components must be 0-255"}
		}
	}
	return l.withAnnotation(page, index, "FPDFAnnot_SetColor", func(annot uintptr) int32 {
		return l.fn.annotSetColor(annot, int32(ct), c.R, c.G, c.B, c.A)
	})
}

// AnnotationFlags returns the /F flags of annotation index.
func (l *Library) AnnotationFlags(page Handle, index int) (int, error) {
	var flags int32
	err := l.withAnnotation(page, index, "FPDFAnnot_GetFlags", func(annot uintptr) int32 {
		flags = l.fn.annotGetFlags(annot)
		return 1
	})
	return int(flags), err
}

// SetAnnotationFlags replaces the /F flags of annotation index.
func (l *Library) SetAnnotationFlags(page Handle, index int, flags int) error {
	return l.withAnnotation(page, index, "FPDFAnnot_SetFlags", func(annot uintptr) int32 {
		return l.fn.annotSetFlags(annot, int32(flags))
	})
}

// SetAnnotationString sets a text entry such as Contents or T.
func (l *Library) SetAnnotationString(page Handle, index int, key, value string) error {
	ckey, err := cString("annotation key", key)
	if err != nil {
		return err
	}
	wide, err := encodeUTF16Z("annotation value", value)
	if err != nil {
		return err
	}
	return l.withAnnotation(page, index, "FPDFAnnot_SetStringValue", func(annot uintptr) int32 {
		return l.fn.annotSetStringValue(annot, ckey, unsafe.Pointer(&wide[0]))
	})
}

// SetAnnotationBorder sets the corner radii and border width.
func (l *Library) SetAnnotationBorder(page Handle, index int, hRadius, vRadius, width float64) error {
	return l.withAnnotation(page, index, "FPDFAnnot_SetBorder", func(annot uintptr) int32 {
		return l.fn.annotSetBorder(annot, float32(hRadius), float32(vRadius), float32(width))
	})
}

// SetAnnotationAttachmentPoints replaces quad quadIndex of a markup
// annotation.
func (l *Library) SetAnnotationAttachmentPoints(page Handle, index, quadIndex int, q protocol.Quad) error {
	if err := validIndex("quad index", quadIndex); err != nil {
		return err
	}
	points := quadPoints(q)
	return l.withAnnotation(page, index, "FPDFAnnot_SetAttachmentPoints", func(annot uintptr) int32 {
		return l.fn.annotSetAttachmentPoints(annot, uintptr(quadIndex), &points)
	})
}

// AppendAnnotationAttachmentPoints adds a quad to a markup annotation.
func (l *Library) AppendAnnotationAttachmentPoints(page Handle, index int, q protocol.Quad) error {
	points := quadPoints(q)
	return l.withAnnotation(page, index, "FPDFAnnot_AppendAttachmentPoints", func(annot uintptr) int32 {
		return l.fn.annotAppendAttachmentPoints(annot, &points)
	})
}

// SetAnnotationURI sets the URI action of a link annotation.
func (l *Library) SetAnnotationURI(page Handle, index int, uri string) error {
	curi, err := cString("uri", uri)
	if err != nil {
		return err
	}
	return l.withAnnotation(page, index, "FPDFAnnot_SetURI", func(annot uintptr) int32 {
		return l.fn.annotSetURI(annot, curi)
	})
}

func quadPoints(q protocol.Quad) fsQuadPointsF {
	return fsQuadPointsF{
		X1: float32(q.X1), Y1: float32(q.Y1),
		X2: float32(q.X2), Y2: float32(q.Y2),
		X3: float32(q.X3), Y3: float32(q.Y3),
		X4: float32(q.X4), Y4: float32(q.Y4),
	}
}
