package pdfium

import (
	"fmt"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// BoxKind selects one of the page boundary boxes.
type BoxKind int

const (
	BoxMedia BoxKind = iota
	BoxCrop
	BoxBleed
	BoxTrim
	BoxArt

	boxKindCount = 5
)

func (k BoxKind) String() string {
	switch k {
	case BoxMedia:
		return "MediaBox"
	case BoxCrop:
		return "CropBox"
	case BoxBleed:
		return "BleedBox"
	case BoxTrim:
		return "TrimBox"
	case BoxArt:
		return "ArtBox"
	default:
		return fmt.Sprintf("box(%d)", int(k))
	}
}

func (k BoxKind) validate() error {
	if k < 0 || k >= boxKindCount {
		return &ValidationError{Param: "box kind", Value: int(k), Message: "must be between 0 and 4"}
	}
	return nil
}

// PageBox reads a boundary box. The bool is false when the page does not
// define that box.
func (l *Library) PageBox(page Handle, kind BoxKind) (protocol.Rect, bool, error) {
	if err := kind.validate(); err != nil {
		return protocol.Rect{}, false, err
	}
	ref, err := l.page(page)
	if err != nil {
		return protocol.Rect{}, false, err
	}

	var left, bottom, right, top float32
	if !cBool(l.fn.getBox[kind](ref, &left, &bottom, &right, &top)) {
		return protocol.Rect{}, false, nil
	}
	return protocol.Rect{
		Left:   float64(left),
		Top:    float64(top),
		Right:  float64(right),
		Bottom: float64(bottom),
	}, true, nil
}

// SetPageBox writes a boundary box.
func (l *Library) SetPageBox(page Handle, kind BoxKind, r protocol.Rect) error {
	if err := kind.validate(); err != nil {
		return err
	}
	ref, err := l.page(page)
	if err != nil {
		return err
	}

	l.fn.setBox[kind](ref, float32(r.Left), float32(r.Bottom), float32(r.Right), float32(r.Top))
	return nil
}
