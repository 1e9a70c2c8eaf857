package pdfium

import (
	"unsafe"

	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// SearchFlags modify FindText.
type SearchFlags uint32

const (
	MatchCase        SearchFlags = 0x1
	MatchWholeWord   SearchFlags = 0x2
	MatchConsecutive SearchFlags = 0x4
)

// RenderModeFill is the text render mode reported when the loaded build
// lacks FPDFText_GetTextRenderMode.
const RenderModeFill = 0

// LoadTextPage prepares the text layer of page.
func (l *Library) LoadTextPage(page Handle) (Handle, error) {
	e, err := l.resolve(page, KindPage)
	if err != nil {
		return 0, err
	}

	tp := l.fn.textLoadPage(e.ref)
	if tp == 0 {
		return 0, &NativeCallError{Op: "FPDFText_LoadPage"}
	}
	return l.track(KindTextPage, tp, e.doc), nil
}

// CloseTextPage closes a text page opened by LoadTextPage.
func (l *Library) CloseTextPage(textPage Handle) error {
	if l.IsClosed() {
		return ErrLibraryClosed
	}
	return l.release(textPage, KindTextPage)
}

// CharCount returns the number of characters on the text page.
func (l *Library) CharCount(textPage Handle) (int, error) {
	ref, err := l.textPage(textPage)
	if err != nil {
		return 0, err
	}
	n := l.fn.textCountChars(ref)
	if n < 0 {
		return 0, &NativeCallError{Op: "FPDFText_CountChars"}
	}
	return int(n), nil
}

// Text returns all text on the page.
func (l *Library) Text(textPage Handle) (string, error) {
	ref, err := l.textPage(textPage)
	if err != nil {
		return "", err
	}

	count := l.fn.textCountChars(ref)
	if count <= 0 {
		return "", nil
	}

	// Room for the terminator PDFium always writes.
	buf := make([]byte, (int(count)+1)*2)
	l.fn.textGetText(ref, 0, count, unsafe.Pointer(&buf[0]))
	return decodeUTF16("page text", buf[:int(count)*2])
}

func (l *Library) charRef(textPage Handle, index int) (uintptr, error) {
	if err := validIndex("character index", index); err != nil {
		return 0, err
	}
	return l.textPage(textPage)
}

// CharFontSize returns the font size of a character in points.
func (l *Library) CharFontSize(textPage Handle, index int) (float64, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return 0, err
	}
	return l.fn.textGetFontSize(ref, int32(index)), nil
}

// CharFontWeight returns the font weight of a character.
func (l *Library) CharFontWeight(textPage Handle, index int) (int, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return 0, err
	}
	w := l.fn.textGetFontWeight(ref, int32(index))
	if w < 0 {
		return 0, &NativeCallError{Op: "FPDFText_GetFontWeight"}
	}
	return int(w), nil
}

// CharFontInfo returns the font name and flags of a character. The bool is
// false when the character has no font.
func (l *Library) CharFontInfo(textPage Handle, index int) (protocol.FontInfo, bool, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return protocol.FontInfo{}, false, err
	}

	var flags int32
	name, ok, err := readByteField("font name", encodingUTF8, func(buf unsafe.Pointer, n cULong) cULong {
		return l.fn.textGetFontInfo(ref, int32(index), buf, n, &flags)
	})
	if err != nil || !ok {
		return protocol.FontInfo{}, false, err
	}
	return protocol.FontInfo{Name: name, Flags: flags}, true, nil
}

// CharRenderMode returns the text render mode of a character, or
// RenderModeFill when the capability is missing.
func (l *Library) CharRenderMode(textPage Handle, index int) (int, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return 0, err
	}
	if !l.caps.TextRenderMode {
		return RenderModeFill, nil
	}
	return int(l.fn.textGetTextRenderMode(ref, int32(index))), nil
}

// CharUnicode returns the code point of a character.
func (l *Library) CharUnicode(textPage Handle, index int) (rune, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return 0, err
	}
	return rune(l.fn.textGetUnicode(ref, int32(index))), nil
}

// tristate converts PDFium's 1/0/-1 results.
func tristate(op string, v int32) (bool, error) {
	if v < 0 {
		return false, &NativeCallError{Op: op}
	}
	return v == 1, nil
}

// IsGenerated reports whether PDFium synthesised the character.
func (l *Library) IsGenerated(textPage Handle, index int) (bool, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return false, err
	}
	return tristate("FPDFText_IsGenerated", l.fn.textIsGenerated(ref, int32(index)))
}

// IsHyphen reports whether the character is a line-break hyphen.
func (l *Library) IsHyphen(textPage Handle, index int) (bool, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return false, err
	}
	return tristate("FPDFText_IsHyphen", l.fn.textIsHyphen(ref, int32(index)))
}

// HasUnicodeMapError reports whether the character's ToUnicode mapping is broken.
func (l *Library) HasUnicodeMapError(textPage Handle, index int) (bool, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return false, err
	}
	return tristate("FPDFText_HasUnicodeMapError", l.fn.textHasUnicodeMapError(ref, int32(index)))
}

// CharAngle returns the rotation of a character in radians.
func (l *Library) CharAngle(textPage Handle, index int) (float64, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return 0, err
	}
	a := l.fn.textGetCharAngle(ref, int32(index))
	if a < 0 {
		return 0, &NativeCallError{Op: "FPDFText_GetCharAngle"}
	}
	return float64(a), nil
}

// CharOrigin returns the origin of a character.
func (l *Library) CharOrigin(textPage Handle, index int) (protocol.Point, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return protocol.Point{}, err
	}
	var x, y float64
	if !cBool(l.fn.textGetCharOrigin(ref, int32(index), &x, &y)) {
		return protocol.Point{}, &NativeCallError{Op: "FPDFText_GetCharOrigin"}
	}
	return protocol.Point{X: x, Y: y}, nil
}

// CharBox returns the tight glyph box of a character.
func (l *Library) CharBox(textPage Handle, index int) (protocol.Rect, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return protocol.Rect{}, err
	}
	var left, right, bottom, top float64
	if !cBool(l.fn.textGetCharBox(ref, int32(index), &left, &right, &bottom, &top)) {
		return protocol.Rect{}, &NativeCallError{Op: "FPDFText_GetCharBox"}
	}
	return protocol.Rect{Left: left, Top: top, Right: right, Bottom: bottom}, nil
}

// LooseCharBox returns the box of a character including ascent and descent.
func (l *Library) LooseCharBox(textPage Handle, index int) (protocol.Rect, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return protocol.Rect{}, err
	}
	var r fsRectF
	if !cBool(l.fn.textGetLooseCharBox(ref, int32(index), &r)) {
		return protocol.Rect{}, &NativeCallError{Op: "FPDFText_GetLooseCharBox"}
	}
	return rectFromF(r), nil
}

// CharIndexAtPos returns the character nearest to a point within the given
// tolerance, or -1 when there is none.
func (l *Library) CharIndexAtPos(textPage Handle, x, y, xTolerance, yTolerance float64) (int, error) {
	ref, err := l.textPage(textPage)
	if err != nil {
		return 0, err
	}
	i := l.fn.textGetCharIndexAtPos(ref, x, y, xTolerance, yTolerance)
	if i < -1 {
		return 0, &NativeCallError{Op: "FPDFText_GetCharIndexAtPos"}
	}
	return int(i), nil
}

// CharFillColor returns the fill colour of a character.
func (l *Library) CharFillColor(textPage Handle, index int) (protocol.Color, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return protocol.Color{}, err
	}
	var c protocol.Color
	if !cBool(l.fn.textGetFillColor(ref, int32(index), &c.R, &c.G, &c.B, &c.A)) {
		return protocol.Color{}, &NativeCallError{Op: "FPDFText_GetFillColor"}
	}
	return c, nil
}

// CharStrokeColor returns the stroke colour of a character.
func (l *Library) CharStrokeColor(textPage Handle, index int) (protocol.Color, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return protocol.Color{}, err
	}
	var c protocol.Color
	if !cBool(l.fn.textGetStrokeColor(ref, int32(index), &c.R, &c.G, &c.B, &c.A)) {
		return protocol.Color{}, &NativeCallError{Op: "FPDFText_GetStrokeColor"}
	}
	return c, nil
}

// CharMatrix returns the text matrix of a character.
func (l *Library) CharMatrix(textPage Handle, index int) (protocol.Matrix, error) {
	ref, err := l.charRef(textPage, index)
	if err != nil {
		return protocol.Matrix{}, err
	}
	var m fsMatrix
	if !cBool(l.fn.textGetMatrix(ref, int32(index), &m)) {
		return protocol.Matrix{}, &NativeCallError{Op: "FPDFText_GetMatrix"}
	}
	return protocol.Matrix{
		A: float64(m.A), B: float64(m.B), C: float64(m.C),
		D: float64(m.D), E: float64(m.E), F: float64(m.F),
	}, nil
}

// FindText returns every match of query on the page in reading order.
func (l *Library) FindText(textPage Handle, query string, flags SearchFlags) ([]protocol.SearchMatch, error) {
	if query == "" {
		return nil, &ValidationError{Param: "query", Value: query, Message: "must not be empty"}
	}
	q, err := encodeUTF16Z("query", query)
	if err != nil {
		return nil, err
	}
	ref, err := l.textPage(textPage)
	if err != nil {
		return nil, err
	}

	search := l.fn.textFindStart(ref, unsafe.Pointer(&q[0]), cULong(flags), 0)
	if search == 0 {
		return nil, nil
	}
	defer l.fn.textFindClose(search)

	var matches []protocol.SearchMatch
	for cBool(l.fn.textFindNext(search)) {
		matches = append(matches, protocol.SearchMatch{
			Start: int(l.fn.textGetSchResultIndex(search)),
			Count: int(l.fn.textGetSchCount(search)),
		})
	}
	return matches, nil
}

// CountTextRects computes the rectangles covering count characters from
// start and returns how many there are. A count of -1 means to the end of
// the page. The rectangles are read with TextRect.
func (l *Library) CountTextRects(textPage Handle, start, count int) (int, error) {
	if err := validIndex("start index", start); err != nil {
		return 0, err
	}
	if count < -1 || count > maxInt32 {
		return 0, &ValidationError{Param: "count", Value: count, Message: "must be -1 or non-negative"}
	}
	ref, err := l.textPage(textPage)
	if err != nil {
		return 0, err
	}

	n := l.fn.textCountRects(ref, int32(start), int32(count))
	if n < 0 {
		return 0, &NativeCallError{Op: "FPDFText_CountRects"}
	}
	return int(n), nil
}

// TextRect returns a rectangle computed by the last CountTextRects.
func (l *Library) TextRect(textPage Handle, index int) (protocol.Rect, error) {
	if err := validIndex("rect index", index); err != nil {
		return protocol.Rect{}, err
	}
	ref, err := l.textPage(textPage)
	if err != nil {
		return protocol.Rect{}, err
	}

	var left, top, right, bottom float64
	if !cBool(l.fn.textGetRect(ref, int32(index), &left, &top, &right, &bottom)) {
		return protocol.Rect{}, &NativeCallError{Op: "FPDFText_GetRect"}
	}
	return protocol.Rect{Left: left, Top: top, Right: right, Bottom: bottom}, nil
}

// BoundedText returns the text inside r.
func (l *Library) BoundedText(textPage Handle, r protocol.Rect) (string, error) {
	ref, err := l.textPage(textPage)
	if err != nil {
		return "", err
	}

	// Sizes are in UTF-16 units, not bytes.
	n := l.fn.textGetBoundedText(ref, r.Left, r.Top, r.Right, r.Bottom, nil, 0)
	if n <= 0 {
		return "", nil
	}
	buf := make([]byte, int(n)*2)
	written := l.fn.textGetBoundedText(ref, r.Left, r.Top, r.Right, r.Bottom, unsafe.Pointer(&buf[0]), n)
	if written <= 0 {
		return "", nil
	}
	if written < n {
		buf = buf[:int(written)*2]
	}
	return decodeUTF16("bounded text", trimUTF16NUL(buf))
}
