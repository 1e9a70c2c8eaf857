package pdfium

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SaveFlags are passed to FPDF_SaveAsCopy.
type SaveFlags uint32

const (
	SaveNone SaveFlags = iota
	SaveIncremental
	SaveNoIncremental
	SaveRemoveSecurity
)

// SaveOptions controls Save.
type SaveOptions struct {
	Flags SaveFlags
	// Version is the header version as major*10+minor. Zero keeps the
	// document's version.
	Version int
}

// ParseVersion converts "1.7" to 17.
func ParseVersion(s string) (int, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return 0, &ValidationError{Param: "version", Value: s, Message: "expected MAJOR.MINOR"}
	}
	ma, err1 := strconv.Atoi(major)
	mi, err2 := strconv.Atoi(minor)
	if err1 != nil || err2 != nil || ma < 1 || ma > 2 || mi < 0 || mi > 9 {
		return 0, &ValidationError{Param: "version", Value: s, Message: "expected MAJOR.MINOR such as 1.7"}
	}
	return ma*10 + mi, nil
}

// Save serializes doc and returns the bytes.
func (l *Library) Save(doc Handle, opts SaveOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := l.SaveTo(doc, &buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveTo serializes doc into w. Chunks are written in the order PDFium
// produces them. A write error aborts the save and is returned.
func (l *Library) SaveTo(doc Handle, w io.Writer, opts SaveOptions) error {
	if opts.Flags > SaveRemoveSecurity {
		return &ValidationError{Param: "save flags", Value: uint32(opts.Flags), Message: "must be between 0 and 3"}
	}
	if opts.Version < 0 {
		return &ValidationError{Param: "version", Value: opts.Version, Message: "must not be negative"}
	}
	ref, err := l.doc(doc)
	if err != nil {
		return err
	}

	fw := &fileWrite{version: 1, writeBlock: l.writeBlock}
	sink, unregister := registerSink(fw, w)
	defer unregister()

	op := "FPDF_SaveAsCopy"
	var ok int32
	if opts.Version > 0 {
		op = "FPDF_SaveWithVersion"
		ok = l.fn.saveWithVersion(ref, fw, cULong(opts.Flags), int32(opts.Version))
	} else {
		ok = l.fn.saveAsCopy(ref, fw, cULong(opts.Flags))
	}

	if sink.err != nil {
		return fmt.Errorf("failed to write saved document: %w", sink.err)
	}
	if !cBool(ok) {
		return &NativeCallError{Op: op}
	}

	l.logger.Debug("Document saved",
		zap.Uint32("handle", uint32(doc)),
		zap.Int64("size_bytes", sink.n),
		zap.Int("version", opts.Version),
	)
	return nil
}
