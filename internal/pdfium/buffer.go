package pdfium

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/encoding/unicode"
)

// Variable-length native outputs are read in two calls. The first passes a
// nil buffer and zero capacity and returns the required size. A size of zero
// means the field is absent and no second call is made. Otherwise a buffer of
// exactly that size is passed to the second call, one trailing terminator is
// stripped and the remainder is decoded.

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// sizedCall is one invocation of a two-phase getter whose size unit is bytes.
type sizedCall func(buf unsafe.Pointer, capacity cULong) cULong

// readSized returns the filled buffer, or nil when the field is absent.
func readSized(call sizedCall) []byte {
	size := call(nil, 0)
	if size == 0 {
		return nil
	}

	buf := make([]byte, size)
	written := call(unsafe.Pointer(&buf[0]), size)
	if written > 0 && written < size {
		buf = buf[:written]
	}
	return buf
}

// readUTF16Field reads a NUL-terminated UTF-16LE field. A field holding only
// the terminator is reported as absent.
func readUTF16Field(field string, call sizedCall) (string, bool, error) {
	raw := readSized(call)
	if raw == nil {
		return "", false, nil
	}

	s, err := decodeUTF16(field, trimUTF16NUL(raw))
	if err != nil {
		return "", false, err
	}
	if s == "" {
		return "", false, nil
	}
	return s, true, nil
}

type byteEncoding int

const (
	encodingUTF8 byteEncoding = iota
	encodingASCII
)

func (e byteEncoding) String() string {
	if e == encodingASCII {
		return "ASCII"
	}
	return "UTF-8"
}

// readByteField reads a NUL-terminated 8-bit field in the given encoding.
func readByteField(field string, enc byteEncoding, call sizedCall) (string, bool, error) {
	raw := readSized(call)
	if raw == nil {
		return "", false, nil
	}

	s, err := decodeBytes(field, enc, raw)
	if err != nil {
		return "", false, err
	}
	if s == "" {
		return "", false, nil
	}
	return s, true, nil
}

func trimUTF16NUL(raw []byte) []byte {
	n := len(raw)
	if n >= 2 && n%2 == 0 && raw[n-2] == 0 && raw[n-1] == 0 {
		return raw[:n-2]
	}
	return raw
}

var (
	errOddLength       = errors.New("odd byte length")
	errLoneSurrogate   = errors.New("unpaired surrogate")
	errInvalidUTF8     = errors.New("invalid UTF-8 sequence")
	errNonASCII        = errors.New("byte outside the ASCII range")
	errEmbeddedNUL     = errors.New("string contains a NUL byte")
	errNotUTF8Argument = errors.New("string is not valid UTF-8")
)

// decodeUTF16 decodes little-endian UTF-16. Unpaired surrogates are an
// error rather than being replaced.
func decodeUTF16(field string, raw []byte) (string, error) {
	if len(raw)%2 != 0 {
		return "", &DecodeError{Field: field, Encoding: "UTF-16LE", Err: errOddLength}
	}

	for i := 0; i < len(raw); i += 2 {
		u := uint16(raw[i]) | uint16(raw[i+1])<<8
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+3 >= len(raw) {
				return "", &DecodeError{Field: field, Encoding: "UTF-16LE", Err: errLoneSurrogate}
			}
			next := uint16(raw[i+2]) | uint16(raw[i+3])<<8
			if next < 0xDC00 || next > 0xDFFF {
				return "", &DecodeError{Field: field, Encoding: "UTF-16LE", Err: errLoneSurrogate}
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return "", &DecodeError{Field: field, Encoding: "UTF-16LE", Err: errLoneSurrogate}
		}
	}

	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return "", &DecodeError{Field: field, Encoding: "UTF-16LE", Err: err}
	}
	return string(out), nil
}

func decodeBytes(field string, enc byteEncoding, raw []byte) (string, error) {
	if n := len(raw); n > 0 && raw[n-1] == 0 {
		raw = raw[:n-1]
	}

	switch enc {
	case encodingASCII:
		for _, b := range raw {
			if b >= 0x80 {
				return "", &DecodeError{Field: field, Encoding: enc.String(), Err: errNonASCII}
			}
		}
	default:
		if !utf8.Valid(raw) {
			return "", &DecodeError{Field: field, Encoding: enc.String(), Err: errInvalidUTF8}
		}
	}
	return string(raw), nil
}

// encodeUTF16Z encodes s as NUL-terminated UTF-16LE for native input.
func encodeUTF16Z(param, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, &ValidationError{Param: param, Value: s, Message: errNotUTF8Argument.Error()}
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, &ValidationError{Param: param, Value: s, Message: errEmbeddedNUL.Error()}
	}

	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &ValidationError{Param: param, Value: s, Message: fmt.Sprintf("cannot encode as UTF-16: %v", err)}
	}
	return append(out, 0, 0), nil
}

// cString returns a pointer to a NUL-terminated copy of s.
func cString(param, s string) (*byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, &ValidationError{Param: param, Value: s, Message: errEmbeddedNUL.Error()}
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0], nil
}
