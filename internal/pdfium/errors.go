package pdfium

import (
	"errors"
	"fmt"
)

// ErrLibraryClosed is returned by every operation once the library has been closed.
var ErrLibraryClosed = errors.New("pdfium library is closed")

// Sentinels matched by HandleError.Is.
var (
	ErrHandleNotFound = errors.New("handle not found")
	ErrWrongKind      = errors.New("handle has wrong kind")
)

// LoadError occurs when the shared library cannot be opened or a mandatory
// symbol is missing from it.
type LoadError struct {
	Path   string
	Symbol string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("failed to load pdfium library '%s': missing symbol %s: %v",
			e.Path, e.Symbol, e.Err)
	}
	return fmt.Sprintf("failed to load pdfium library '%s': %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrorCode is the value reported by FPDF_GetLastError.
type ErrorCode uint32

const (
	ErrCodeSuccess ErrorCode = iota
	ErrCodeUnknown
	ErrCodeFile
	ErrCodeFormat
	ErrCodePassword
	ErrCodeSecurity
	ErrCodePage
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeSuccess:
		return "success"
	case ErrCodeUnknown:
		return "unknown error"
	case ErrCodeFile:
		return "file not found or could not be opened"
	case ErrCodeFormat:
		return "file not in PDF format or corrupted"
	case ErrCodePassword:
		return "password required or incorrect password"
	case ErrCodeSecurity:
		return "unsupported security scheme"
	case ErrCodePage:
		return "page not found or content error"
	default:
		return fmt.Sprintf("error %d", uint32(c))
	}
}

// DocumentLoadError occurs when the native library rejects document bytes.
type DocumentLoadError struct {
	Source string
	Code   ErrorCode
}

func (e *DocumentLoadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("failed to load document '%s', error code: %d (%s)",
			e.Source, uint32(e.Code), e.Code)
	}
	return fmt.Sprintf("failed to load document, error code: %d (%s)", uint32(e.Code), e.Code)
}

// HandleReason tells NotFound and WrongKind apart.
type HandleReason int

const (
	NotFound HandleReason = iota
	WrongKind
)

func (r HandleReason) String() string {
	if r == WrongKind {
		return "wrong kind"
	}
	return "not found"
}

// HandleError occurs when a handle does not resolve to an open resource of
// the expected kind.
type HandleError struct {
	Handle Handle
	Want   Kind
	Got    Kind
	Reason HandleReason
	// Released is set for NotFound handles that were issued and later closed.
	Released bool
}

func (e *HandleError) Error() string {
	switch {
	case e.Reason == WrongKind:
		return fmt.Sprintf("handle %d is a %s, not a %s", e.Handle, e.Got, e.Want)
	case e.Released:
		return fmt.Sprintf("%s handle %d has been closed", e.Want, e.Handle)
	default:
		return fmt.Sprintf("%s handle %d was never issued", e.Want, e.Handle)
	}
}

func (e *HandleError) Is(target error) bool {
	switch target {
	case ErrHandleNotFound:
		return e.Reason == NotFound
	case ErrWrongKind:
		return e.Reason == WrongKind
	}
	return false
}

// NativeCallError occurs when a native function reports failure through a
// null, zero or false result.
type NativeCallError struct {
	Op     string
	Detail string
}

func (e *NativeCallError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("%s failed", e.Op)
}

// DecodeError occurs when native output is not valid in its stated encoding.
type DecodeError struct {
	Field    string
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s as %s: %v", e.Field, e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError occurs when a caller-supplied argument is out of range.
// It is always raised before any native call.
type ValidationError struct {
	Param   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Param, e.Value, e.Message)
}
