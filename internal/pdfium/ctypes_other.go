//go:build !windows

package pdfium

// cULong matches C unsigned long on LP64 and ILP32 platforms.
type cULong = uint
