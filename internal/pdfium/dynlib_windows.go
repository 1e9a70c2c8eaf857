//go:build windows

package pdfium

import (
	"golang.org/x/sys/windows"
)

type dll struct {
	handle windows.Handle
}

func openLibrary(path string) (dynLib, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return &dll{handle: h}, nil
}

func (d *dll) lookup(name string) (uintptr, error) {
	return windows.GetProcAddress(d.handle, name)
}

func (d *dll) close() error {
	return windows.FreeLibrary(d.handle)
}

// DefaultLibraryName is the file name PDFium builds use on this platform.
func DefaultLibraryName() string {
	return "pdfium.dll"
}
