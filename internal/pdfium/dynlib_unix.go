//go:build darwin || freebsd || linux || netbsd

package pdfium

import (
	"runtime"

	"github.com/ebitengine/purego"
)

type sharedObject struct {
	handle uintptr
}

func openLibrary(path string) (dynLib, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	return &sharedObject{handle: h}, nil
}

func (s *sharedObject) lookup(name string) (uintptr, error) {
	return purego.Dlsym(s.handle, name)
}

func (s *sharedObject) close() error {
	return purego.Dlclose(s.handle)
}

// DefaultLibraryName is the file name PDFium builds use on this platform.
func DefaultLibraryName() string {
	if runtime.GOOS == "darwin" {
		return "libpdfium.dylib"
	}
	return "libpdfium.so"
}
