package pdfium

import (
	"io"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// writeSink receives the chunks PDFium pushes through FPDF_FILEWRITE.
type writeSink struct {
	w   io.Writer
	n   int64
	err error
}

var (
	sinksMu sync.Mutex
	// Keyed by the address of the fileWrite passed as pThis.
	sinks = make(map[uintptr]*writeSink)

	writeCallbackOnce sync.Once
	writeCallbackAddr uintptr
)

// writeCallback returns the C function pointer for WriteBlock. Callbacks
// cannot be freed, so one is shared by every save.
func writeCallback() uintptr {
	writeCallbackOnce.Do(func() {
		writeCallbackAddr = purego.NewCallback(dispatchWriteBlock)
	})
	return writeCallbackAddr
}

// registerSink routes writes for fw to w until the returned func is called.
func registerSink(fw *fileWrite, w io.Writer) (*writeSink, func()) {
	key := uintptr(unsafe.Pointer(fw))
	s := &writeSink{w: w}

	sinksMu.Lock()
	sinks[key] = s
	sinksMu.Unlock()

	return s, func() {
		sinksMu.Lock()
		delete(sinks, key)
		sinksMu.Unlock()
	}
}

// dispatchWriteBlock implements WriteBlock. It returns 1 on success and 0 to
// make PDFium abort the save.
func dispatchWriteBlock(pThis, pData, size uintptr) uintptr {
	sinksMu.Lock()
	s := sinks[pThis]
	sinksMu.Unlock()

	if s == nil {
		return 0
	}
	// Only the low bits carry the value when unsigned long is 32-bit.
	n := int(cULong(size))
	if pData == 0 || n == 0 {
		return 1
	}
	if s.err != nil {
		return 0
	}

	chunk := unsafe.Slice((*byte)(unsafe.Pointer(pData)), n)
	written, err := s.w.Write(chunk)
	s.n += int64(written)
	if err == nil && written < n {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.err = err
		return 0
	}
	return 1
}
