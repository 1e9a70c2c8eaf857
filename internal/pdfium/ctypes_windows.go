package pdfium

// cULong matches C unsigned long, which is 32 bits on Windows.
type cULong = uint32
