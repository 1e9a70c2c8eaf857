package pdfium

import (
	"image"
	"unsafe"
)

// RenderFlags are passed to FPDF_RenderPageBitmap.
type RenderFlags int32

const (
	RenderAnnotations      RenderFlags = 0x01
	RenderLCDText          RenderFlags = 0x02
	RenderNoNativeText     RenderFlags = 0x04
	RenderGrayscale        RenderFlags = 0x08
	RenderLimitImageCache  RenderFlags = 0x200
	RenderForceHalftone    RenderFlags = 0x400
	RenderPrinting         RenderFlags = 0x800
	renderReverseByteOrder RenderFlags = 0x10
)

// bitmapBGRA is FPDFBitmap_BGRA.
const bitmapBGRA = 4

// RenderOptions controls RenderPage.
type RenderOptions struct {
	Width  int
	Height int
	// Rotation in quarter turns clockwise, 0-3.
	Rotation int
	Flags    RenderFlags
	// Background is filled before rendering, as 0xAARRGGBB.
	Background uint32
}

// RenderPage rasterises page into a new RGBA buffer of Width*Height*4 bytes.
func (l *Library) RenderPage(page Handle, opts RenderOptions) ([]byte, error) {
	if opts.Width <= 0 || opts.Width > maxInt32/4 {
		return nil, &ValidationError{Param: "width", Value: opts.Width, Message: "must be positive"}
	}
	if opts.Height <= 0 || opts.Height > maxInt32 {
		return nil, &ValidationError{Param: "height", Value: opts.Height, Message: "must be positive"}
	}
	if err := validRotation(opts.Rotation); err != nil {
		return nil, err
	}
	ref, err := l.page(page)
	if err != nil {
		return nil, err
	}

	w, h := int32(opts.Width), int32(opts.Height)
	stride := w * 4
	buf := make([]byte, opts.Width*opts.Height*4)

	bitmap := l.fn.bitmapCreateEx(w, h, bitmapBGRA, unsafe.Pointer(&buf[0]), stride)
	if bitmap == 0 {
		return nil, &NativeCallError{Op: "FPDFBitmap_CreateEx"}
	}
	if got := l.fn.bitmapGetStride(bitmap); got != stride {
		l.fn.bitmapDestroy(bitmap)
		return nil, &NativeCallError{Op: "FPDFBitmap_CreateEx", Detail: "bitmap stride does not match the buffer"}
	}
	if l.fn.bitmapGetBuffer(bitmap) != uintptr(unsafe.Pointer(&buf[0])) {
		l.fn.bitmapDestroy(bitmap)
		return nil, &NativeCallError{Op: "FPDFBitmap_CreateEx", Detail: "bitmap does not use the supplied buffer"}
	}

	l.fn.bitmapFillRect(bitmap, 0, 0, w, h, cULong(opts.Background))
	l.fn.renderPageBitmap(bitmap, ref, 0, 0, w, h, int32(opts.Rotation), int32(opts.Flags&^renderReverseByteOrder))
	l.fn.bitmapDestroy(bitmap)

	// BGRA to RGBA.
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+2] = buf[i+2], buf[i]
	}
	return buf, nil
}

// RenderImage renders page into an image.
func (l *Library) RenderImage(page Handle, opts RenderOptions) (*image.NRGBA, error) {
	pix, err := l.RenderPage(page, opts)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: opts.Width * 4,
		Rect:   image.Rect(0, 0, opts.Width, opts.Height),
	}, nil
}
