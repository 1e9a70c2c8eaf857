package service

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/woxQAQ/pdfbridge/internal/pdfium"
)

// RenderRequest selects the output size of RenderPage.
type RenderRequest struct {
	// DPI defaults to the configured render.dpi when zero.
	DPI float64
	// MaxDimension caps the longer side in pixels after rendering. Zero
	// leaves the image unscaled.
	MaxDimension int
	// Rotation in quarter turns clockwise, 0-3.
	Rotation int
}

// RenderPage rasterises page index at the requested resolution.
func (s *Service) RenderPage(ctx context.Context, data []byte, password string, index int, req RenderRequest) (*image.NRGBA, error) {
	dpi := req.DPI
	if dpi == 0 {
		dpi = s.render.DPI
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %v", dpi)
	}

	var img *image.NRGBA
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		return withPage(lib, doc, index, func(page pdfium.Handle) error {
			w, err := lib.PageWidth(page)
			if err != nil {
				return err
			}
			h, err := lib.PageHeight(page)
			if err != nil {
				return err
			}

			width, height := pixelSize(w, h, dpi, req.Rotation)
			img, err = lib.RenderImage(page, pdfium.RenderOptions{
				Width:      width,
				Height:     height,
				Rotation:   req.Rotation,
				Flags:      pdfium.RenderFlags(s.render.Flags),
				Background: s.render.Background,
			})
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index, err)
	}

	if req.MaxDimension > 0 {
		img = fit(img, req.MaxDimension)
	}
	return img, nil
}

// pixelSize converts a page size in points to pixels. Quarter turns 1 and
// 3 swap the axes.
func pixelSize(widthPt, heightPt, dpi float64, rotation int) (int, int) {
	w := max(1, int(math.Round(widthPt*dpi/72)))
	h := max(1, int(math.Round(heightPt*dpi/72)))
	if rotation%2 == 1 {
		return h, w
	}
	return w, h
}

// fit scales img down so its longer side is at most limit pixels.
func fit(img *image.NRGBA, limit int) *image.NRGBA {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if longest <= limit {
		return img
	}

	scale := float64(limit) / float64(longest)
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
