package service

import (
	"context"
	"fmt"
	"unicode/utf16"

	"github.com/woxQAQ/pdfbridge/internal/pdfium"
	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// ExtractText returns the text of the given zero-based pages in order. A
// nil pages slice selects every page.
func (s *Service) ExtractText(ctx context.Context, data []byte, password string, pages []int) ([]string, error) {
	var out []string
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		count, err := lib.PageCount(doc)
		if err != nil {
			return err
		}
		if pages == nil {
			pages = make([]int, count)
			for i := range pages {
				pages[i] = i
			}
		}

		for _, index := range pages {
			if index < 0 || index >= count {
				return fmt.Errorf("page %d out of range (document has %d pages)", index, count)
			}
			err := withTextPage(lib, doc, index, func(_, tp pdfium.Handle) error {
				text, err := lib.Text(tp)
				out = append(out, text)
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	return out, nil
}

// Search finds query on page and returns each hit with its matched text
// and highlight rectangles.
func (s *Service) Search(ctx context.Context, data []byte, password string, page int, query string, flags pdfium.SearchFlags) ([]protocol.SearchHit, error) {
	var hits []protocol.SearchHit
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		return withTextPage(lib, doc, page, func(_, tp pdfium.Handle) error {
			matches, err := lib.FindText(tp, query, flags)
			if err != nil || len(matches) == 0 {
				return err
			}
			text, err := lib.Text(tp)
			if err != nil {
				return err
			}
			units := utf16.Encode([]rune(text))

			for _, m := range matches {
				hit := protocol.SearchHit{SearchMatch: m}
				if end := m.Start + m.Count; m.Start >= 0 && end <= len(units) {
					hit.Text = string(utf16.Decode(units[m.Start:end]))
				}

				n, err := lib.CountTextRects(tp, m.Start, m.Count)
				if err != nil {
					return err
				}
				for i := 0; i < n; i++ {
					r, err := lib.TextRect(tp, i)
					if err != nil {
						return err
					}
					hit.Rects = append(hit.Rects, r)
				}
				hits = append(hits, hit)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search page %d: %w", page, err)
	}
	return hits, nil
}
