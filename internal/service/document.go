package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/woxQAQ/pdfbridge/internal/pdfium"
	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// Save re-serialises the document through the native writer.
func (s *Service) Save(ctx context.Context, data []byte, password string, opts pdfium.SaveOptions) ([]byte, error) {
	var out []byte
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		var err error
		out, err = lib.Save(doc, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return out, nil
}

// Links lists the links on page.
func (s *Service) Links(ctx context.Context, data []byte, password string, page int) ([]protocol.LinkInfo, error) {
	var links []protocol.LinkInfo
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		return withPage(lib, doc, page, func(p pdfium.Handle) error {
			var err error
			links, err = lib.Links(p, doc)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read links of page %d: %w", page, err)
	}
	return links, nil
}

// Outline returns the bookmark tree.
func (s *Service) Outline(ctx context.Context, data []byte, password string) ([]protocol.BookmarkNode, error) {
	var nodes []protocol.BookmarkNode
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		var err error
		nodes, err = lib.Bookmarks(doc)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}
	return nodes, nil
}

// Signatures returns every signature dictionary in document order.
func (s *Service) Signatures(ctx context.Context, data []byte, password string) ([]protocol.Signature, error) {
	var sigs []protocol.Signature
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		n, err := lib.SignatureCount(doc)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			sig, err := lib.Signature(doc, i)
			if err != nil {
				return err
			}
			sigs = append(sigs, sig)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read signatures: %w", err)
	}
	return sigs, nil
}

var disableConfigDir sync.Once

// Verify checks data with two independent pure-Go readers: pdfcpu
// validation and a page count from ledongthuc/pdf. It never touches the
// native library, so it can vet bytes produced by Save.
func (s *Service) Verify(data []byte) (*protocol.VerifyReport, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no data to verify")
	}
	disableConfigDir.Do(api.DisableConfigDir)

	report := &protocol.VerifyReport{Valid: true}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		report.Valid = false
		report.ValidationError = err.Error()
	}

	pages, err := countPages(data)
	if err != nil {
		return report, fmt.Errorf("failed to read document: %w", err)
	}
	report.PageCount = pages

	s.logger.Debug("Verified document",
		zap.Bool("valid", report.Valid),
		zap.Int("pages", report.PageCount),
	)
	return report, nil
}

// countPages reads the page tree with ledongthuc/pdf, which panics on
// some malformed inputs.
func countPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
