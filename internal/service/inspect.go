package service

import (
	"context"
	"fmt"

	"github.com/woxQAQ/pdfbridge/internal/pdfium"
	"github.com/woxQAQ/pdfbridge/pkg/protocol"
)

// Inspect summarises a document: metadata, security, per-page geometry,
// outline, attachments and signatures.
func (s *Service) Inspect(ctx context.Context, data []byte, password string) (*protocol.DocumentReport, error) {
	var report *protocol.DocumentReport
	err := s.withDocument(ctx, data, password, func(lib *pdfium.Library, doc pdfium.Handle) error {
		var err error
		report, err = inspect(lib, doc)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to inspect document: %w", err)
	}
	return report, nil
}

func inspect(lib *pdfium.Library, doc pdfium.Handle) (*protocol.DocumentReport, error) {
	r := &protocol.DocumentReport{Metadata: make(map[string]string)}

	var err error
	if r.PageCount, err = lib.PageCount(doc); err != nil {
		return nil, err
	}
	// Documents repaired on load may have no version.
	if v, err := lib.FileVersion(doc); err == nil {
		r.FileVersion = v
	}

	for _, tag := range pdfium.MetadataTags {
		value, ok, err := lib.MetaText(doc, tag)
		if err != nil {
			return nil, err
		}
		if ok {
			r.Metadata[tag] = value
		}
	}

	if r.Permissions, err = lib.Permissions(doc); err != nil {
		return nil, err
	}
	if r.UserPermissions, err = lib.UserPermissions(doc); err != nil {
		return nil, err
	}
	if r.SecurityRevision, err = lib.SecurityHandlerRevision(doc); err != nil {
		return nil, err
	}
	if r.PageMode, err = lib.PageMode(doc); err != nil {
		return nil, err
	}
	if r.Tagged, err = lib.IsTagged(doc); err != nil {
		return nil, err
	}

	for i := 0; i < r.PageCount; i++ {
		p, err := inspectPage(lib, doc, i)
		if err != nil {
			return nil, err
		}
		r.Pages = append(r.Pages, p)
	}

	if r.Bookmarks, err = lib.Bookmarks(doc); err != nil {
		return nil, err
	}

	n, err := lib.AttachmentCount(doc)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		a, _, err := lib.Attachment(doc, i)
		if err != nil {
			return nil, err
		}
		r.Attachments = append(r.Attachments, a.Name)
	}

	if r.SignatureCount, err = lib.SignatureCount(doc); err != nil {
		return nil, err
	}
	return r, nil
}

func inspectPage(lib *pdfium.Library, doc pdfium.Handle, index int) (protocol.PageReport, error) {
	p := protocol.PageReport{Index: index}
	label, _, err := lib.PageLabel(doc, index)
	if err != nil {
		return p, err
	}
	p.Label = label

	err = withPage(lib, doc, index, func(page pdfium.Handle) error {
		var err error
		if p.Width, err = lib.PageWidth(page); err != nil {
			return err
		}
		if p.Height, err = lib.PageHeight(page); err != nil {
			return err
		}
		if p.Rotation, err = lib.PageRotation(page); err != nil {
			return err
		}
		if box, ok, err := lib.PageBox(page, pdfium.BoxMedia); err != nil {
			return err
		} else if ok {
			p.MediaBox = &box
		}
		if box, ok, err := lib.PageBox(page, pdfium.BoxCrop); err != nil {
			return err
		} else if ok {
			p.CropBox = &box
		}
		return nil
	})
	return p, err
}
