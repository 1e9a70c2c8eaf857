package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/woxQAQ/pdfbridge/internal/config"
	"github.com/woxQAQ/pdfbridge/internal/pdfium"
)

// Runner serializes access to the native library. bundle.Manager is the
// production implementation.
type Runner interface {
	Do(ctx context.Context, fn func(*pdfium.Library) error) error
	Shutdown(ctx context.Context) error
}

// Service runs whole-document jobs. Each job opens the handles it needs
// and closes all of them before it returns.
type Service struct {
	runner Runner
	render config.RenderConfig
	logger *zap.Logger
}

// New creates a service backed by runner.
func New(runner Runner, render config.RenderConfig, logger *zap.Logger) *Service {
	return &Service{
		runner: runner,
		render: render,
		logger: logger.With(zap.String("component", "service")),
	}
}

// Close shuts the runner down.
func (s *Service) Close(ctx context.Context) error {
	return s.runner.Shutdown(ctx)
}

// withDocument loads data for the duration of fn.
func (s *Service) withDocument(ctx context.Context, data []byte, password string, fn func(lib *pdfium.Library, doc pdfium.Handle) error) error {
	return s.runner.Do(ctx, func(lib *pdfium.Library) (err error) {
		doc, err := lib.LoadDocument(data, password)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, lib.CloseDocument(doc))
		}()
		return fn(lib, doc)
	})
}

// withPage loads page index of doc for the duration of fn.
func withPage(lib *pdfium.Library, doc pdfium.Handle, index int, fn func(page pdfium.Handle) error) (err error) {
	page, err := lib.LoadPage(doc, index)
	if err != nil {
		return fmt.Errorf("failed to load page %d: %w", index, err)
	}
	defer func() {
		err = errors.Join(err, lib.ClosePage(page))
	}()
	return fn(page)
}

// withTextPage loads page index and its text layer for the duration of fn.
func withTextPage(lib *pdfium.Library, doc pdfium.Handle, index int, fn func(page, text pdfium.Handle) error) error {
	return withPage(lib, doc, index, func(page pdfium.Handle) (err error) {
		tp, err := lib.LoadTextPage(page)
		if err != nil {
			return fmt.Errorf("failed to load text of page %d: %w", index, err)
		}
		defer func() {
			err = errors.Join(err, lib.CloseTextPage(tp))
		}()
		return fn(page, tp)
	})
}
