package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/woxQAQ/pdfbridge/internal/config"
	"github.com/woxQAQ/pdfbridge/internal/pdfium"
)

type openFunc func(path string, cfg *pdfium.Config, logger *zap.Logger) (*pdfium.Library, error)

// Manager owns the PDFium library for the process. All access goes through
// Do, which runs jobs one at a time on a dedicated OS thread.
type Manager struct {
	cfg      *config.Config
	loader   *Loader
	registry *Registry
	logger   *zap.Logger
	baseLog  *zap.Logger
	platform string
	open     openFunc

	mu      sync.RWMutex
	lib     *pdfium.Library
	libPath string
	worker  *worker
	started bool
}

// NewManager creates a new library manager.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		loader:   NewLoader(logger),
		registry: NewRegistry(logger),
		logger:   logger.With(zap.String("component", "bundle-manager")),
		baseLog:  logger,
		platform: CurrentPlatform(),
		open:     pdfium.Open,
	}
}

// Start locates and opens the library, checks the required capabilities
// and initialises it on the worker thread.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("pdfium manager already started")
	}

	if m.cfg.Library.Path == "" {
		if err := m.discover(ctx); err != nil {
			return err
		}
	}

	path, err := m.resolveLibraryPath()
	if err != nil {
		return err
	}

	lib, err := m.open(path, &pdfium.Config{
		MaxBookmarkDepth: m.cfg.Outline.MaxDepth,
		UserFontPaths:    m.cfg.Library.UserFontPaths,
	}, m.baseLog)
	if err != nil {
		return err
	}

	if err := checkCapabilities(path, lib.Capabilities(), m.cfg.Library.RequiredCapabilities); err != nil {
		m.discard(path, lib)
		return err
	}

	w := newWorker(m.cfg.Worker.QueueSize, m.logger)
	w.start()
	if err := w.do(ctx, lib.Init); err != nil {
		w.stop(context.Background(), lib.Close)
		return fmt.Errorf("failed to initialize pdfium: %w", err)
	}

	m.lib = lib
	m.libPath = path
	m.worker = w
	m.started = true

	m.logger.Info("PDFium manager started",
		zap.String("path", path),
		zap.String("platform", m.platform),
	)
	return nil
}

func (m *Manager) discover(ctx context.Context) error {
	bundles, err := m.loader.DiscoverBundles(ctx, m.cfg.Library.BundlePaths)
	if err != nil {
		var notFound *NoBundlesFoundError
		if errors.As(err, &notFound) {
			m.logger.Warn("No bundles found in configured paths",
				zap.Strings("paths", m.cfg.Library.BundlePaths),
			)
			return nil
		}
		return err
	}

	for _, b := range bundles {
		if err := m.registry.Register(b); err != nil {
			m.logger.Error("Failed to register bundle",
				zap.String("name", b.Name()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// resolveLibraryPath picks the library to open: the configured path, then
// the first registered bundle for this platform, then the platform default
// file name in each search path.
func (m *Manager) resolveLibraryPath() (string, error) {
	if p := m.cfg.Library.Path; p != "" {
		return p, nil
	}

	for _, b := range m.registry.LookupByPlatform(m.platform) {
		if p, ok := b.LibraryPath(m.platform); ok {
			m.logger.Debug("Using bundled library",
				zap.String("bundle", b.Name()),
				zap.String("path", p),
			)
			return p, nil
		}
	}

	var tried []string
	for _, dir := range m.cfg.Library.SearchPaths {
		candidate := filepath.Join(dir, pdfium.DefaultLibraryName())
		tried = append(tried, candidate)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", &NoLibraryError{Platform: m.platform, Tried: tried}
}

func checkCapabilities(path string, caps pdfium.Capabilities, required []string) error {
	for _, c := range required {
		if !caps.Has(c) {
			return &MissingCapabilityError{Path: path, Capability: c}
		}
	}
	return nil
}

// discard closes a library that will not be used and logs a failure to do so.
func (m *Manager) discard(path string, lib io.Closer) {
	if err := lib.Close(); err != nil {
		m.logger.Warn("Failed to close rejected library",
			zap.String("path", path),
			zap.Error(err))
	}
}

// Do runs fn on the worker thread and returns its error. A job that has
// not started when ctx is cancelled is dropped; a running job is never
// interrupted.
func (m *Manager) Do(ctx context.Context, fn func(*pdfium.Library) error) error {
	m.mu.RLock()
	w, lib, started := m.worker, m.lib, m.started
	m.mu.RUnlock()

	if !started {
		return ErrManagerStopped
	}
	return w.do(ctx, func() error { return fn(lib) })
}

// Shutdown drains pending jobs, then closes the library on the worker
// thread. Close releases open handles, destroys the library and unloads it.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	w, lib := m.worker, m.lib
	m.started = false
	m.mu.Unlock()

	m.logger.Info("Shutting down pdfium manager")

	// Close sweeps leftover handles before it destroys the library.
	if err := w.stop(ctx, lib.Close); err != nil {
		m.logger.Error("Failed to shutdown pdfium", zap.Error(err))
		return err
	}

	m.logger.Info("PDFium manager shutdown complete")
	return nil
}

// Registry returns the bundle registry (for testing/inspection).
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IsStarted returns whether the library is open and initialised.
func (m *Manager) IsStarted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}

// LibraryPath returns the path of the opened library, or "" before Start.
func (m *Manager) LibraryPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.libPath
}
