package pdfium

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// Library is a loaded PDFium shared object together with the handle table
// of everything opened through it.
//
// PDFium is not thread-safe. The handle table guards its own state, but
// native calls made through a Library must be serialized by the caller.
type Library struct {
	path string
	lib  dynLib
	fn   *symbols
	caps Capabilities

	handles *handleTable
	config  *Config
	logger  *zap.Logger

	// Address of the native write callback used by Save.
	writeBlock uintptr

	// NULL-terminated font path array handed to FPDF_InitLibraryWithConfig.
	// PDFium keeps the pointer, so it lives as long as the Library.
	fontPaths []*byte

	mu          sync.Mutex
	initialized bool

	closeOnce sync.Once
	closed    chan struct{}
}

// Config holds library configuration.
type Config struct {
	// Bookmarks deeper than this are not returned.
	MaxBookmarkDepth int

	// Extra directories searched for system fonts.
	UserFontPaths []string
}

// DefaultConfig returns the defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxBookmarkDepth: 100,
	}
}

// Open loads the shared library at path and resolves its symbols. The
// library still has to be initialised with Init before documents are loaded.
func Open(path string, cfg *Config, logger *zap.Logger) (*Library, error) {
	lib, err := openLibrary(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	fn := &symbols{}
	specs := fn.table()
	addrs, missing, err := resolveSymbols(lib, specs)
	if err != nil {
		_ = lib.close()
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	bindSymbols(specs, addrs)

	l, err := newLibrary(fn, lib, capabilitiesFrom(specs, addrs), cfg, logger)
	if err != nil {
		_ = lib.close()
		return nil, err
	}
	l.path = path
	l.writeBlock = writeCallback()

	for _, name := range missing {
		l.logger.Warn("Optional symbol not found, using fallback",
			zap.String("symbol", name),
		)
	}
	l.logger.Info("PDFium library loaded",
		zap.String("path", path),
		zap.Int("symbols", len(addrs)),
		zap.Bool("text_render_mode", l.caps.TextRenderMode),
	)

	return l, nil
}

func newLibrary(fn *symbols, lib dynLib, caps Capabilities, cfg *Config, logger *zap.Logger) (*Library, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxBookmarkDepth <= 0 {
		return nil, &ValidationError{Param: "max bookmark depth", Value: cfg.MaxBookmarkDepth, Message: "must be positive"}
	}

	var fontPaths []*byte
	if len(cfg.UserFontPaths) > 0 {
		fontPaths = make([]*byte, 0, len(cfg.UserFontPaths)+1)
		for _, p := range cfg.UserFontPaths {
			cp, err := cString("user font path", p)
			if err != nil {
				return nil, err
			}
			fontPaths = append(fontPaths, cp)
		}
		fontPaths = append(fontPaths, nil)
	}

	return &Library{
		lib:       lib,
		fn:        fn,
		caps:      caps,
		handles:   newHandleTable(),
		config:    cfg,
		logger:    logger.With(zap.String("component", "pdfium-library")),
		fontPaths: fontPaths,
		closed:    make(chan struct{}),
	}, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Capabilities reports which optional features the loaded build provides.
func (l *Library) Capabilities() Capabilities {
	return l.caps
}

// Init initialises PDFium. Calling it again is a no-op.
func (l *Library) Init() error {
	if l.IsClosed() {
		return ErrLibraryClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	cfg := libraryConfig{version: 2}
	if len(l.fontPaths) > 0 {
		cfg.userFontPaths = unsafe.Pointer(&l.fontPaths[0])
	}
	l.fn.initLibraryWithConfig(&cfg)
	l.initialized = true

	l.logger.Info("PDFium initialized", zap.Int("user_font_paths", len(l.config.UserFontPaths)))
	return nil
}

// Destroy releases PDFium's global state. Open handles are not touched.
func (l *Library) Destroy() error {
	if l.IsClosed() {
		return ErrLibraryClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil
	}
	l.fn.destroyLibrary()
	l.initialized = false

	l.logger.Info("PDFium destroyed")
	return nil
}

// LastError returns the error code of the most recent failed native call.
func (l *Library) LastError() (ErrorCode, error) {
	if l.IsClosed() {
		return 0, ErrLibraryClosed
	}
	return ErrorCode(l.fn.getLastError()), nil
}

// OpenHandles returns the number of handles not yet closed.
func (l *Library) OpenHandles() int {
	return l.handles.count()
}

// Close releases every handle still open, newest first, destroys the
// library if it was initialised and unloads the shared object.
// Safe to call multiple times (idempotent).
func (l *Library) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.logger.Info("Closing PDFium library", zap.String("path", l.path))

		for _, h := range l.handles.live() {
			kind, ok := l.handles.kindOf(h)
			if !ok {
				continue
			}
			l.logger.Warn("Releasing handle left open",
				zap.Uint32("handle", uint32(h)),
				zap.Stringer("kind", kind),
			)
			if relErr := l.release(h, kind); relErr != nil {
				l.logger.Warn("Failed to release handle",
					zap.Uint32("handle", uint32(h)),
					zap.Error(relErr),
				)
			}
		}

		l.mu.Lock()
		if l.initialized {
			l.fn.destroyLibrary()
			l.initialized = false
		}
		l.mu.Unlock()

		if l.lib != nil {
			if closeErr := l.lib.close(); closeErr != nil {
				err = fmt.Errorf("failed to unload pdfium library: %w", closeErr)
			}
		}

		close(l.closed)
		l.logger.Info("PDFium library closed")
	})

	return err
}

// IsClosed returns whether the library has been closed.
func (l *Library) IsClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

// resolve maps a handle to its native reference.
func (l *Library) resolve(h Handle, kind Kind) (entry, error) {
	if l.IsClosed() {
		return entry{}, ErrLibraryClosed
	}
	return l.handles.resolve(h, kind)
}

func (l *Library) doc(h Handle) (uintptr, error) {
	e, err := l.resolve(h, KindDocument)
	return e.ref, err
}

func (l *Library) page(h Handle) (uintptr, error) {
	e, err := l.resolve(h, KindPage)
	return e.ref, err
}

func (l *Library) textPage(h Handle) (uintptr, error) {
	e, err := l.resolve(h, KindTextPage)
	return e.ref, err
}

// release removes h from the table and closes the native object. For a
// document the retained bytes are dropped only after the native close.
func (l *Library) release(h Handle, kind Kind) error {
	e, err := l.handles.remove(h, kind)
	if err != nil {
		return err
	}

	switch kind {
	case KindDocument:
		l.fn.closeDocument(e.ref)
		l.handles.releaseData(h)
	case KindPage:
		l.fn.closePage(e.ref)
	case KindTextPage:
		l.fn.textClosePage(e.ref)
	}

	l.logger.Debug("Handle released",
		zap.Uint32("handle", uint32(h)),
		zap.Stringer("kind", kind),
	)
	return nil
}

func (l *Library) track(kind Kind, ref uintptr, doc Handle) Handle {
	h := l.handles.allocate(kind, ref, doc)
	l.logger.Debug("Handle allocated",
		zap.Uint32("handle", uint32(h)),
		zap.Stringer("kind", kind),
	)
	return h
}

func validIndex(param string, i int) error {
	if i < 0 || i > maxInt32 {
		return &ValidationError{Param: param, Value: i, Message: "must be between 0 and 2^31-1"}
	}
	return nil
}

func validRotation(r int) error {
	if r < 0 || r > 3 {
		return &ValidationError{Param: "rotation", Value: r, Message: "must be 0, 1, 2 or 3 quarter turns"}
	}
	return nil
}

const maxInt32 = 1<<31 - 1

func cBool(v int32) bool {
	return v != 0
}
