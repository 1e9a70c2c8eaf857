package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Loader handles reading bundles from disk.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new bundle loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{
		logger: logger.With(zap.String("component", "bundle-loader")),
	}
}

// LoadBundle loads a single bundle from a directory.
func (l *Loader) LoadBundle(dir string) (*Bundle, error) {
	l.logger.Debug("Loading bundle", zap.String("dir", dir))

	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Manifest: manifest,
		LoadedAt: time.Now(),
	}

	l.logger.Info("Bundle discovered",
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
		zap.Strings("platforms", b.Platforms()),
	)

	return b, nil
}

// DiscoverBundles scans directories for bundles. Each immediate
// subdirectory holding a valid manifest is one bundle; broken ones are
// logged and skipped.
func (l *Loader) DiscoverBundles(ctx context.Context, paths []string) ([]*Bundle, error) {
	var bundles []*Bundle
	var errs []error

	for _, basePath := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.logger.Debug("Scanning bundle directory", zap.String("path", basePath))

		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Bundle path does not exist", zap.String("path", basePath))
				continue
			}
			return nil, fmt.Errorf("failed to read directory '%s': %w", basePath, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			bundleDir := filepath.Join(basePath, entry.Name())

			b, err := l.LoadBundle(bundleDir)
			if err != nil {
				l.logger.Error("Failed to load bundle",
					zap.String("dir", bundleDir),
					zap.Error(err),
				)
				errs = append(errs, err)
				continue
			}

			bundles = append(bundles, b)
		}
	}

	if len(bundles) > 0 && len(errs) > 0 {
		l.logger.Warn("Some bundles failed to load",
			zap.Int("loaded", len(bundles)),
			zap.Int("failed", len(errs)),
		)
	}

	if len(bundles) == 0 {
		return nil, &NoBundlesFoundError{Paths: paths}
	}

	return bundles, nil
}
