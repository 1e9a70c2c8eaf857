package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/woxQAQ/pdfbridge/internal/pdfium"
)

// Manifest represents the bundle manifest.yaml structure.
type Manifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// Platforms maps an os/arch key to a library file relative to the
	// bundle directory.
	Platforms    map[string]string `yaml:"platforms"`
	Capabilities []string          `yaml:"capabilities"`
	License      string            `yaml:"license"`

	// Internal fields
	dir string // Directory containing manifest
}

var knownPlatforms = map[string]bool{
	"linux/amd64":   true,
	"linux/arm64":   true,
	"linux/386":     true,
	"linux/arm":     true,
	"darwin/amd64":  true,
	"darwin/arm64":  true,
	"windows/amd64": true,
	"windows/arm64": true,
	"windows/386":   true,
	"freebsd/amd64": true,
}

// ParseManifest reads and parses manifest.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, "manifest.yaml")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "name",
			Message: "name is required",
		}
	}

	if m.Version == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "version",
			Message: "version is required",
		}
	}

	if len(m.Platforms) == 0 {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "platforms",
			Message: "at least one platform is required",
		}
	}

	// Sorted so the first reported problem is stable.
	platforms := make([]string, 0, len(m.Platforms))
	for p := range m.Platforms {
		platforms = append(platforms, p)
	}
	slices.Sort(platforms)

	for _, p := range platforms {
		if !knownPlatforms[p] {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "platforms",
				Message: fmt.Sprintf("unknown platform: %s (want os/arch, e.g. linux/amd64)", p),
			}
		}
		if m.Platforms[p] == "" {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "platforms." + p,
				Message: "library file is required",
			}
		}
	}

	for _, c := range m.Capabilities {
		if !slices.Contains(pdfium.KnownCapabilities, c) {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "capabilities",
				Message: fmt.Sprintf("unknown capability: %s (must be one of: %s)", c, strings.Join(pdfium.KnownCapabilities, ", ")),
			}
		}
	}

	for _, p := range platforms {
		if _, err := os.Stat(m.LibraryPath(p)); os.IsNotExist(err) {
			return &LibraryFileNotFoundError{
				ManifestPath: m.Path(),
				Platform:     p,
				File:         m.Platforms[p],
			}
		}
	}

	return nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, "manifest.yaml")
}

// LibraryPath returns the path to the library file for platform.
func (m *Manifest) LibraryPath(platform string) string {
	return filepath.Join(m.dir, filepath.FromSlash(m.Platforms[platform]))
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
