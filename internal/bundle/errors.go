package bundle

import (
	"errors"
	"fmt"
)

// ErrManagerStopped is returned by Do when the manager is not running.
var ErrManagerStopped = errors.New("pdfium manager is not running")

// ManifestNotFoundError occurs when manifest.yaml is not found in a directory.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found at '%s': %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError occurs when manifest.yaml cannot be parsed as valid YAML.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest at '%s': %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError occurs when manifest.yaml fails validation.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("manifest validation failed at '%s': %s (field: %s)",
			e.Path, e.Message, e.Field)
	}
	return fmt.Sprintf("manifest validation failed at '%s': %s", e.Path, e.Message)
}

// LibraryFileNotFoundError occurs when a library referenced in the manifest
// doesn't exist.
type LibraryFileNotFoundError struct {
	ManifestPath string
	Platform     string
	File         string
}

func (e *LibraryFileNotFoundError) Error() string {
	return fmt.Sprintf("library file '%s' for %s not found (referenced in manifest '%s')",
		e.File, e.Platform, e.ManifestPath)
}

// BundleNotFoundError occurs when a bundle is not found in the registry.
type BundleNotFoundError struct {
	BundleName string
}

func (e *BundleNotFoundError) Error() string {
	return fmt.Sprintf("bundle '%s' not found", e.BundleName)
}

// BundleAlreadyRegisteredError occurs when attempting to register a duplicate bundle.
type BundleAlreadyRegisteredError struct {
	BundleName string
}

func (e *BundleAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("bundle '%s' is already registered", e.BundleName)
}

// NoBundlesFoundError occurs when no bundles are found in the configured paths.
type NoBundlesFoundError struct {
	Paths []string
}

func (e *NoBundlesFoundError) Error() string {
	return fmt.Sprintf("no bundles found in paths: %v", e.Paths)
}

// NoLibraryError occurs when no PDFium library could be located for the
// running platform.
type NoLibraryError struct {
	Platform string
	Tried    []string
}

func (e *NoLibraryError) Error() string {
	return fmt.Sprintf("no pdfium library found for %s (tried: %v)", e.Platform, e.Tried)
}

// MissingCapabilityError occurs when the loaded library lacks a feature the
// configuration requires.
type MissingCapabilityError struct {
	Path       string
	Capability string
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("pdfium library '%s' does not provide required capability '%s'",
		e.Path, e.Capability)
}
