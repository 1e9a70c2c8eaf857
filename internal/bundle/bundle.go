package bundle

import (
	"runtime"
	"slices"
	"time"
)

// Bundle is a PDFium build on disk described by a manifest.
type Bundle struct {
	// Manifest is the parsed bundle metadata
	Manifest *Manifest

	// LoadedAt is the timestamp when the bundle was discovered
	LoadedAt time.Time
}

// Name returns the bundle name.
func (b *Bundle) Name() string {
	return b.Manifest.Name
}

// Version returns the PDFium build the bundle ships.
func (b *Bundle) Version() string {
	return b.Manifest.Version
}

// Capabilities returns the optional features the bundled library provides.
func (b *Bundle) Capabilities() []string {
	return b.Manifest.Capabilities
}

// Platforms returns the os/arch keys the bundle has a library for.
func (b *Bundle) Platforms() []string {
	platforms := make([]string, 0, len(b.Manifest.Platforms))
	for p := range b.Manifest.Platforms {
		platforms = append(platforms, p)
	}
	slices.Sort(platforms)
	return platforms
}

// Supports reports whether the bundle has a library for platform.
func (b *Bundle) Supports(platform string) bool {
	_, ok := b.Manifest.Platforms[platform]
	return ok
}

// HasCapability reports whether the bundle declares capability.
func (b *Bundle) HasCapability(capability string) bool {
	return slices.Contains(b.Manifest.Capabilities, capability)
}

// LibraryPath returns the library file for platform.
func (b *Bundle) LibraryPath(platform string) (string, bool) {
	if !b.Supports(platform) {
		return "", false
	}
	return b.Manifest.LibraryPath(platform), true
}

// CurrentPlatform returns the os/arch key of the running binary.
func CurrentPlatform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
