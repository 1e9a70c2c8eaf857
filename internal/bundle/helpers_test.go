package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validManifest = `
name: pdfium-test
version: "6721"
platforms:
  linux/amd64: lib/libpdfium.so
  darwin/arm64: lib/libpdfium.dylib
  windows/amd64: bin/pdfium.dll
capabilities: [text_render_mode]
license: BSD-3-Clause
`

// writeBundle creates root/name with the given manifest and empty files.
func writeBundle(t *testing.T, root, name, manifest string, files ...string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0o644))
	}
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
	return dir
}

func writeValidBundle(t *testing.T, root, name string) string {
	t.Helper()
	return writeBundle(t, root, name, validManifest,
		"lib/libpdfium.so", "lib/libpdfium.dylib", "bin/pdfium.dll")
}
