// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WritePNG writes a w×h PNG filled with c to path, creating parent directories.
func WritePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// CatalogDir creates a catalog tree under a temp dir. files maps a layer
// directory to the file names it contains. Every file is a 4×4 opaque PNG.
// It returns the root path.
func CatalogDir(t *testing.T, files map[string][]string) string {
	t.Helper()

	root := t.TempDir()
	for layer, names := range files {
		require.NoError(t, os.MkdirAll(filepath.Join(root, layer), 0755))
		for i, name := range names {
			c := color.RGBA{R: uint8(40 * (i + 1)), G: uint8(len(layer) * 10), B: 200, A: 255}
			WritePNG(t, filepath.Join(root, layer, name), 4, 4, c)
		}
	}
	return root
}

// Uint32 returns a pointer to v for optional config fields.
func Uint32(v uint32) *uint32 { return &v }

// Int returns a pointer to v for optional config fields.
func Int(v int) *int { return &v }
