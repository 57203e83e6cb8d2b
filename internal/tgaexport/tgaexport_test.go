package tgaexport

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRGBTileProducesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tile.tga")

	rgb := make([]byte, 32*32*3)
	for i := range rgb {
		rgb[i] = byte(i % 256)
	}

	require.NoError(t, WriteRGBTile(path, rgb, 32, 32))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestWriteRGBTileRejectsMismatchedLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.tga")
	err := WriteRGBTile(path, make([]byte, 10), 32, 32)
	require.Error(t, err)
}

func TestWriteImageAcceptsComposite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canvas.tga")

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xFF})
		}
	}

	require.NoError(t, WriteImage(path, img))
}
