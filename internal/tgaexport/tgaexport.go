// Package tgaexport dumps a decoded sprite tile (or a composited
// canvas) to a TGA file for visual inspection while debugging sprite
// fingerprinting or format-dispatch issues. It is not part of the core
// read/write/validate path.
package tgaexport

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/ftrvxmtrx/tga"
)

// WriteRGBTile encodes a single decoded 32x32 RGB sprite tile (the
// shape internal/spr.Sprite.Decompress produces) to a TGA file at path.
func WriteRGBTile(path string, rgb []byte, width, height int) error {
	if len(rgb) != width*height*3 {
		return fmt.Errorf("tgaexport: tile data length %d does not match %dx%d RGB", len(rgb), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: rgb[i], G: rgb[i+1], B: rgb[i+2], A: 0xFF})
		}
	}
	return WriteImage(path, img)
}

// WriteImage encodes an already-composited image.Image (e.g. the output
// of internal/fingerprint.Composite) to a TGA file at path.
func WriteImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tgaexport: create %s: %w", path, err)
	}
	defer f.Close()

	if err := tga.Encode(f, img); err != nil {
		return fmt.Errorf("tgaexport: encode %s: %w", path, err)
	}
	return nil
}
