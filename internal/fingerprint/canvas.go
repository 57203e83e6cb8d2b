package fingerprint

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// backgroundKey is the canvas fill value used before sprites are
// painted. Chosen to match the legacy background/transparency marker
// byte (0x11) used elsewhere in the item/minimap color tables.
const backgroundKey = 0x11

// TilePosition locates one sprite within a multi-tile item's canvas:
// Row/Col are the tile's height/width index, Layer its draw layer
// (higher layers paint over lower ones at the same position).
type TilePosition struct {
	Layer, Row, Col int
}

// Tile is one decompressed 32x32 RGB sprite plus its canvas position.
type Tile struct {
	Pos TilePosition
	RGB []byte
}

// Composite assembles a canvas of widthTiles*32 x heightTiles*32 pixels,
// filled with the background key, then paints each tile at its position
// in increasing layer order so later layers overlay earlier ones.
func Composite(tiles []Tile, widthTiles, heightTiles int) (*image.RGBA, error) {
	canvasW := widthTiles * tileSize
	canvasH := heightTiles * tileSize
	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	bg := color.RGBA{R: backgroundKey, G: backgroundKey, B: backgroundKey, A: 255}
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	ordered := make([]Tile, len(tiles))
	copy(ordered, tiles)
	sortTilesByLayer(ordered)

	for _, t := range ordered {
		if len(t.RGB) != tileSize*tileSize*3 {
			return nil, newErr(KindInvalidTile, "tile at row %d col %d layer %d: expected %d RGB bytes, got %d",
				t.Pos.Row, t.Pos.Col, t.Pos.Layer, tileSize*tileSize*3, len(t.RGB))
		}
		src := rgbToImage(t.RGB)
		dstRect := image.Rect(t.Pos.Col*tileSize, t.Pos.Row*tileSize, (t.Pos.Col+1)*tileSize, (t.Pos.Row+1)*tileSize)
		draw.Draw(canvas, dstRect, src, image.Point{}, draw.Over)
	}

	return canvas, nil
}

func sortTilesByLayer(tiles []Tile) {
	for i := 1; i < len(tiles); i++ {
		for j := i; j > 0 && tiles[j-1].Pos.Layer > tiles[j].Pos.Layer; j-- {
			tiles[j-1], tiles[j] = tiles[j], tiles[j-1]
		}
	}
}

// Planes converts a composited canvas into the per-pixel [3]float64
// (R,G,B) slice Signature expects, plus its width and height.
func Planes(canvas *image.RGBA) ([][3]float64, int, int) {
	bounds := canvas.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([][3]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := canvas.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			out[y*w+x] = [3]float64{float64(c.R), float64(c.G), float64(c.B)}
		}
	}
	return out, w, h
}

func rgbToImage(rgb []byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	for y := 0; y < tileSize; y++ {
		for x := 0; x < tileSize; x++ {
			off := (y*tileSize + x) * 3
			img.Set(x, y, color.RGBA{R: rgb[off], G: rgb[off+1], B: rgb[off+2], A: 255})
		}
	}
	return img
}
