package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func solidTile(r, g, b byte) []byte {
	tile := make([]byte, tileSize*tileSize*3)
	for i := 0; i < tileSize*tileSize; i++ {
		tile[i*3] = r
		tile[i*3+1] = g
		tile[i*3+2] = b
	}
	return tile
}

// Re-running the content hash on the same sprite set yields the same
// 16-byte digest.
func TestContentHashStable(t *testing.T) {
	tiles := [][]byte{solidTile(10, 20, 30), solidTile(40, 50, 60)}
	h1, err := ContentHash(tiles)
	require.NoError(t, err)
	h2, err := ContentHash(tiles)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

// Canonicalization reorders channels (R,G,B) -> (B,G,R,0); a single
// solid-color tile's first output byte must be the input blue channel.
func TestCanonicalizeChannelOrder(t *testing.T) {
	tile := solidTile(1, 2, 3)
	rgba := canonicalizeRGBA(tile)
	require.Equal(t, byte(3), rgba[0]) // B
	require.Equal(t, byte(2), rgba[1]) // G
	require.Equal(t, byte(1), rgba[2]) // R
	require.Equal(t, byte(0), rgba[3]) // A always 0
}

// A mis-sized tile must be rejected rather than silently hashed.
func TestContentHashRejectsBadTileSize(t *testing.T) {
	_, err := ContentHash([][]byte{{1, 2, 3}})
	require.Error(t, err)
}

// A single-tile canvas composites to exactly 32x32; a multi-tile
// (2x2) item composites to 64x64 with each tile at its row/col.
func TestCompositeCanvasSize(t *testing.T) {
	single, err := Composite([]Tile{{Pos: TilePosition{0, 0, 0}, RGB: solidTile(5, 5, 5)}}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 32, single.Bounds().Dx())
	require.Equal(t, 32, single.Bounds().Dy())

	multi, err := Composite([]Tile{
		{Pos: TilePosition{Layer: 0, Row: 0, Col: 0}, RGB: solidTile(1, 0, 0)},
		{Pos: TilePosition{Layer: 0, Row: 0, Col: 1}, RGB: solidTile(0, 1, 0)},
		{Pos: TilePosition{Layer: 0, Row: 1, Col: 0}, RGB: solidTile(0, 0, 1)},
		{Pos: TilePosition{Layer: 0, Row: 1, Col: 1}, RGB: solidTile(1, 1, 1)},
	}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 64, multi.Bounds().Dx())
	require.Equal(t, 64, multi.Bounds().Dy())
	require.Equal(t, uint8(1), multi.RGBAAt(0, 0).R)
	require.Equal(t, uint8(1), multi.RGBAAt(33, 0).G)
}

// Two identical all-zero canvases must produce a zero distance; giving
// one a channel of all-0xFF must strictly increase it.
func TestSignatureDistance(t *testing.T) {
	zero := make([][3]float64, 32*32)
	sigA, err := Signature(zero, 32, 32, Options{BlockSize: 4})
	require.NoError(t, err)
	sigB, err := Signature(zero, 32, 32, Options{BlockSize: 4})
	require.NoError(t, err)

	d, err := Distance(sigA, sigB)
	require.NoError(t, err)
	require.Equal(t, 0.0, d)

	bright := make([][3]float64, 32*32)
	for i := range bright {
		bright[i] = [3]float64{255, 0, 0}
	}
	sigC, err := Signature(bright, 32, 32, Options{BlockSize: 4})
	require.NoError(t, err)

	d2, err := Distance(sigA, sigC)
	require.NoError(t, err)
	require.Greater(t, d2, 0.0)
}

// The approximation path (block variance) must produce a signature of
// the same shape as the FFT path, so the two are interchangeable at
// the wire-format level.
func TestApproximationSameShape(t *testing.T) {
	canvas := make([][3]float64, 32*32)
	for i := range canvas {
		canvas[i] = [3]float64{float64(i % 7), float64(i % 11), float64(i % 13)}
	}

	fft, err := Signature(canvas, 32, 32, Options{BlockSize: 4})
	require.NoError(t, err)
	approx, err := Signature(canvas, 32, 32, Options{BlockSize: 4, Approximation: true})
	require.NoError(t, err)
	require.Equal(t, len(fft), len(approx))
}

// A signature vector's per-channel values must sum to 1 after
// normalization (unless the channel is entirely zero).
func TestSignatureNormalized(t *testing.T) {
	canvas := make([][3]float64, 32*32)
	for i := range canvas {
		canvas[i] = [3]float64{float64(i % 5), 0, float64(i % 3)}
	}
	sig, err := Signature(canvas, 32, 32, Options{BlockSize: 4})
	require.NoError(t, err)

	channels, blocks, vectors, err := decodeSignature(sig)
	require.NoError(t, err)
	require.EqualValues(t, 3, channels)
	require.EqualValues(t, 64, blocks) // 32/4 * 32/4

	sum := 0.0
	for _, v := range vectors[0] {
		sum += v
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}
