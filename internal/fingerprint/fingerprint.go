// Package fingerprint computes the two sprite fingerprints linking a
// server item to its client sprite set: an exact-equality content hash
// (MD5 over canonicalized pixel bytes) and an approximate-similarity
// perceptual signature (2D frequency-domain magnitude blocks).
package fingerprint

import (
	"crypto/md5"
	"fmt"
)

const (
	tileSize = 32
)

// Kind mirrors the error taxonomy used throughout the codec layers.
type Kind int

const (
	KindInvalidTile Kind = iota + 1
	KindShapeMismatch
)

type Error struct {
	Kind    Kind
	Context string
}

func (e *Error) Error() string { return e.Context }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Context: fmt.Sprintf(format, args...)}
}

// ContentHash computes the item's sprite_hash: MD5 over the
// canonicalized RGBA bytes of every sprite in the set, in the order
// given by the caller (layer, then height index, then width index, per
// the client item's tile layout).
//
// Each sprite must already be decompressed to a 32x32 RGB tile (see
// spr.Sprite.Decompress). Canonicalization applies a y-axis flip and
// reorders channels (R,G,B) -> (B,G,R,0), the legacy byte order used by
// the original client.
func ContentHash(rgbTiles [][]byte) ([16]byte, error) {
	h := md5.New()
	for i, tile := range rgbTiles {
		if len(tile) != tileSize*tileSize*3 {
			return [16]byte{}, newErr(KindInvalidTile, "sprite %d: expected %d RGB bytes, got %d", i, tileSize*tileSize*3, len(tile))
		}
		rgba := canonicalizeRGBA(tile)
		h.Write(rgba)
	}
	var digest [16]byte
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// canonicalizeRGBA converts a 32x32 RGB tile to RGBA bytes with a
// y-axis flip and (R,G,B) -> (B,G,R,0) channel reordering.
func canonicalizeRGBA(rgb []byte) []byte {
	out := make([]byte, tileSize*tileSize*4)
	for y := 0; y < tileSize; y++ {
		srcY := tileSize - 1 - y
		for x := 0; x < tileSize; x++ {
			srcOff := (srcY*tileSize + x) * 3
			dstOff := (y*tileSize + x) * 4
			r, g, b := rgb[srcOff], rgb[srcOff+1], rgb[srcOff+2]
			out[dstOff+0] = b
			out[dstOff+1] = g
			out[dstOff+2] = r
			out[dstOff+3] = 0
		}
	}
	return out
}
