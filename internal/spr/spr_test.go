package spr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// 8.60 carries a 16-bit sprite count and a 16-bit per-sprite size field.
func TestParse860SixteenBitCount(t *testing.T) {
	var buf []byte
	buf = append(buf, u32le(0x4C220594)...) // 8.60
	buf = append(buf, u16le(1)...)          // sprite count
	offsetPos := len(buf)
	buf = append(buf, u32le(0)...) // offset placeholder, patched below

	spriteStart := len(buf)
	buf = append(buf, 0, 0, 0)        // 3-byte transparency color key
	buf = append(buf, u16le(4)...)    // size = 4 bytes
	buf = append(buf, u16le(1024)...) // fully transparent run
	buf = append(buf, u16le(0)...)    // no opaque pixels

	binary.LittleEndian.PutUint32(buf[offsetPos:offsetPos+4], uint32(spriteStart))

	f, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, "8.60", f.ClientVersion)
	require.Len(t, f.Sprites, 1)

	sp := f.Sprites[1]
	require.NotNil(t, sp)
	rgb, err := sp.Decompress()
	require.NoError(t, err)
	require.Len(t, rgb, tilePixels*3)
	for _, b := range rgb {
		require.Equal(t, byte(0), b)
	}
}

// 9.86 (the last of the 8.x-dialect signatures) carries a 32-bit sprite
// count and a 16-bit per-sprite size field.
func TestParse986ThirtyTwoBitCount(t *testing.T) {
	var buf []byte
	buf = append(buf, u32le(0x5170E96F)...) // 9.86
	buf = append(buf, u32le(1)...)
	offsetPos := len(buf)
	buf = append(buf, u32le(0)...)

	spriteStart := len(buf)
	buf = append(buf, 0, 0, 0)
	buf = append(buf, u16le(7)...) // size = 7 bytes (9.86 is pre-10.00, 16-bit size field)
	buf = append(buf, u16le(0)...) // no transparent pixels
	buf = append(buf, u16le(1)...) // one opaque pixel
	buf = append(buf, []byte{10, 20, 30}...)

	binary.LittleEndian.PutUint32(buf[offsetPos:offsetPos+4], uint32(spriteStart))

	f, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, "9.86", f.ClientVersion)

	sp := f.Sprites[1]
	require.NotNil(t, sp)
	rgb, err := sp.Decompress()
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20, 30}, rgb[0:3])
	for _, b := range rgb[3:] {
		require.Equal(t, byte(0), b)
	}
}

// An unrecognized signature must be rejected.
func TestUnknownSignatureRejected(t *testing.T) {
	buf := u32le(0xCAFEBABE)
	_, err := Parse(buf)
	require.Error(t, err)
	var sprErr *Error
	require.ErrorAs(t, err, &sprErr)
	require.Equal(t, KindInvalidSignature, sprErr.Kind)
}

// A sprite offset of zero marks an absent sprite and must be skipped
// rather than parsed as data at file offset 3.
func TestZeroOffsetSkipped(t *testing.T) {
	var buf []byte
	buf = append(buf, u32le(0x4C220594)...)
	buf = append(buf, u16le(1)...)
	buf = append(buf, u32le(0)...) // offset 0: no sprite

	f, err := Parse(buf)
	require.NoError(t, err)
	require.Empty(t, f.Sprites)
}

// Decompressing a mixed run sequence must place opaque pixels at the
// correct tile position and leave transparent pixels zeroed.
func TestDecompressMixedRuns(t *testing.T) {
	sp := &Sprite{ID: 1}
	var pixels []byte
	pixels = append(pixels, u16le(2)...) // 2 transparent pixels
	pixels = append(pixels, u16le(2)...) // 2 opaque pixels
	pixels = append(pixels, []byte{1, 2, 3, 4, 5, 6}...)
	pixels = append(pixels, u16le(uint16(tilePixels-4))...) // remaining transparent
	pixels = append(pixels, u16le(0)...)
	sp.CompressedPixels = pixels

	rgb, err := sp.Decompress()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0}, rgb[0:3])
	require.Equal(t, []byte{0, 0, 0}, rgb[3:6])
	require.Equal(t, []byte{1, 2, 3}, rgb[6:9])
	require.Equal(t, []byte{4, 5, 6}, rgb[9:12])
	for _, b := range rgb[12:] {
		require.Equal(t, byte(0), b)
	}
}
