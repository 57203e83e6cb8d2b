package dat

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func putU16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return append(buf, b...)
}

func putU32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return append(buf, b...)
}

// A signature in the 8.60-9.86 band dispatches to 16-bit sprite IDs and
// reports its dotted client version; a HasLight flag consumes its 4-byte
// payload correctly.
func TestDispatch860to986(t *testing.T) {
	var buf []byte
	buf = putU32(buf, 0x5170E904) // 9.86
	buf = putU16(buf, 100)        // item count
	buf = putU16(buf, 0)          // outfits
	buf = putU16(buf, 0)          // effects
	buf = putU16(buf, 0)          // missiles

	// item 100: HasLight (level=7, color=215), then LastFlag
	buf = append(buf, 0x15)
	buf = putU16(buf, 7)
	buf = putU16(buf, 215)
	buf = append(buf, lastFlag)
	buf = append(buf, 1, 1)          // width, height
	buf = append(buf, 1, 1, 1, 1, 1) // layers, patternX/Y/Z, frames
	buf = putU16(buf, 42)            // one sprite id, 16-bit

	f, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, Band860to986, f.Band)
	require.Equal(t, "9.86", f.ClientVersion)
	require.Equal(t, 2, f.Band.SpriteIDWidth())

	item := f.Items[100]
	require.NotNil(t, item)
	require.EqualValues(t, 7, item.LightLevel)
	require.EqualValues(t, 215, item.LightColor)
	require.Equal(t, []uint32{42}, item.SpriteIDs)
}

// A signature in the 10.00-10.77 band dispatches to 32-bit sprite IDs.
func TestDispatch1000Plus(t *testing.T) {
	var buf []byte
	buf = putU32(buf, 0x51E3F8C3) // 10.10
	buf = putU16(buf, 100)
	buf = putU16(buf, 0)
	buf = putU16(buf, 0)
	buf = putU16(buf, 0)

	buf = append(buf, lastFlag) // no flags for item 100
	buf = append(buf, 1, 1)
	buf = append(buf, 1, 1, 1, 1, 1)
	buf = putU32(buf, 99999) // one sprite id, 32-bit

	f, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, Band1000to1077, f.Band)
	require.Equal(t, "10.10", f.ClientVersion)
	require.Equal(t, 4, f.Band.SpriteIDWidth())

	item := f.Items[100]
	require.NotNil(t, item)
	require.Equal(t, []uint32{99999}, item.SpriteIDs)
}

// An unrecognized signature must be rejected rather than guessed at.
func TestUnknownSignatureRejected(t *testing.T) {
	var buf []byte
	buf = putU32(buf, 0xDEADBEEF)
	_, err := Parse(buf)
	require.Error(t, err)
	var datErr *Error
	require.ErrorAs(t, err, &datErr)
	require.Equal(t, KindInvalidSignature, datErr.Kind)
}

// Frame count above 1 must skip the animation descriptor of 6+8*frames
// bytes before the sprite ID list.
func TestAnimationDescriptorSkipped(t *testing.T) {
	var buf []byte
	buf = putU32(buf, 0x5170E904)
	buf = putU16(buf, 100)
	buf = putU16(buf, 0)
	buf = putU16(buf, 0)
	buf = putU16(buf, 0)

	buf = append(buf, lastFlag)
	buf = append(buf, 1, 1)
	buf = append(buf, 1, 1, 1, 1, 2) // frames = 2
	buf = append(buf, make([]byte, 6+8*2)...)
	buf = putU16(buf, 7) // two sprite ids (1*1*1*1*1*1*2 = 2 sprites)
	buf = putU16(buf, 8)

	f, err := Parse(buf)
	require.NoError(t, err)
	item := f.Items[100]
	require.Equal(t, []uint32{7, 8}, item.SpriteIDs)
}
