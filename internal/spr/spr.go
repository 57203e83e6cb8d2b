// Package spr implements the client sprite file: a signature-prefixed
// index of offsets into a run-length-compressed pixel store.
package spr

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

const (
	tileWidth  = 32
	tileHeight = 32
	tilePixels = tileWidth * tileHeight
)

// Kind mirrors the error taxonomy used throughout the codec layers.
type Kind int

const (
	KindInvalidSignature Kind = iota + 1
	KindUnexpectedEndOfFile
	KindInvalidSpriteData
)

type Error struct {
	Kind    Kind
	Context string
}

func (e *Error) Error() string { return e.Context }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Context: fmt.Sprintf(format, args...)}
}

// Sprite is one parsed entry from the offset table: its compressed pixel
// store plus the fields needed to decompress it on demand.
type Sprite struct {
	ID               uint32
	Size             uint32
	CompressedPixels []byte
	Transparent      bool
}

// File is a fully parsed SPR file: a signature, the band it was
// resolved against, and the sprite table keyed by sequential ID
// starting at 1.
type File struct {
	Signature     uint32
	ClientVersion string
	Sprites       map[uint32]*Sprite
}

// signatureVersion maps an SPR signature to its dotted client version.
// Transcribed from the PluginTwo (8.60-9.86) signature table. It holds no
// 10.x signatures, so SPR files from that band are rejected as
// unrecognized; see DESIGN.md for the provenance caveat shared with the
// DAT signature table.
var signatureVersion = map[uint32]string{
	0x4C220594: "8.60",
	0x4C63F145: "8.61",
	0x4CFD078A: "8.70",
	0x4D3D65D0: "8.71",
	0x4DAD1A32: "8.72",
	0x4E12DB27: "9.10",
	0x4E807C23: "9.20",
	0x4EE71E06: "9.40",
	0x4F0EEFEF: "9.44",
	0x4F1051D7: "9.44",
	0x4F3131F6: "9.44",
	0x4F5DCEF7: "9.46",
	0x4F75B7CD: "9.50",
	0x4F857F8E: "9.52",
	0x4FA11282: "9.53",
	0x4FD595B7: "9.54",
	0x4FFA74F9: "9.60",
	0x50226FBD: "9.61",
	0x503CB954: "9.63",
	0x5072A567: "9.70",
	0x50C70753: "9.80",
	0x50D1C685: "9.81",
	0x512CAD68: "9.82",
	0x51407BC7: "9.83",
	0x51641A84: "9.85",
	0x5170E96F: "9.86",
}

// LookupSignature resolves an SPR signature to its dotted client
// version. Signatures not present in the table are rejected.
func LookupSignature(sig uint32) (version string, ok bool) {
	v, found := signatureVersion[sig]
	return v, found
}

// Read parses a complete SPR file from path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spr %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a complete SPR file already held in memory.
func Parse(data []byte) (*File, error) {
	if len(data) < 4 {
		return nil, newErr(KindUnexpectedEndOfFile, "file too short for signature")
	}
	sig := binary.LittleEndian.Uint32(data[0:4])
	version, ok := LookupSignature(sig)
	if !ok {
		return nil, newErr(KindInvalidSignature, "unrecognized spr signature 0x%08X", sig)
	}

	pos := 4
	// 8.6x versions carry a 16-bit sprite count; every later client
	// version in the table, from 8.70 on, uses 32-bit.
	var spriteCount uint32
	if strings.HasPrefix(version, "8.6") {
		if pos+2 > len(data) {
			return nil, newErr(KindUnexpectedEndOfFile, "reading 16-bit sprite count")
		}
		spriteCount = uint32(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
	} else {
		if pos+4 > len(data) {
			return nil, newErr(KindUnexpectedEndOfFile, "reading 32-bit sprite count")
		}
		spriteCount = binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
	}

	offsets := make([]uint32, spriteCount)
	for i := range offsets {
		if pos+4 > len(data) {
			return nil, newErr(KindUnexpectedEndOfFile, "reading sprite offset %d/%d", i, spriteCount)
		}
		offsets[i] = binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
	}

	sizeWidth := 2
	if strings.HasPrefix(version, "10.") {
		sizeWidth = 4
	}

	f := &File{Signature: sig, ClientVersion: version, Sprites: make(map[uint32]*Sprite)}
	for i, off := range offsets {
		id := uint32(i + 1)
		if off == 0 {
			continue
		}
		start := int(off) + 3 // skip the legacy transparency color key
		if start+sizeWidth > len(data) {
			return nil, newErr(KindUnexpectedEndOfFile, "sprite %d: size field out of range at offset %d", id, start)
		}
		var size uint32
		if sizeWidth == 4 {
			size = binary.LittleEndian.Uint32(data[start : start+4])
			start += 4
		} else {
			size = uint32(binary.LittleEndian.Uint16(data[start : start+2]))
			start += 2
		}
		if size == 0 {
			continue
		}
		if start+int(size) > len(data) {
			return nil, newErr(KindUnexpectedEndOfFile, "sprite %d: compressed data out of range", id)
		}
		f.Sprites[id] = &Sprite{
			ID:               id,
			Size:             size,
			CompressedPixels: data[start : start+int(size)],
		}
	}

	return f, nil
}

// Decompress expands a sprite's RLE-compressed pixel store into a
// 32x32 RGB tile (row-major, 3 bytes per pixel). The legacy scheme
// alternates runs of fully-transparent pixels with runs of opaque
// pixels; each run pair is a (transparentCount:u16, opaqueCount:u16)
// header followed by opaqueCount*3 bytes of RGB color data.
func (s *Sprite) Decompress() ([]byte, error) {
	rgb := make([]byte, tilePixels*3)
	data := s.CompressedPixels
	pos := 0
	pixel := 0

	for pixel < tilePixels {
		if pos+4 > len(data) {
			// Trailing runs may be omitted once the tile is fully
			// transparent; anything short of that is malformed.
			if pos == len(data) {
				break
			}
			return nil, newErr(KindInvalidSpriteData, "sprite %d: truncated run header at byte %d", s.ID, pos)
		}
		transparentCount := binary.LittleEndian.Uint16(data[pos : pos+2])
		opaqueCount := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		pos += 4

		pixel += int(transparentCount)
		if pixel > tilePixels {
			return nil, newErr(KindInvalidSpriteData, "sprite %d: transparent run overruns tile", s.ID)
		}

		need := int(opaqueCount) * 3
		if pos+need > len(data) {
			return nil, newErr(KindInvalidSpriteData, "sprite %d: opaque run overruns compressed data", s.ID)
		}
		for i := 0; i < int(opaqueCount); i++ {
			if pixel >= tilePixels {
				return nil, newErr(KindInvalidSpriteData, "sprite %d: opaque run overruns tile", s.ID)
			}
			copy(rgb[pixel*3:pixel*3+3], data[pos:pos+3])
			pos += 3
			pixel++
		}
	}

	return rgb, nil
}
