package dat

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Error mirrors the taxonomy used throughout the codec layers: a Kind plus
// context, so callers can branch without parsing strings.
type Kind int

const (
	KindInvalidSignature Kind = iota + 1
	KindUnexpectedEndOfFile
	KindUnknownFlag
	KindInvalidItemData
)

type Error struct {
	Kind    Kind
	Context string
}

func (e *Error) Error() string { return e.Context }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Context: fmt.Sprintf(format, args...)}
}

// cursor is a small sequential little-endian reader over an in-memory
// buffer, the same "load fully, slice from there" approach used for the
// OTB node framer — these files are small enough that random-access lump
// parsing (the BSP/MD3 style) isn't needed, since DAT has no offset table.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) bytes(n int) ([]byte, error) {
	if c.pos+n > len(c.data) {
		return nil, newErr(KindUnexpectedEndOfFile, "need %d bytes, have %d", n, c.remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) cstring() (string, error) {
	start := c.pos
	for c.pos < len(c.data) && c.data[c.pos] != 0 {
		c.pos++
	}
	if c.pos >= len(c.data) {
		return "", newErr(KindUnexpectedEndOfFile, "unterminated string")
	}
	s := string(c.data[start:c.pos])
	c.pos++ // skip NUL
	return s, nil
}

func (c *cursor) skip(n int) error {
	if c.pos+n > len(c.data) {
		return newErr(KindUnexpectedEndOfFile, "cannot skip %d bytes, have %d", n, c.remaining())
	}
	c.pos += n
	return nil
}

// Read parses a complete DAT file from path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open dat %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a complete DAT file already held in memory.
func Parse(data []byte) (*File, error) {
	c := &cursor{data: data}

	sig, err := c.u32()
	if err != nil {
		return nil, newErr(KindInvalidSignature, "reading signature: %v", err)
	}
	band, version, ok := LookupSignature(sig)
	if !ok {
		return nil, newErr(KindInvalidSignature, "unrecognized dat signature 0x%08X", sig)
	}

	itemCount, err := c.u16()
	if err != nil {
		return nil, newErr(KindUnexpectedEndOfFile, "reading item count: %v", err)
	}
	outfitCount, err := c.u16()
	if err != nil {
		return nil, newErr(KindUnexpectedEndOfFile, "reading outfit count: %v", err)
	}
	effectCount, err := c.u16()
	if err != nil {
		return nil, newErr(KindUnexpectedEndOfFile, "reading effect count: %v", err)
	}
	missileCount, err := c.u16()
	if err != nil {
		return nil, newErr(KindUnexpectedEndOfFile, "reading missile count: %v", err)
	}

	f := &File{
		Signature:     sig,
		Band:          band,
		ClientVersion: version,
		ItemCount:     itemCount,
		OutfitCount:   outfitCount,
		EffectCount:   effectCount,
		MissileCount:  missileCount,
		Items:         make(map[uint16]*ClientItem),
	}

	// Items are numbered starting at 100; outfits/effects/missiles that
	// follow are out of scope for this codec and are not parsed.
	for id := uint16(100); id <= itemCount; id++ {
		item, err := parseItem(c, band, id)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", id, err)
		}
		f.Items[id] = item
	}

	return f, nil
}

func parseItem(c *cursor, band Band, id uint16) (*ClientItem, error) {
	item := &ClientItem{ClientID: id}

	if band.isPost10x() {
		if err := parseFlags1000Plus(c, item, id); err != nil {
			return nil, err
		}
	} else {
		if err := parseFlags860to986(c, item); err != nil {
			return nil, err
		}
	}

	width, err := c.u8()
	if err != nil {
		return nil, newErr(KindUnexpectedEndOfFile, "reading width: %v", err)
	}
	height, err := c.u8()
	if err != nil {
		return nil, newErr(KindUnexpectedEndOfFile, "reading height: %v", err)
	}
	item.Width, item.Height = width, height

	if width > 1 || height > 1 {
		if _, err := c.u8(); err != nil { // band-specific skip byte, value unused
			return nil, newErr(KindUnexpectedEndOfFile, "reading size-skip byte: %v", err)
		}
	}

	layers, err := c.u8()
	if err != nil {
		return nil, err
	}
	patternX, err := c.u8()
	if err != nil {
		return nil, err
	}
	patternY, err := c.u8()
	if err != nil {
		return nil, err
	}
	patternZ, err := c.u8()
	if err != nil {
		return nil, err
	}
	frames, err := c.u8()
	if err != nil {
		return nil, err
	}
	item.Layers, item.PatternX, item.PatternY, item.PatternZ, item.Frames = layers, patternX, patternY, patternZ, frames

	numSprites := item.NumSprites()

	if frames > 1 {
		if err := c.skip(6 + 8*int(frames)); err != nil {
			return nil, newErr(KindUnexpectedEndOfFile, "skipping animation descriptor: %v", err)
		}
	}

	width4 := band.SpriteIDWidth()
	item.SpriteIDs = make([]uint32, numSprites)
	for i := 0; i < numSprites; i++ {
		if width4 == 4 {
			v, err := c.u32()
			if err != nil {
				return nil, newErr(KindUnexpectedEndOfFile, "reading sprite id %d/%d: %v", i, numSprites, err)
			}
			item.SpriteIDs[i] = v
		} else {
			v, err := c.u16()
			if err != nil {
				return nil, newErr(KindUnexpectedEndOfFile, "reading sprite id %d/%d: %v", i, numSprites, err)
			}
			item.SpriteIDs[i] = uint32(v)
		}
	}

	return item, nil
}

// parseFlags860to986 runs the flag automaton for the 8.60-9.86 dialect:
// byte 0x08 is Writable, 0x09 is WritableOnce, with no HasCharges slot and
// no Cloth/Market flags.
func parseFlags860to986(c *cursor, item *ClientItem) error {
	for {
		f, err := c.u8()
		if err != nil {
			return newErr(KindUnexpectedEndOfFile, "reading flag byte: %v", err)
		}
		switch f {
		case 0x00: // Ground
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.GroundSpeed = v
			item.Flags |= 1 << 0
		case 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07:
			item.Flags |= 1 << uint(f)
		case 0x08: // Writable
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.MaxReadWriteChars = v
			item.Flags |= 1 << 9
		case 0x09: // WritableOnce
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.MaxReadChars = v
			item.Flags |= 1 << 10
		case 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12, 0x13, 0x14:
			item.Flags |= 1 << uint(f+1)
		case 0x15: // HasLight
			level, err := c.u16()
			if err != nil {
				return err
			}
			color, err := c.u16()
			if err != nil {
				return err
			}
			item.LightLevel, item.LightColor = level, color
			item.Flags |= 1 << 22
		case 0x16, 0x17:
			item.Flags |= 1 << uint(f+7)
		case 0x18: // HasOffset
			if err := c.skip(4); err != nil {
				return err
			}
		case 0x19: // HasElevation
			if err := c.skip(2); err != nil {
				return err
			}
		case 0x1A, 0x1B:
			item.Flags |= 1 << uint(f+8)
		case 0x1C: // Minimap
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.MinimapColor = v
			item.Flags |= 1 << 29
		case 0x1D: // LensHelp
			if _, err := c.u16(); err != nil {
				return err
			}
		case 0x1E, 0x1F:
			item.Flags |= 1 << uint(f+13)
		case lastFlag:
			return nil
		default:
			return newErr(KindUnknownFlag, "unknown flag byte 0x%02X in 8.60-9.86 dialect", f)
		}
		if f == lastFlag {
			return nil
		}
	}
}

// parseFlags1000Plus runs the flag automaton for the 10.00-10.77 dialect:
// byte 0x08 is HasCharges (no payload), every later code shifts up one
// slot relative to the 8.x table, and Cloth (0x20) / Market (0x21) are
// recognized.
func parseFlags1000Plus(c *cursor, item *ClientItem, id uint16) error {
	for {
		f, err := c.u8()
		if err != nil {
			return newErr(KindUnexpectedEndOfFile, "reading flag byte: %v", err)
		}
		switch f {
		case 0x00: // Ground
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.GroundSpeed = v
			item.Flags |= 1 << 0
		case 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07:
			item.Flags |= 1 << uint(f)
		case 0x08: // HasCharges
			item.Flags |= 1 << 8
		case 0x09: // Writable
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.MaxReadWriteChars = v
			item.Flags |= 1 << 9
		case 0x0A: // WritableOnce
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.MaxReadChars = v
			item.Flags |= 1 << 10
		case 0x0B, 0x0C, 0x0D, 0x0E:
			item.Flags |= 1 << uint(f)
		case 0x0F: // BlockMissiles/BlockPathfinder share this byte
			item.Flags |= 1 << 15
		case 0x10: // Pickupable
			item.Flags |= 1 << 17
		case 0x11: // Hangable
			item.Flags |= 1 << 18
		case 0x12, 0x13, 0x14:
			item.Flags |= 1 << uint(f+6)
		case 0x15: // HasLight
			level, err := c.u16()
			if err != nil {
				return err
			}
			color, err := c.u16()
			if err != nil {
				return err
			}
			item.LightLevel, item.LightColor = level, color
			item.Flags |= 1 << 22
		case 0x16, 0x17:
			item.Flags |= 1 << uint(f+7)
		case 0x18: // HasOffset
			if err := c.skip(4); err != nil {
				return err
			}
			item.Flags |= 1 << 25
		case 0x19: // HasElevation
			if err := c.skip(2); err != nil {
				return err
			}
			item.Flags |= 1 << 26
		case 0x1A, 0x1B:
			item.Flags |= 1 << uint(f+8)
		case 0x1C: // Minimap
			v, err := c.u16()
			if err != nil {
				return err
			}
			item.MinimapColor = v
			item.Flags |= 1 << 29
		case 0x1D: // LensHelp
			opt, err := c.u16()
			if err != nil {
				return err
			}
			item.Flags |= 1 << 30
			if opt == 1112 {
				item.Flags |= 1 << 9
			}
		case 0x1E:
			item.Flags |= 1 << 31
		case 0x1F: // IgnoreLook
			// Requires a 64-bit flag field to represent faithfully; the
			// presence of the flag byte itself is still consumed correctly.
		case 0x20: // Cloth
			if _, err := c.u16(); err != nil {
				return err
			}
		case 0x21: // Market
			md, err := parseMarket(c)
			if err != nil {
				return err
			}
			item.Market = md
		case lastFlag:
			return nil
		default:
			return newErr(KindUnknownFlag, "item %d: unknown flag byte 0x%02X in 10.00-10.77 dialect", id, f)
		}
		if f == lastFlag {
			return nil
		}
	}
}

func parseMarket(c *cursor) (*MarketData, error) {
	category, err := c.u16()
	if err != nil {
		return nil, err
	}
	tradeAs, err := c.u16()
	if err != nil {
		return nil, err
	}
	showAs, err := c.u16()
	if err != nil {
		return nil, err
	}
	name, err := c.cstring()
	if err != nil {
		return nil, err
	}
	vocation, err := c.u16()
	if err != nil {
		return nil, err
	}
	level, err := c.u16()
	if err != nil {
		return nil, err
	}
	return &MarketData{
		Category: category, TradeAs: tradeAs, ShowAs: showAs,
		Name: name, RestrictVocation: vocation, RestrictLevel: level,
	}, nil
}
