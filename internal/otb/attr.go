package otb

import (
	"bytes"
	"fmt"

	"github.com/ernie/otbcore/internal/bintree"
)

// Root and item attribute codes. Root and item attribute name spaces are
// disjoint: the same byte value means something different depending on
// whether it is read under the root node or an item node.
const (
	rootAttrVersion byte = 0x01

	itemAttrServerID          byte = 0x10
	itemAttrClientID          byte = 0x11
	itemAttrName              byte = 0x12
	itemAttrGroundSpeed       byte = 0x14
	itemAttrSpriteHash        byte = 0x20
	itemAttrMinimapColor      byte = 0x22
	itemAttrMaxReadWriteChars byte = 0x23
	itemAttrMaxReadChars      byte = 0x24
	itemAttrLight             byte = 0x2A
	itemAttrStackOrder        byte = 0x2B
	itemAttrTradeAs           byte = 0x2D
)

const (
	rootVersionAttrLen = 140
	rootDescriptionLen = 128
	maxItemNameBytes   = 1024
)

// attrLen reports the fixed length a known item attribute must carry, and
// whether the code is known at all. Name has no fixed length (bounded only
// by maxItemNameBytes), so it is handled separately by callers.
func attrLen(attr byte) (length int, known bool) {
	switch attr {
	case itemAttrServerID, itemAttrClientID, itemAttrGroundSpeed,
		itemAttrMinimapColor, itemAttrMaxReadWriteChars, itemAttrMaxReadChars,
		itemAttrTradeAs:
		return 2, true
	case itemAttrSpriteHash:
		return 16, true
	case itemAttrLight:
		return 4, true
	case itemAttrStackOrder:
		return 1, true
	case itemAttrName:
		return -1, true // variable length, bounded not fixed
	default:
		return 0, false
	}
}

// strictLenCheck enforces the table in attrLen for fixed-length attributes;
// strict mode rejects any mismatch, lenient mode returns nil (the caller
// already consumed exactly len bytes via the node substream, so skipping is
// always safe).
func strictLenCheck(attr byte, got int, strict bool) error {
	want, known := attrLen(attr)
	if !known || want < 0 {
		return nil
	}
	if got == want {
		return nil
	}
	if !strict {
		return nil
	}
	return newErr(KindAttributeValidationFailed, "attribute 0x%02X: expected %d bytes, got %d", attr, want, got)
}

// readRootAttributes consumes every attribute record in the root node's
// substream, populating v and description from the mandatory Version
// attribute. strict controls whether an unexpected length is fatal.
func readRootAttributes(r *bintree.Reader, strict bool) (VersionInfo, string, error) {
	var v VersionInfo
	var description string
	sawVersion := false

	for r.Remaining() > 0 && !r.HasNextNode() {
		attr, data, err := r.ReadProp()
		if err != nil {
			return v, "", wrapErr(KindUnexpectedEndOfFile, err, "reading root attribute")
		}

		switch attr {
		case rootAttrVersion:
			if len(data) != rootVersionAttrLen {
				if strict {
					return v, "", newErr(KindInvalidHeader, "version attribute: expected %d bytes, got %d", rootVersionAttrLen, len(data))
				}
				continue
			}
			v.Major = leUint32(data[0:4])
			v.Minor = leUint32(data[4:8])
			v.Build = leUint32(data[8:12])
			if v.Major > 3 {
				return v, "", newErr(KindInvalidVersion, "major %d exceeds 3", v.Major)
			}
			desc := data[12 : 12+rootDescriptionLen]
			if nul := bytes.IndexByte(desc, 0); nul >= 0 {
				description = string(desc[:nul])
			} else {
				description = string(desc)
			}
			sawVersion = true
		default:
			// Unknown root attribute: skip (already consumed by ReadProp).
		}
	}

	if !sawVersion {
		return v, "", newErr(KindInvalidHeader, "root node is missing the Version attribute")
	}
	return v, description, nil
}

// writeRootAttributes writes the single mandatory Version attribute.
func writeRootAttributes(w *bintree.Writer, v VersionInfo, description string) error {
	var buf bytes.Buffer
	buf.Write(leBytes32(v.Major))
	buf.Write(leBytes32(v.Minor))
	buf.Write(leBytes32(v.Build))

	descBytes := make([]byte, rootDescriptionLen)
	copy(descBytes, description)
	buf.Write(descBytes)

	if buf.Len() != rootVersionAttrLen {
		return fmt.Errorf("internal: built version attribute of %d bytes, want %d", buf.Len(), rootVersionAttrLen)
	}
	return w.WriteProp(rootAttrVersion, buf.Bytes())
}

// readItemAttributes consumes every attribute record in an item node's
// substream, filling in the typed fields it recognizes and carrying any
// unrecognized code through as an OpaqueAttr so it survives a read/write
// cycle unchanged.
func readItemAttributes(r *bintree.Reader, it *ServerItem, strict bool) error {
	for r.Remaining() > 0 && !r.HasNextNode() {
		attr, data, err := r.ReadProp()
		if err != nil {
			return wrapErr(KindUnexpectedEndOfFile, err, "reading item attribute for server id %d", it.ServerID)
		}
		if err := strictLenCheck(attr, len(data), strict); err != nil {
			return err
		}

		switch attr {
		case itemAttrServerID:
			if len(data) == 2 {
				it.ServerID = leUint16(data)
			}
		case itemAttrClientID:
			if len(data) == 2 {
				it.ClientID = leUint16(data)
			}
		case itemAttrName:
			if len(data) > maxItemNameBytes && strict {
				return newErr(KindAttributeValidationFailed, "item name exceeds %d bytes", maxItemNameBytes)
			}
			it.Name = string(data)
		case itemAttrGroundSpeed:
			if len(data) == 2 {
				it.GroundSpeed = leUint16(data)
			}
		case itemAttrSpriteHash:
			if len(data) == 16 {
				copy(it.SpriteHash[:], data)
			}
		case itemAttrMinimapColor:
			if len(data) == 2 {
				it.MinimapColor = leUint16(data)
			}
		case itemAttrMaxReadWriteChars:
			if len(data) == 2 {
				it.MaxReadWriteChars = leUint16(data)
			}
		case itemAttrMaxReadChars:
			if len(data) == 2 {
				it.MaxReadChars = leUint16(data)
			}
		case itemAttrLight:
			if len(data) == 4 {
				it.LightLevel = leUint16(data[0:2])
				it.LightColor = leUint16(data[2:4])
			}
		case itemAttrStackOrder:
			if len(data) == 1 {
				it.StackOrder = StackOrder(data[0])
				it.HasStackOrder = true
			}
		case itemAttrTradeAs:
			if len(data) == 2 {
				it.TradeAs = leUint16(data)
			}
		default:
			cp := make([]byte, len(data))
			copy(cp, data)
			it.Opaque = append(it.Opaque, OpaqueAttr{Attr: attr, Data: cp})
		}
	}
	return nil
}

// writeItemAttributes writes every non-default attribute of it, in a fixed
// canonical order, followed by its opaque attributes in their original
// order. Attributes left at their type's zero value are omitted, matching
// the writer's minimal-attribute-set behavior.
func writeItemAttributes(w *bintree.Writer, it *ServerItem) error {
	if it.ServerID != 0 {
		if err := w.WriteProp(itemAttrServerID, leBytes16(it.ServerID)); err != nil {
			return err
		}
	}
	if it.ClientID != 0 {
		if err := w.WriteProp(itemAttrClientID, leBytes16(it.ClientID)); err != nil {
			return err
		}
	}
	if it.Name != "" {
		if err := w.WriteProp(itemAttrName, []byte(it.Name)); err != nil {
			return err
		}
	}
	if it.GroundSpeed != 0 {
		if err := w.WriteProp(itemAttrGroundSpeed, leBytes16(it.GroundSpeed)); err != nil {
			return err
		}
	}
	if it.SpriteHash != ([16]byte{}) {
		if err := w.WriteProp(itemAttrSpriteHash, it.SpriteHash[:]); err != nil {
			return err
		}
	}
	if it.MinimapColor != 0 {
		if err := w.WriteProp(itemAttrMinimapColor, leBytes16(it.MinimapColor)); err != nil {
			return err
		}
	}
	if it.MaxReadWriteChars != 0 {
		if err := w.WriteProp(itemAttrMaxReadWriteChars, leBytes16(it.MaxReadWriteChars)); err != nil {
			return err
		}
	}
	if it.MaxReadChars != 0 {
		if err := w.WriteProp(itemAttrMaxReadChars, leBytes16(it.MaxReadChars)); err != nil {
			return err
		}
	}
	if it.LightLevel != 0 || it.LightColor != 0 {
		data := append(leBytes16(it.LightLevel), leBytes16(it.LightColor)...)
		if err := w.WriteProp(itemAttrLight, data); err != nil {
			return err
		}
	}
	if it.HasStackOrder {
		if err := w.WriteProp(itemAttrStackOrder, []byte{byte(it.StackOrder)}); err != nil {
			return err
		}
	}
	if it.TradeAs != 0 {
		if err := w.WriteProp(itemAttrTradeAs, leBytes16(it.TradeAs)); err != nil {
			return err
		}
	}
	for _, op := range it.Opaque {
		if err := w.WriteProp(op.Attr, op.Data); err != nil {
			return err
		}
	}
	return nil
}

func leUint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leBytes16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func leBytes32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
