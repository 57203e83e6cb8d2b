package dat

// ClientItem is one parsed item record from a DAT file.
type ClientItem struct {
	ClientID uint16

	Width, Height uint8

	Layers, PatternX, PatternY, PatternZ, Frames uint8

	Flags uint32

	GroundSpeed       uint16
	MaxReadWriteChars uint16
	MaxReadChars      uint16
	LightLevel        uint16
	LightColor        uint16
	MinimapColor      uint16

	// Market carries the optional Market flag payload (10.x only); nil when
	// the item has no Market entry.
	Market *MarketData

	SpriteIDs []uint32
}

// MarketData is the payload of the 10.x-only Market flag.
type MarketData struct {
	Category         uint16
	TradeAs          uint16
	ShowAs           uint16
	Name             string
	RestrictVocation uint16
	RestrictLevel    uint16
}

// NumSprites returns the product of the seven geometry dimensions, the
// count of sprite IDs that must follow the flag/geometry section.
func (c *ClientItem) NumSprites() int {
	return int(c.Width) * int(c.Height) * int(c.Layers) *
		int(c.PatternX) * int(c.PatternY) * int(c.PatternZ) * int(c.Frames)
}

// File is a fully parsed DAT file.
type File struct {
	Signature     uint32
	Band          Band
	ClientVersion string

	ItemCount    uint16
	OutfitCount  uint16
	EffectCount  uint16
	MissileCount uint16

	Items map[uint16]*ClientItem
}
