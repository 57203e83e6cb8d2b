// Package otb implements the server item database codec: the typed
// attribute records layered over internal/bintree's node framing (C2), and
// the reader/writer protocol that turns that tree into a ServerItemList and
// back (C3).
package otb

import "time"

// ServerItemType classifies an item's role in the world, carried as the
// node type byte of its item node.
type ServerItemType uint8

const (
	TypeNone ServerItemType = iota
	TypeGround
	TypeContainer
	TypeSplash
	TypeFluid
	TypeDeprecated
)

func (t ServerItemType) Valid() bool { return t <= TypeDeprecated }

// StackOrder controls draw/stacking order on a tile.
type StackOrder uint8

const (
	StackOrderNone StackOrder = iota
	StackOrderBorder
	StackOrderBottom
	StackOrderTop
)

// Flag is a named gameplay bit in the 32-bit item flag word. The mapping
// MUST be identical on read and write.
type Flag uint32

const (
	FlagUnpassable Flag = 1 << iota
	FlagBlockMissiles
	FlagBlockPathfinder
	FlagHasElevation
	FlagForceUse
	FlagMultiUse
	FlagPickupable
	FlagMovable
	FlagStackable
	FlagReadable
	FlagRotatable
	FlagHangable
	FlagHookSouth
	FlagHookEast
	FlagAllowDistanceRead
	FlagIgnoreLook
	FlagFullGround
	FlagIsAnimation
)

// Booleans is the individually named projection of the flag bitfield.
// ServerItem carries both this and the raw bitfield; the booleans are the
// source of truth on write, the bitfield is derived from them.
type Booleans struct {
	Unpassable        bool
	BlockMissiles     bool
	BlockPathfinder   bool
	HasElevation      bool
	ForceUse          bool
	MultiUse          bool
	Pickupable        bool
	Movable           bool
	Stackable         bool
	Readable          bool
	Rotatable         bool
	Hangable          bool
	HookSouth         bool
	HookEast          bool
	AllowDistanceRead bool
	IgnoreLook        bool
	FullGround        bool
	IsAnimation       bool
}

// FlagsFromBooleans derives the 32-bit bitfield from the named booleans.
// This is the authoritative write direction.
func FlagsFromBooleans(b Booleans) uint32 {
	var f Flag
	set := func(cond bool, bit Flag) {
		if cond {
			f |= bit
		}
	}
	set(b.Unpassable, FlagUnpassable)
	set(b.BlockMissiles, FlagBlockMissiles)
	set(b.BlockPathfinder, FlagBlockPathfinder)
	set(b.HasElevation, FlagHasElevation)
	set(b.ForceUse, FlagForceUse)
	set(b.MultiUse, FlagMultiUse)
	set(b.Pickupable, FlagPickupable)
	set(b.Movable, FlagMovable)
	set(b.Stackable, FlagStackable)
	set(b.Readable, FlagReadable)
	set(b.Rotatable, FlagRotatable)
	set(b.Hangable, FlagHangable)
	set(b.HookSouth, FlagHookSouth)
	set(b.HookEast, FlagHookEast)
	set(b.AllowDistanceRead, FlagAllowDistanceRead)
	set(b.IgnoreLook, FlagIgnoreLook)
	set(b.FullGround, FlagFullGround)
	set(b.IsAnimation, FlagIsAnimation)
	return uint32(f)
}

// BooleansFromFlags derives the named booleans from the 32-bit bitfield.
// This is the read direction; SyncBooleansFromFlags uses it to keep the two
// representations consistent immediately after a node's flags word is read.
func BooleansFromFlags(flags uint32) Booleans {
	f := Flag(flags)
	has := func(bit Flag) bool { return f&bit != 0 }
	return Booleans{
		Unpassable:        has(FlagUnpassable),
		BlockMissiles:     has(FlagBlockMissiles),
		BlockPathfinder:   has(FlagBlockPathfinder),
		HasElevation:      has(FlagHasElevation),
		ForceUse:          has(FlagForceUse),
		MultiUse:          has(FlagMultiUse),
		Pickupable:        has(FlagPickupable),
		Movable:           has(FlagMovable),
		Stackable:         has(FlagStackable),
		Readable:          has(FlagReadable),
		Rotatable:         has(FlagRotatable),
		Hangable:          has(FlagHangable),
		HookSouth:         has(FlagHookSouth),
		HookEast:          has(FlagHookEast),
		AllowDistanceRead: has(FlagAllowDistanceRead),
		IgnoreLook:        has(FlagIgnoreLook),
		FullGround:        has(FlagFullGround),
		IsAnimation:       has(FlagIsAnimation),
	}
}

// ServerItem is the central record of the server item database.
type ServerItem struct {
	ServerID         uint16
	ClientID         uint16
	PreviousClientID uint16

	Type          ServerItemType
	StackOrder    StackOrder
	HasStackOrder bool

	Flags    uint32
	Booleans Booleans

	GroundSpeed       uint16
	LightLevel        uint16
	LightColor        uint16
	MaxReadChars      uint16
	MaxReadWriteChars uint16
	MinimapColor      uint16
	TradeAs           uint16

	SpriteHash [16]byte

	Name        string
	Description string
	Article     string
	Plural      string

	LastModified    time.Time
	ModifiedBy      string
	IsCustomCreated bool
	HasClientData   bool

	// Opaque holds any item attribute read whose code is not in the
	// writer-emitted table: round-tripped byte-for-byte, never interpreted.
	// Order is preserved.
	Opaque []OpaqueAttr
}

// OpaqueAttr is a raw, uninterpreted attribute record carried through
// unchanged so unknown legacy attributes survive a read/write cycle without
// the codec guessing their semantics.
type OpaqueAttr struct {
	Attr byte
	Data []byte
}

// SyncBooleansFromFlags derives Booleans from the raw Flags word. Called
// immediately after a node's flags are read.
func (it *ServerItem) SyncBooleansFromFlags() {
	it.Booleans = BooleansFromFlags(it.Flags)
}

// SyncFlagsFromBooleans derives the raw Flags word from the named Booleans.
// Called immediately before a node's flags are written.
func (it *ServerItem) SyncFlagsFromBooleans() {
	it.Flags = FlagsFromBooleans(it.Booleans)
}

// VersionInfo carries the OTB Version attribute plus the client version it
// targets.
type VersionInfo struct {
	Major         uint32
	Minor         uint32
	Build         uint32
	ClientVersion uint32
}

// ItemRange is the declared [min,max] server ID range of a list.
type ItemRange struct {
	MinID uint16
	MaxID uint16
}
