package otb

import (
	"bytes"
	"testing"

	"github.com/ernie/otbcore/internal/bintree"
	"github.com/stretchr/testify/require"
)

func sampleList() *ServerItemList {
	list := NewServerItemList()
	list.Version = VersionInfo{Major: 3, Minor: 60, Build: 1}
	list.Description = "test item database"

	ground := &ServerItem{
		ServerID:    100,
		ClientID:    100,
		Type:        TypeGround,
		Name:        "grass",
		GroundSpeed: 150,
		Booleans:    Booleans{Stackable: false, Movable: false},
	}
	ground.SyncFlagsFromBooleans()

	container := &ServerItem{
		ServerID:      101,
		ClientID:      101,
		Type:          TypeContainer,
		Name:          "backpack",
		HasStackOrder: true,
		StackOrder:    StackOrderTop,
		Booleans:      Booleans{Pickupable: true, Movable: true, Stackable: false},
	}
	container.SyncFlagsFromBooleans()
	container.SpriteHash = [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	must(list.Add(ground))
	must(list.Add(container))
	return list
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Writing then reading a list back must reproduce it field-for-field.
func TestReadWriteRoundTrip(t *testing.T) {
	list := sampleList()

	var buf bytes.Buffer
	w := bintree.NewWriter(&buf)
	require.NoError(t, WriteTree(w, list, WriteOptions{}))

	r := bintree.NewReader(buf.Bytes())
	result, err := ReadTree(r, ReadOptions{Strict: true})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	got := result.List
	require.Equal(t, list.Version, got.Version)
	require.Equal(t, list.Description, got.Description)
	require.Equal(t, list.Len(), got.Len())

	for _, want := range list.Items() {
		have, ok := got.Get(want.ServerID)
		require.True(t, ok)
		require.Equal(t, want.ClientID, have.ClientID)
		require.Equal(t, want.Name, have.Name)
		require.Equal(t, want.GroundSpeed, have.GroundSpeed)
		require.Equal(t, want.Booleans, have.Booleans)
		require.Equal(t, want.SpriteHash, have.SpriteHash)
		require.Equal(t, want.HasStackOrder, have.HasStackOrder)
		require.Equal(t, want.StackOrder, have.StackOrder)
	}
}

// A file that parses without warnings must re-emit byte-identically when
// canonical attribute order is followed.
func TestWriteAfterReadIsByteIdentical(t *testing.T) {
	list := sampleList()

	var first bytes.Buffer
	require.NoError(t, WriteTree(bintree.NewWriter(&first), list, WriteOptions{}))

	r := bintree.NewReader(first.Bytes())
	result, err := ReadTree(r, ReadOptions{Strict: true})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	var second bytes.Buffer
	require.NoError(t, WriteTree(bintree.NewWriter(&second), result.List, WriteOptions{}))

	require.True(t, bytes.Equal(first.Bytes(), second.Bytes()))
}

// The named-boolean projection of the flag bitfield must round-trip.
func TestFlagBijection(t *testing.T) {
	b := Booleans{
		Unpassable: true, Stackable: true, Hangable: true, HookEast: true,
	}
	flags := FlagsFromBooleans(b)
	require.Equal(t, b, BooleansFromFlags(flags))
}

// Range must always equal the actual min/max of contained items.
func TestRangeInvariant(t *testing.T) {
	list := NewServerItemList()
	require.Equal(t, ItemRange{}, list.Range)

	require.NoError(t, list.Add(&ServerItem{ServerID: 50}))
	require.Equal(t, ItemRange{MinID: 50, MaxID: 50}, list.Range)

	require.NoError(t, list.Add(&ServerItem{ServerID: 10}))
	require.NoError(t, list.Add(&ServerItem{ServerID: 200}))
	require.Equal(t, ItemRange{MinID: 10, MaxID: 200}, list.Range)

	list.Remove(10)
	require.Equal(t, ItemRange{MinID: 50, MaxID: 200}, list.Range)
}

// Adding a duplicate server ID must fail and leave the list unchanged.
func TestDuplicateServerIDRejected(t *testing.T) {
	list := NewServerItemList()
	require.NoError(t, list.Add(&ServerItem{ServerID: 7}))
	err := list.Add(&ServerItem{ServerID: 7})
	require.ErrorIs(t, err, ErrDuplicateItemID)
	require.Equal(t, 1, list.Len())
}

// An invalid signature must be rejected before any node is entered.
func TestReadRejectsBadSignature(t *testing.T) {
	var buf bytes.Buffer
	w := bintree.NewWriter(&buf)
	require.NoError(t, w.WriteUint32(0xDEADBEEF))

	r := bintree.NewReader(buf.Bytes())
	_, err := ReadTree(r, ReadOptions{Strict: true})
	require.Error(t, err)
	var otbErr *Error
	require.ErrorAs(t, err, &otbErr)
	require.Equal(t, KindInvalidSignature, otbErr.Kind)
}

// A minimal valid OTB (root node only, no items) must parse cleanly.
func TestMinimalOTB(t *testing.T) {
	list := NewServerItemList()
	list.Version = VersionInfo{Major: 3, Minor: 0, Build: 0}

	var buf bytes.Buffer
	require.NoError(t, WriteTree(bintree.NewWriter(&buf), list, WriteOptions{}))

	r := bintree.NewReader(buf.Bytes())
	result, err := ReadTree(r, ReadOptions{Strict: true})
	require.NoError(t, err)
	require.Equal(t, 0, result.List.Len())
	require.Equal(t, list.Version, result.List.Version)
}

// An unknown item attribute must be preserved verbatim as an opaque record
// rather than dropped, so a round trip never silently loses data.
func TestUnknownAttributeRoundTrips(t *testing.T) {
	list := NewServerItemList()
	it := &ServerItem{ServerID: 1, ClientID: 1}
	it.Opaque = append(it.Opaque, OpaqueAttr{Attr: 0x7F, Data: []byte{9, 9, 9}})
	require.NoError(t, list.Add(it))

	var buf bytes.Buffer
	require.NoError(t, WriteTree(bintree.NewWriter(&buf), list, WriteOptions{}))

	r := bintree.NewReader(buf.Bytes())
	result, err := ReadTree(r, ReadOptions{Strict: true})
	require.NoError(t, err)

	got, ok := result.List.Get(1)
	require.True(t, ok)
	require.Len(t, got.Opaque, 1)
	require.Equal(t, byte(0x7F), got.Opaque[0].Attr)
	require.Equal(t, []byte{9, 9, 9}, got.Opaque[0].Data)
}

// Strict mode must abort on an item whose declared attribute length
// disagrees with the fixed table, rather than silently truncating.
func TestStrictModeRejectsBadAttributeLength(t *testing.T) {
	var buf bytes.Buffer
	w := bintree.NewWriter(&buf)
	require.NoError(t, w.WriteUint32(Signature))

	w.WriteNodeStart(0)
	require.NoError(t, w.WriteUint32(0))
	require.NoError(t, writeRootAttributes(w, VersionInfo{Major: 3}, "x"))

	w.WriteNodeStart(byte(TypeGround))
	require.NoError(t, w.WriteUint32(0))
	require.NoError(t, w.WriteProp(itemAttrServerID, []byte{1, 0, 0})) // table fixes ServerID at 2 bytes
	require.NoError(t, w.WriteNodeEnd())

	require.NoError(t, w.WriteNodeEnd()) // root

	r := bintree.NewReader(buf.Bytes())
	_, err := ReadTree(r, ReadOptions{Strict: true})
	require.Error(t, err)
}

// Lenient mode must discard the malformed item and continue with the next
// sibling rather than aborting the whole read.
func TestLenientModeSkipsMalformedItem(t *testing.T) {
	var buf bytes.Buffer
	w := bintree.NewWriter(&buf)
	require.NoError(t, w.WriteUint32(Signature))

	w.WriteNodeStart(0)
	require.NoError(t, w.WriteUint32(0))
	require.NoError(t, writeRootAttributes(w, VersionInfo{Major: 3}, "x"))

	w.WriteNodeStart(byte(TypeGround))
	require.NoError(t, w.WriteBytes([]byte{1, 2})) // too short for the flags word
	require.NoError(t, w.WriteNodeEnd())

	w.WriteNodeStart(byte(TypeGround))
	require.NoError(t, w.WriteUint32(0))
	require.NoError(t, w.WriteProp(itemAttrServerID, []byte{42, 0}))
	require.NoError(t, w.WriteNodeEnd())

	require.NoError(t, w.WriteNodeEnd()) // root

	r := bintree.NewReader(buf.Bytes())
	result, err := ReadTree(r, ReadOptions{Strict: false})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	require.Equal(t, 1, result.List.Len())
	_, ok := result.List.Get(42)
	require.True(t, ok)
}
