// Package dat implements the client item definition file: a version-
// dispatched stream of per-item flag sequences followed by sprite geometry
// and a list of sprite identifiers.
package dat

// Band identifies one of the five historical DAT dialects. The dialects
// observed in the field (8.60 onward) share most flag byte values, but the
// byte at 0x08 changes meaning at the 10.0 boundary (Writable in 8.x,
// HasCharges in 10.x, with every later code shifted up by one slot) — see
// parseFlags860to986 and parseFlags1000Plus.
type Band int

const (
	BandUnknown Band = iota
	BandPre755
	Band755to859
	Band860to986
	Band1000to1077
	Band1098Plus
)

func (b Band) String() string {
	switch b {
	case BandPre755:
		return "pre-7.55"
	case Band755to859:
		return "7.55-8.59"
	case Band860to986:
		return "8.60-9.86"
	case Band1000to1077:
		return "10.00-10.77"
	case Band1098Plus:
		return "10.98+"
	default:
		return "unknown"
	}
}

// SpriteIDWidth reports how many bytes wide a sprite ID is in this band's
// per-item sprite ID list: 2 before 10.00, 4 from 10.00 onward.
func (b Band) SpriteIDWidth() int {
	if b == Band1000to1077 || b == Band1098Plus {
		return 4
	}
	return 2
}

// isPost10x reports whether this band uses the post-10.0 flag dialect
// (HasCharges inserted at 0x08, Cloth/Market present).
func (b Band) isPost10x() bool {
	return b == Band1000to1077 || b == Band1098Plus
}

// signatureVersion maps a DAT signature to its band and the dotted client
// version string reported to callers. Transcribed from the plugin
// signature tables (the 8.60-9.86 band and the 10.00-10.77 band); the
// pre-7.55/7.55-8.59/10.98+ bands are not present in the retrieved plugin
// set and have no enumerated signature table here — LookupSignature
// reports them unknown rather than guessing (see DESIGN.md).
var signatureVersion = map[uint32]struct {
	band    Band
	version string
}{
	0x4C28B721: {Band860to986, "8.60"},
	0x4C2C7993: {Band860to986, "8.60"},
	0x4C6A4CBC: {Band860to986, "8.61"},
	0x4C973450: {Band860to986, "8.62"},
	0x4CFE22C5: {Band860to986, "8.70"},
	0x4D41979E: {Band860to986, "8.71"},
	0x4DAD1A1A: {Band860to986, "8.72"},
	0x4DBAA20B: {Band860to986, "8.73"},
	0x4E12DAFF: {Band860to986, "9.10"},
	0x4E807C08: {Band860to986, "9.20"},
	0x4EE71DE5: {Band860to986, "9.40"},
	0x4F0EEFBB: {Band860to986, "9.44"},
	0x4F105168: {Band860to986, "9.44"},
	0x4F16C0D7: {Band860to986, "9.44"},
	0x4F3131CF: {Band860to986, "9.44"},
	0x4F6B341F: {Band860to986, "9.46"},
	0x4F75B7AB: {Band860to986, "9.50"},
	0x4F857F6C: {Band860to986, "9.52"},
	0x4FA11252: {Band860to986, "9.53"},
	0x4FD5956B: {Band860to986, "9.54"},
	0x4FFA74CC: {Band860to986, "9.60"},
	0x50226F9D: {Band860to986, "9.61"},
	0x503CB933: {Band860to986, "9.63"},
	0x5072A490: {Band860to986, "9.70"},
	0x50C70674: {Band860to986, "9.80"},
	0x50D1C5B6: {Band860to986, "9.81"},
	0x512CAD09: {Band860to986, "9.82"},
	0x51407B67: {Band860to986, "9.83"},
	0x51641A1B: {Band860to986, "9.85"},
	0x5170E904: {Band860to986, "9.86"},

	0x51E3F8C3: {Band1000to1077, "10.10"},
	0x5236F129: {Band1000to1077, "10.20"},
	0x526A5068: {Band1000to1077, "10.21"},
	0x52A59036: {Band1000to1077, "10.30"},
	0x52AED581: {Band1000to1077, "10.31"},
	0x5383504E: {Band1000to1077, "10.41"},
}

// LookupSignature resolves a DAT signature to its band and dotted client
// version. Signatures not present in the table are rejected.
func LookupSignature(sig uint32) (band Band, version string, ok bool) {
	entry, found := signatureVersion[sig]
	if !found {
		return BandUnknown, "", false
	}
	return entry.band, entry.version, true
}

const lastFlag byte = 0xFF
