package otb

import (
	"github.com/ernie/otbcore/internal/bintree"
)

// Signature is the constant four-byte OTB file prologue.
const Signature uint32 = 0x00000000

// ProgressFunc reports read/write progress as a fraction in [0,1]; returning
// false requests cancellation at the next node boundary.
type ProgressFunc func(fraction float64) bool

// ReadOptions controls the reader's failure policy.
type ReadOptions struct {
	// Strict aborts on the first InvalidItemData, AttributeValidationFailed,
	// or UnexpectedEndOfFile. Lenient (the default) discards the offending
	// item and continues with its next sibling.
	Strict bool

	// MaxFailures caps how many malformed items lenient mode tolerates
	// before aborting the whole read. Zero means unlimited.
	MaxFailures int

	// Progress, if set, is invoked at a bounded rate while items are read.
	Progress ProgressFunc
}

// ReadResult carries the parsed list plus any non-fatal item failures
// encountered in lenient mode.
type ReadResult struct {
	List     *ServerItemList
	Warnings []error
}

// Read parses a complete OTB file from path.
func Read(path string, opts ReadOptions) (*ReadResult, error) {
	r, err := bintree.Open(path)
	if err != nil {
		return nil, wrapErr(KindFileNotFound, err, "open %s", path)
	}
	defer r.Close()
	return ReadTree(r, opts)
}

// ReadTree parses a complete OTB stream from an already-positioned tree
// reader; exported separately so tests can drive it from an in-memory
// buffer without touching the filesystem.
func ReadTree(r *bintree.Reader, opts ReadOptions) (*ReadResult, error) {
	if err := verifySignature(r); err != nil {
		return nil, err
	}

	nodeType, err := r.EnterNode()
	if err != nil {
		return nil, wrapErr(KindInvalidHeader, err, "entering root node")
	}
	if nodeType != 0 {
		return nil, newErr(KindInvalidHeader, "expected root node type 0, got %d", nodeType)
	}

	if r.Remaining() < 4 {
		return nil, newErr(KindUnexpectedEndOfFile, "root node missing reserved flags")
	}
	if _, err := r.ReadUint32(); err != nil { // reserved root flags, discarded
		return nil, wrapErr(KindUnexpectedEndOfFile, err, "reading root flags")
	}

	version, description, err := readRootAttributes(r, opts.Strict)
	if err != nil {
		return nil, err
	}

	list := NewServerItemList()
	list.Version = version
	list.Description = description

	var warnings []error
	failures := 0
	total := 0 // best-effort denominator for progress; refined as siblings are discovered

	// item nodes are children of root, so they must be read from inside
	// the root frame, before root is left.
	for r.HasNextNode() {
		total++
		it, err := readItemNode(r, opts.Strict)
		if err != nil {
			if opts.Strict {
				return nil, err
			}
			failures++
			warnings = append(warnings, err)
			if opts.MaxFailures > 0 && failures > opts.MaxFailures {
				return nil, wrapErr(KindStructureCorrupted, err, "exceeded %d tolerated item failures", opts.MaxFailures)
			}
			continue
		}
		if err := list.Add(it); err != nil {
			if opts.Strict {
				return nil, wrapErr(KindInvalidItemData, err, "duplicate item")
			}
			warnings = append(warnings, err)
			continue
		}
		if opts.Progress != nil {
			if !opts.Progress(progressFraction(total)) {
				return nil, newErr(KindCancelled, "read cancelled after %d items", total)
			}
		}
	}

	if err := r.LeaveNode(); err != nil {
		return nil, wrapErr(KindInvalidHeader, err, "leaving root node")
	}

	list.MarkClean()
	return &ReadResult{List: list, Warnings: warnings}, nil
}

// progressFraction produces a monotonically approaching-1 value from a
// running item count, since the true total is unknown until EOF.
func progressFraction(n int) float64 {
	return 1 - 1/float64(n+1)
}

// RawServerIDs walks every item node under root and returns its declared
// ServerID in file order, with no deduplication and no ServerItemList
// construction. A strict ReadTree aborts outright on a duplicate ID before
// it can be observed, so callers that need to detect duplicates (rather
// than just fail on them) re-scan with this instead.
func RawServerIDs(r *bintree.Reader) ([]uint16, error) {
	if err := verifySignature(r); err != nil {
		return nil, err
	}

	nodeType, err := r.EnterNode()
	if err != nil {
		return nil, wrapErr(KindInvalidHeader, err, "entering root node")
	}
	if nodeType != 0 {
		return nil, newErr(KindInvalidHeader, "expected root node type 0, got %d", nodeType)
	}
	if r.Remaining() < 4 {
		return nil, newErr(KindUnexpectedEndOfFile, "root node missing reserved flags")
	}
	if _, err := r.ReadUint32(); err != nil {
		return nil, wrapErr(KindUnexpectedEndOfFile, err, "reading root flags")
	}
	if _, _, err := readRootAttributes(r, false); err != nil {
		return nil, err
	}

	var ids []uint16
	for r.HasNextNode() {
		it, err := readItemNode(r, false)
		if err != nil {
			continue
		}
		ids = append(ids, it.ServerID)
	}

	if err := r.LeaveNode(); err != nil {
		return nil, wrapErr(KindInvalidHeader, err, "leaving root node")
	}
	return ids, nil
}

func verifySignature(r *bintree.Reader) error {
	sig, err := r.ReadUint32()
	if err != nil {
		return wrapErr(KindInvalidSignature, err, "reading signature")
	}
	if sig != Signature {
		return newErr(KindInvalidSignature, "got 0x%08X", sig)
	}
	return nil
}

func readItemNode(r *bintree.Reader, strict bool) (*ServerItem, error) {
	nodeType, err := r.EnterNode()
	if err != nil {
		return nil, wrapErr(KindNodeStructureInvalid, err, "entering item node")
	}
	defer r.LeaveNode()

	it := &ServerItem{Type: ServerItemType(nodeType)}
	if strict && !it.Type.Valid() {
		return nil, newErr(KindInvalidItemData, "invalid item type %d", nodeType)
	}

	if r.Remaining() < 4 {
		return nil, newErr(KindUnexpectedEndOfFile, "item node missing flags word")
	}
	flags, err := r.ReadUint32()
	if err != nil {
		return nil, wrapErr(KindUnexpectedEndOfFile, err, "reading item flags")
	}
	it.Flags = flags

	if err := readItemAttributes(r, it, strict); err != nil {
		return nil, err
	}

	it.SyncBooleansFromFlags()

	return it, nil
}
