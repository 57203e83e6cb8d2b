// Package validate implements the multi-level OTB file validator: four
// levels of increasing cost from a bare existence check up through
// full structural re-parse, duplicate/range consistency, per-item
// property checks, and corruption heuristics.
package validate

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/crypto/blake2b"

	"github.com/ernie/otbcore/internal/bintree"
	"github.com/ernie/otbcore/internal/otb"
)

// Level selects how much validation work to perform.
type Level int

const (
	Basic Level = iota
	Standard
	Thorough
	Paranoid
)

func (l Level) String() string {
	switch l {
	case Basic:
		return "Basic"
	case Standard:
		return "Standard"
	case Thorough:
		return "Thorough"
	case Paranoid:
		return "Paranoid"
	default:
		return "Unknown"
	}
}

// Statistics summarizes the file examined.
type Statistics struct {
	FileSize     int64
	ItemCount    int
	DeclaredMin  uint16
	DeclaredMax  uint16
	ActualMin    uint16
	ActualMax    uint16
	VersionMajor uint32
	VersionMinor uint32
	VersionBuild uint32
}

func (s Statistics) String() string {
	return fmt.Sprintf("%s, %d items, range %d-%d, version %d.%d.%d",
		humanize.Bytes(uint64(s.FileSize)), s.ItemCount, s.ActualMin, s.ActualMax,
		s.VersionMajor, s.VersionMinor, s.VersionBuild)
}

// CorruptionDetail describes one corruption heuristic finding.
type CorruptionDetail struct {
	Kind    string
	Details string
}

// Result is the structured outcome of a validation run.
type Result struct {
	IsValid       bool
	Level         Level
	Errors        []string
	Warnings      []string
	Suggestions   []string
	Statistics    Statistics
	Corruptions   []CorruptionDetail
	HasCorruption bool
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.IsValid = false
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) addSuggestion(s string) {
	r.Suggestions = append(r.Suggestions, s)
}

// Options bounds Basic-level file size checks and supplies an optional
// externally computed checksum for the Paranoid-level comparison.
type Options struct {
	MinSizeBytes     int64
	MaxSizeBytes     int64
	ExpectedChecksum []byte // optional MD5, compared at Paranoid level

	// ExpectedBlake2b, when set, is compared against a blake2b-256 hash
	// of the whole file at Paranoid level. It is an additional,
	// faster whole-file check offered alongside ExpectedChecksum, never
	// a replacement for it.
	ExpectedBlake2b []byte
}

// File runs validation at the given level against a path on disk.
func File(path string, level Level, opts Options) (*Result, error) {
	result := &Result{IsValid: true, Level: level}

	info, err := os.Stat(path)
	if err != nil {
		result.addError("FILE_ACCESS_DENIED: %v", err)
		result.addSuggestion("Check file permissions")
		result.addSuggestion("Close other applications that might be using the file")
		return result, nil
	}
	result.Statistics.FileSize = info.Size()

	if opts.MinSizeBytes > 0 && info.Size() < opts.MinSizeBytes {
		result.addError("FILE_TOO_SMALL: %d bytes, expected at least %d", info.Size(), opts.MinSizeBytes)
	}
	if opts.MaxSizeBytes > 0 && info.Size() > opts.MaxSizeBytes {
		result.addError("FILE_TOO_LARGE: %d bytes, expected at most %d", info.Size(), opts.MaxSizeBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.addError("FILE_ACCESS_DENIED: %v", err)
		return result, nil
	}
	if len(data) < 4 {
		result.addError("INVALID_SIGNATURE: file too short")
		return result, nil
	}
	if !bytes.Equal(data[0:4], []byte{0, 0, 0, 0}) {
		result.addError("INVALID_SIGNATURE: expected 0x00000000")
	}

	if level == Basic {
		return result, nil
	}

	r := bintree.NewReader(data)
	parsed, err := otb.ReadTree(r, otb.ReadOptions{Strict: true})
	if err != nil {
		if level >= Thorough {
			if dups := rawDuplicateIDs(data); len(dups) > 0 {
				for _, id := range dups {
					result.addError("DUPLICATE_ITEM_ID: server id %d appears more than once", id)
				}
				return result, nil
			}
		}
		result.addError("INVALID_VERSION: %v", err)
		result.addSuggestion("This file may be from an unsupported version")
		result.addSuggestion("Try using a different version of the application")
		return result, nil
	}
	for _, w := range parsed.Warnings {
		result.addWarning("%v", w)
	}

	list := parsed.List
	result.Statistics.ItemCount = list.Len()
	result.Statistics.DeclaredMin = list.Range.MinID
	result.Statistics.DeclaredMax = list.Range.MaxID
	result.Statistics.ActualMin = list.Range.MinID
	result.Statistics.ActualMax = list.Range.MaxID
	result.Statistics.VersionMajor = list.Version.Major
	result.Statistics.VersionMinor = list.Version.Minor
	result.Statistics.VersionBuild = list.Version.Build

	if level == Standard {
		return result, nil
	}

	validateThorough(list, result)

	if level == Paranoid {
		validateParanoid(data, list, opts, result)
	}

	if result.HasCorruption {
		result.addSuggestion("Try opening a backup copy of the file")
		result.addSuggestion("Re-download the file from the original source")
		result.addSuggestion("Use file recovery tools if available")
	}

	return result, nil
}

// rawDuplicateIDs re-scans data outside of ServerItemList's dedup-on-Add
// path, so a file whose strict parse already aborted on a duplicate ID
// can still be attributed to DUPLICATE_ITEM_ID rather than a generic
// parse failure.
func rawDuplicateIDs(data []byte) []uint16 {
	ids, err := otb.RawServerIDs(bintree.NewReader(data))
	if err != nil {
		return nil
	}
	return otb.DuplicateIDs(ids)
}

func validateThorough(list *otb.ServerItemList, result *Result) {
	actualMin, actualMax := uint16(0), uint16(0)
	first := true
	for _, it := range list.Items() {
		if first || it.ServerID < actualMin {
			actualMin = it.ServerID
		}
		if first || it.ServerID > actualMax {
			actualMax = it.ServerID
		}
		first = false

		if !it.Type.Valid() {
			result.addError("INVALID_ITEM_TYPE: item %d has unrecognized type %d", it.ServerID, it.Type)
		}
		if it.ServerID == 0 && it.Type != otb.TypeDeprecated {
			result.addError("INVALID_ITEM_ID: item has server id 0 and is not Deprecated")
		}
		if it.Name == "" {
			result.addWarning("EMPTY_ITEM_NAME: item %d has no name", it.ServerID)
		}
	}
	if !first && (actualMin != list.Range.MinID || actualMax != list.Range.MaxID) {
		result.addError("RANGE_MISMATCH: declared %d-%d, actual %d-%d", list.Range.MinID, list.Range.MaxID, actualMin, actualMax)
	}
	result.Statistics.ActualMin = actualMin
	result.Statistics.ActualMax = actualMax
}

func validateParanoid(data []byte, list *otb.ServerItemList, opts Options, result *Result) {
	if detail, found := detectExcessiveNULRuns(data); found {
		result.HasCorruption = true
		result.Corruptions = append(result.Corruptions, detail)
	}
	if list.Len() > 0 && list.Len() > 200000 {
		result.HasCorruption = true
		result.Corruptions = append(result.Corruptions, CorruptionDetail{
			Kind:    "TOO_MANY_ITEMS",
			Details: fmt.Sprintf("%d items exceeds any known OTB's plausible range", list.Len()),
		})
		result.addError("TOO_MANY_ITEMS: %d items", list.Len())
		result.addSuggestion("The file contains too many items for this version")
		result.addSuggestion("Try splitting the file into smaller parts")
	}

	if opts.ExpectedChecksum != nil {
		sum := md5.Sum(data)
		if !bytes.Equal(sum[:], opts.ExpectedChecksum) {
			result.addError("CHECKSUM_MISMATCH: computed %x, expected %x", sum, opts.ExpectedChecksum)
			result.HasCorruption = true
		}
	}

	if opts.ExpectedBlake2b != nil {
		sum := blake2b.Sum256(data)
		if !bytes.Equal(sum[:], opts.ExpectedBlake2b) {
			result.addError("CHECKSUM_MISMATCH: computed blake2b %x, expected %x", sum, opts.ExpectedBlake2b)
			result.HasCorruption = true
		}
	}
}

// detectExcessiveNULRuns flags long contiguous runs of NUL bytes, a
// common symptom of truncated or sparse-zeroed corrupted files.
func detectExcessiveNULRuns(data []byte) (CorruptionDetail, bool) {
	const threshold = 4096
	run := 0
	for i, b := range data {
		if b == 0 {
			run++
			if run == threshold {
				return CorruptionDetail{
					Kind:    "EXCESSIVE_NUL_RUN",
					Details: fmt.Sprintf("run of at least %d NUL bytes ending near offset %d", threshold, i),
				}, true
			}
		} else {
			run = 0
		}
	}
	return CorruptionDetail{}, false
}
