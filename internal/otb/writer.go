package otb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ernie/otbcore/internal/bintree"
)

// WriteOptions controls the writer's behavior.
type WriteOptions struct {
	// Progress, if set, is invoked at a bounded rate while items are written.
	Progress ProgressFunc
}

// Write serializes list to path using the atomic temp-file-plus-rename
// pattern: bytes land in a sibling temp file, are fsynced, then the temp
// file is renamed over path. Any failure before the rename leaves the
// original file untouched.
func Write(path string, list *ServerItemList, opts WriteOptions) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return wrapErr(KindFileAccessDenied, err, "creating temp file for %s", path)
	}
	tmpPath := tmp.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bintree.NewWriter(tmp)
	if err := WriteTree(w, list, opts); err != nil {
		return err
	}

	if err := tmp.Sync(); err != nil {
		return wrapErr(KindDiskSpaceInsufficient, err, "fsync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return wrapErr(KindFileAccessDenied, err, "closing temp file %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return wrapErr(KindFileAccessDenied, err, "renaming %s to %s", tmpPath, path)
	}

	succeeded = true
	list.MarkClean()
	return nil
}

// WriteTree serializes list onto an already-constructed tree writer;
// exported separately so tests can drive it against a bytes.Buffer for
// round-trip assertions without touching the filesystem.
func WriteTree(w *bintree.Writer, list *ServerItemList, opts WriteOptions) error {
	if err := w.WriteUint32(Signature); err != nil {
		return wrapErr(KindFileAccessDenied, err, "writing signature")
	}

	w.WriteNodeStart(0)
	if err := w.WriteUint32(0); err != nil { // reserved root flags
		return err
	}
	if err := writeRootAttributes(w, list.Version, list.Description); err != nil {
		return err
	}

	items := list.Items()
	for i, it := range items {
		it.SyncFlagsFromBooleans()

		w.WriteNodeStart(byte(it.Type))
		if err := w.WriteUint32(it.Flags); err != nil {
			return err
		}
		if err := writeItemAttributes(w, it); err != nil {
			return fmt.Errorf("writing attributes for server id %d: %w", it.ServerID, err)
		}
		if err := w.WriteNodeEnd(); err != nil {
			return fmt.Errorf("closing item node for server id %d: %w", it.ServerID, err)
		}

		if opts.Progress != nil {
			if !opts.Progress(float64(i+1) / float64(len(items))) {
				return newErr(KindCancelled, "write cancelled after %d/%d items", i+1, len(items))
			}
		}
	}

	// item nodes are children of root, so root's NODE_END must come last.
	if err := w.WriteNodeEnd(); err != nil {
		return fmt.Errorf("closing root node: %w", err)
	}

	return nil
}
