package backup

import (
	"io"
	"os"
	"time"
)

// RestoreLatest restores the most recent backup of originalPath in
// dir. A PreModification backup of the current file is created first
// (if it exists), so the restore itself is always recoverable.
func RestoreLatest(dir, originalPath string, opts Options) (*Record, error) {
	rec, err := Latest(dir, originalPath)
	if err != nil {
		return nil, err
	}
	return restore(dir, originalPath, rec, opts)
}

// RestoreByTimestamp restores the backup of originalPath recorded at
// exactly ts.
func RestoreByTimestamp(dir, originalPath string, ts time.Time, opts Options) (*Record, error) {
	rec, err := ByTimestamp(dir, originalPath, ts)
	if err != nil {
		return nil, err
	}
	return restore(dir, originalPath, rec, opts)
}

func restore(dir, originalPath string, rec *Record, opts Options) (*Record, error) {
	if _, err := os.Stat(originalPath); err == nil {
		if _, err := Create(originalPath, dir, PreModification, "automatic pre-restore snapshot", opts); err != nil {
			return nil, err
		}
	}

	if err := copyFile(rec.BackupPath, originalPath); err != nil {
		return nil, newErr(KindWriteFailed, "restoring %s from %s: %v", originalPath, rec.BackupPath, err)
	}

	if rec.Checksum != "" {
		if err := verifyFile(originalPath, rec.Checksum); err != nil {
			return nil, newErr(KindIntegrityMismatch, "restored file %s failed post-copy verification: %v", originalPath, err)
		}
	}

	return rec, nil
}

func copyFile(src, dst string) error {
	in, err := decompressToReader(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
