package backup

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrorKind mirrors the error taxonomy used throughout the codec layers.
type ErrorKind int

const (
	KindSourceUnreadable ErrorKind = iota + 1
	KindWriteFailed
	KindIntegrityMismatch
	KindNoBackupFound
	KindBackupCorrupted
)

type Error struct {
	Kind    ErrorKind
	Context string
}

func (e *Error) Error() string { return e.Context }

func newErr(k ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: k, Context: fmt.Sprintf(format, args...)}
}

// Options controls backup creation and restore.
type Options struct {
	VerifyIntegrityOnCreate bool
	AppVersion              string

	// Catalog, when non-nil, is updated alongside the flat sidecar
	// store so BackupID-based lookups (Catalog.ByID) stay current.
	Catalog *Catalog
}

// Create copies sourcePath byte-for-byte into dir, recording a
// BackupRecord and a JSON ".meta" sidecar alongside it. If
// opts.VerifyIntegrityOnCreate is set, the backup is re-read and
// re-hashed after the copy; on mismatch the backup (and its sidecar)
// are removed and an error is returned.
func Create(sourcePath, dir string, kind Kind, description string, opts Options) (*Record, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, newErr(KindSourceUnreadable, "reading source %s: %v", sourcePath, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newErr(KindWriteFailed, "creating backup directory %s: %v", dir, err)
	}

	// Whole seconds, the precision the filename and sidecar keep, so the
	// returned Timestamp matches what List and ByTimestamp read back.
	ts := time.Now().Truncate(time.Second)
	target := backupPath(dir, sourcePath, kind, ts)
	sum := md5.Sum(data)

	rec := &Record{
		BackupID:     uuid.NewString(),
		OriginalPath: sourcePath,
		BackupPath:   target,
		Kind:         kind,
		Timestamp:    ts,
		OriginalSize: int64(len(data)),
		Description:  description,
		Checksum:     hex.EncodeToString(sum[:]),
		AppVersion:   opts.AppVersion,
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, newErr(KindWriteFailed, "writing backup %s: %v", target, err)
	}
	rec.BackupSize = int64(len(data))

	if opts.VerifyIntegrityOnCreate {
		if err := verifyFile(target, rec.Checksum); err != nil {
			os.Remove(target)
			return nil, newErr(KindIntegrityMismatch, "backup %s failed integrity check: %v", target, err)
		}
	}
	rec.IsValid = true

	if err := writeMeta(rec); err != nil {
		return rec, err // backup itself succeeded; sidecar failure is non-fatal to the caller
	}

	if opts.Catalog != nil {
		if err := opts.Catalog.Index(rec); err != nil {
			return rec, err // backup and sidecar succeeded; catalog failure is non-fatal
		}
	}

	return rec, nil
}

func verifyFile(path, wantChecksum string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != wantChecksum {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, wantChecksum)
	}
	return nil
}

// VerifyIntegrity re-reads a backup file and compares its checksum
// against the one recorded for it (sidecar if present, filename-derived
// record otherwise).
func VerifyIntegrity(backupFilePath string) (bool, error) {
	rec, err := readRecord(backupFilePath)
	if err != nil {
		return false, err
	}
	if rec.Checksum == "" {
		return false, newErr(KindBackupCorrupted, "backup %s has no recorded checksum to verify against", backupFilePath)
	}
	if err := verifyFile(backupFilePath, rec.Checksum); err != nil {
		return false, nil
	}
	return true, nil
}
