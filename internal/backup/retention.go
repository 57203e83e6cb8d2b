package backup

import (
	"os"
	"time"

	"golang.org/x/exp/slices"
)

// RetentionPolicy bounds how many backups, and how old, are kept per
// original file, plus a storage ceiling that triggers a warning rather
// than a deletion (a deliberate policy choice: size pressure is
// reported, never silently resolved by deleting data).
type RetentionPolicy struct {
	MaxPerFile      int
	MaxAge          time.Duration
	MaxStorageBytes int64
}

// Apply enforces policy against the backups of originalPath in dir:
// drops all beyond MaxPerFile (oldest first), then all older than
// MaxAge. It returns a storage warning string (non-empty) if total
// backup storage in dir exceeds MaxStorageBytes; it never deletes for
// storage pressure alone.
func Apply(dir, originalPath string, policy RetentionPolicy, catalog *Catalog) (storageWarning string, err error) {
	backups, err := ForOriginal(dir, originalPath)
	if err != nil {
		return "", err
	}

	// ForOriginal already sorts newest-first; reverse for oldest-first
	// deletion ordering.
	slices.Reverse(backups)

	if policy.MaxPerFile > 0 && len(backups) > policy.MaxPerFile {
		excess := backups[:len(backups)-policy.MaxPerFile]
		for _, r := range excess {
			removeBackup(r, catalog)
		}
		backups = backups[len(backups)-policy.MaxPerFile:]
	}

	if policy.MaxAge > 0 {
		cutoff := time.Now().Add(-policy.MaxAge)
		var kept []*Record
		for _, r := range backups {
			if r.Timestamp.Before(cutoff) {
				removeBackup(r, catalog)
				continue
			}
			kept = append(kept, r)
		}
		backups = kept
	}

	if policy.MaxStorageBytes > 0 {
		total, err := totalStorage(dir)
		if err != nil {
			return "", err
		}
		if total > policy.MaxStorageBytes {
			return "backup storage usage exceeds configured limit", nil
		}
	}

	return "", nil
}

func removeBackup(r *Record, catalog *Catalog) {
	os.Remove(r.BackupPath)
	os.Remove(metaPath(r.BackupPath))
	if catalog != nil && r.BackupID != "" {
		catalog.db.Exec(`DELETE FROM backups WHERE backup_id = ?`, r.BackupID)
	}
}

func totalStorage(dir string) (int64, error) {
	all, err := List(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range all {
		total += r.BackupSize
	}
	return total, nil
}
