package backup

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// List returns every backup record found in dir, across all original
// files, by scanning for "*.bak" entries and reading each one's
// sidecar (or degrading to filename-derived fields).
func List(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []*Record
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".bak") || strings.HasSuffix(e.Name(), ".bak.gz")) {
			continue
		}
		rec, err := readRecord(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ForOriginal returns the backups in dir belonging to originalPath,
// newest first.
func ForOriginal(dir, originalPath string) ([]*Record, error) {
	all, err := List(dir)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(originalPath)
	var matched []*Record
	for _, r := range all {
		if filepath.Base(r.OriginalPath) == base {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })
	return matched, nil
}

// Latest returns the most recent backup for originalPath.
func Latest(dir, originalPath string) (*Record, error) {
	backups, err := ForOriginal(dir, originalPath)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, newErr(KindNoBackupFound, "no backups found for %s in %s", originalPath, dir)
	}
	return backups[0], nil
}

// ByTimestamp returns the backup for originalPath whose recorded
// timestamp matches ts exactly.
func ByTimestamp(dir, originalPath string, ts time.Time) (*Record, error) {
	backups, err := ForOriginal(dir, originalPath)
	if err != nil {
		return nil, err
	}
	for _, r := range backups {
		if r.Timestamp.Equal(ts) {
			return r, nil
		}
	}
	return nil, newErr(KindNoBackupFound, "no backup of %s at timestamp %s", originalPath, ts)
}

// ByID is intentionally not implemented against the flat sidecar store:
// the ".meta" wire format (originalPath/type/timestamp/fileSize/
// description/checksum/isValid) never carries a backup_id, and the id
// is not embedded in the filename either. Restoring by id requires the
// optional catalog index (see catalog.go), which records the id at
// insert time.
