package backup

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

const timestampFormat = "%Y%m%d_%H%M%S"

// fileName builds the on-disk backup filename:
// <basename>_<kind>_<yyyyMMdd_hhmmss>.<ext>.bak
func fileName(originalPath string, kind Kind, ts time.Time) string {
	base := filepath.Base(originalPath)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_" + kind.String() + "_" + strftime.Format(timestampFormat, ts) + "." + ext + ".bak"
}

// backupPath joins a backup directory with the generated filename.
func backupPath(dir, originalPath string, kind Kind, ts time.Time) string {
	return filepath.Join(dir, fileName(originalPath, kind, ts))
}

var timestampPattern = regexp.MustCompile(`_(\d{8}_\d{6})\.`)

// parseTimestamp recovers the timestamp embedded in a backup filename,
// used when the .meta sidecar is missing and fields must be
// reconstructed from the filename alone.
func parseTimestamp(name string) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102_150405", m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseKindFromName recovers the backup kind embedded in a filename,
// used for the same degraded-reconstruction case as parseTimestamp.
func parseKindFromName(name string) Kind {
	for _, k := range []Kind{Manual, Automatic, PreSave, PreModification, CrashRecovery, Checkpoint} {
		if strings.Contains(name, "_"+k.String()+"_") {
			return k
		}
	}
	return Manual
}

// originalNameFromBackup strips the generated suffix to recover the
// original basename a backup filename belongs to.
func originalNameFromBackup(name string) string {
	for _, k := range []Kind{Manual, Automatic, PreSave, PreModification, CrashRecovery, Checkpoint} {
		marker := "_" + k.String() + "_"
		if idx := strings.Index(name, marker); idx >= 0 {
			stem := name[:idx]
			// fileName puts "<ext>.bak" (plus gzSuffix once compacted)
			// after the timestamp; an empty ext means no extension.
			if loc := timestampPattern.FindStringIndex(name); loc != nil {
				ext := strings.TrimSuffix(strings.TrimSuffix(name[loc[1]:], gzSuffix), ".bak")
				if ext != "" {
					return stem + "." + ext
				}
			}
			return stem
		}
	}
	return name
}
