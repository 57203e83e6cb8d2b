package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// metaFile is the on-disk sidecar shape: UTF-8 JSON next to each
// ".bak" file as "<backup>.meta", per the external wire contract.
// Record carries additional fields (BackupID, BackupPath, BackupSize,
// AppVersion) used only in-process; the sidecar is the subset that
// must survive being read back by a different process or version.
type metaFile struct {
	OriginalPath string `json:"originalPath"`
	Type         int    `json:"type"`
	Timestamp    string `json:"timestamp"` // ISO-8601
	FileSize     int64  `json:"fileSize"`
	Description  string `json:"description"`
	Checksum     string `json:"checksum"`
	IsValid      bool   `json:"isValid"`
}

func metaPath(backupFilePath string) string {
	return backupFilePath + ".meta"
}

func writeMeta(rec *Record) error {
	m := metaFile{
		OriginalPath: rec.OriginalPath,
		Type:         int(rec.Kind),
		Timestamp:    rec.Timestamp.UTC().Format(time.RFC3339),
		FileSize:     rec.OriginalSize,
		Description:  rec.Description,
		Checksum:     rec.Checksum,
		IsValid:      rec.IsValid,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup metadata: %w", err)
	}
	if err := os.WriteFile(metaPath(rec.BackupPath), data, 0o644); err != nil {
		return fmt.Errorf("write backup metadata: %w", err)
	}
	return nil
}

// readRecord loads a backup's Record, preferring the .meta sidecar and
// falling back to fields reconstructible from the filename and file
// stat when the sidecar is missing or unreadable.
func readRecord(backupFilePath string) (*Record, error) {
	info, err := os.Stat(backupFilePath)
	if err != nil {
		return nil, fmt.Errorf("stat backup %s: %w", backupFilePath, err)
	}

	name := filepath.Base(backupFilePath)
	rec := &Record{
		BackupPath:   backupFilePath,
		BackupSize:   info.Size(),
		OriginalSize: info.Size(),
		Kind:         parseKindFromName(name),
	}
	if ts, ok := parseTimestamp(name); ok {
		rec.Timestamp = ts
	} else {
		rec.Timestamp = info.ModTime()
	}
	rec.OriginalPath = originalNameFromBackup(name)

	data, err := os.ReadFile(metaPath(backupFilePath))
	if err != nil {
		return rec, nil // degrade to filename-derived fields
	}
	var m metaFile
	if err := json.Unmarshal(data, &m); err != nil {
		return rec, nil
	}

	rec.OriginalPath = m.OriginalPath
	rec.Kind = Kind(m.Type)
	if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
		rec.Timestamp = ts
	}
	rec.OriginalSize = m.FileSize
	rec.Description = m.Description
	rec.Checksum = m.Checksum
	rec.IsValid = m.IsValid
	return rec, nil
}
