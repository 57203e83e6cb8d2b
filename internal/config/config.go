// Package config loads the read-only policy settings that drive backup
// retention, validation, and auto-save behavior. The core packages never
// read this state ambiently; a Settings value is constructed once by the
// caller and passed down explicitly.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the typed form of the enumerated option names a caller
// (CLI or embedding host) may configure.
type Settings struct {
	BackupDir                string `yaml:"backup_dir"`
	MaxBackupsPerFile        int    `yaml:"max_backups_per_file"`
	MaxBackupAgeDays         int    `yaml:"max_backup_age_days"`
	MaxBackupStorageBytes    int64  `yaml:"max_backup_storage_bytes"`
	VerifyIntegrityOnCreate  bool   `yaml:"verify_integrity_on_create"`
	VerifyIntegrityOnRestore bool   `yaml:"verify_integrity_on_restore"`
	ValidateOnOpen           bool   `yaml:"validate_on_open"`
	ValidateOnSave           bool   `yaml:"validate_on_save"`
	CreateBackupOnSave       bool   `yaml:"create_backup_on_save"`
	AutoSaveEnabled          bool   `yaml:"auto_save_enabled"`
	AutoSaveIntervalSeconds  int    `yaml:"auto_save_interval_seconds"`
}

// Defaults returns the settings a fresh installation starts with.
func Defaults() Settings {
	return Settings{
		BackupDir:                "backups",
		MaxBackupsPerFile:        10,
		MaxBackupAgeDays:         30,
		MaxBackupStorageBytes:    1 << 30, // 1 GiB
		VerifyIntegrityOnCreate:  true,
		VerifyIntegrityOnRestore: true,
		ValidateOnOpen:           true,
		ValidateOnSave:           true,
		CreateBackupOnSave:       true,
		AutoSaveEnabled:          false,
		AutoSaveIntervalSeconds:  300,
	}
}

// MaxBackupAge converts MaxBackupAgeDays to a time.Duration for direct
// use against backup.RetentionPolicy.
func (s Settings) MaxBackupAge() time.Duration {
	return time.Duration(s.MaxBackupAgeDays) * 24 * time.Hour
}

// Load reads a YAML settings document from path, applying it on top of
// Defaults so a partial document only overrides what it names.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path as a YAML document.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
