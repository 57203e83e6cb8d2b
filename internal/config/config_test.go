package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, Save(path, Settings{
		BackupDir:         "/var/otbcore/backups",
		MaxBackupsPerFile: 5,
	}))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/otbcore/backups", loaded.BackupDir)
	require.Equal(t, 5, loaded.MaxBackupsPerFile)
}

func TestMaxBackupAgeConversion(t *testing.T) {
	s := Settings{MaxBackupAgeDays: 7}
	require.Equal(t, 7*24*time.Hour, s.MaxBackupAge())
}

func TestDefaultsAreValid(t *testing.T) {
	d := Defaults()
	require.NotEmpty(t, d.BackupDir)
	require.Greater(t, d.MaxBackupsPerFile, 0)
}
