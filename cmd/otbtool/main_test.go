package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ernie/otbcore/internal/otb"
)

func writeTestOTB(t *testing.T, path string) {
	t.Helper()
	list := otb.NewServerItemList()
	list.Version = otb.VersionInfo{Major: 3, Minor: 60, Build: 1}
	require.NoError(t, list.Add(&otb.ServerItem{ServerID: 100, ClientID: 100, Type: otb.TypeGround, Name: "grass"}))
	require.NoError(t, otb.Write(path, list, otb.WriteOptions{}))
}

func TestRunReadSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.otb")
	writeTestOTB(t, path)

	require.Equal(t, exitOK, run([]string{"read", path}))
}

func TestRunReadMissingFile(t *testing.T) {
	code := run([]string{"read", filepath.Join(t.TempDir(), "nope.otb")})
	require.Equal(t, exitFileError, code)
}

func TestRunValidateReportsValidationExitCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.otb")
	require.NoError(t, os.WriteFile(path, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0o644))

	code := run([]string{"validate", path, "--level=basic"})
	require.Equal(t, exitValidation, code)
}

func TestRunBackupCreateListRestore(t *testing.T) {
	srcDir := t.TempDir()
	backupDir := filepath.Join(t.TempDir(), "backups")
	path := filepath.Join(srcDir, "items.otb")
	writeTestOTB(t, path)

	require.Equal(t, exitOK, run([]string{"backup", "create", path, "--dir=" + backupDir}))
	require.Equal(t, exitOK, run([]string{"backup", "list", path, "--dir=" + backupDir}))

	require.NoError(t, os.Remove(path))
	require.Equal(t, exitOK, run([]string{"backup", "restore", path, "--dir=" + backupDir}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestRunWriteFromJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "items.json")
	outPath := filepath.Join(dir, "out.otb")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"version": {"major": 3, "minor": 60, "build": 1},
		"items": [{"serverId": 1, "clientId": 1, "type": "ground", "name": "grass"}]
	}`), 0o644))

	require.Equal(t, exitOK, run([]string{"write", jsonPath, outPath}))

	result, err := otb.Read(outPath, otb.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.List.Len())
}

func TestUnknownCommand(t *testing.T) {
	require.Equal(t, exitInternal, run([]string{"bogus"}))
}
