package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/ernie/otbcore/internal/backup"
)

func runBackup(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: otbtool backup create|list|restore <path> [flags]")
		return exitInternal
	}

	sub, rest := args[0], args[1:]
	var err error
	switch sub {
	case "create":
		err = runBackupCreate(rest)
	case "list":
		err = runBackupList(rest)
	case "restore":
		err = runBackupRestore(rest)
	default:
		fmt.Fprintf(os.Stderr, "otbtool backup: unknown subcommand %q\n", sub)
		return exitInternal
	}

	if err == nil {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, "otbtool:", err)
	return categorize(err)
}

func runBackupCreate(args []string) error {
	fs := pflag.NewFlagSet("backup create", pflag.ContinueOnError)
	dir := fs.String("dir", "backups", "backup directory")
	kindName := fs.String("kind", "manual", "manual|auto|presave|premod|crash|checkpoint")
	desc := fs.String("desc", "", "backup description")
	verify := fs.Bool("verify", true, "verify integrity after writing the backup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: otbtool backup create <path> [--dir=DIR] [--kind=KIND] [--desc=TEXT]")
	}

	kind, ok := parseBackupKind(*kindName)
	if !ok {
		return fmt.Errorf("unknown backup kind %q", *kindName)
	}

	rec, err := backup.Create(fs.Arg(0), *dir, kind, *desc, backup.Options{VerifyIntegrityOnCreate: *verify})
	if err != nil {
		return err
	}
	fmt.Printf("created backup %s (id=%s)\n", rec.BackupPath, rec.BackupID)
	return nil
}

func runBackupList(args []string) error {
	fs := pflag.NewFlagSet("backup list", pflag.ContinueOnError)
	dir := fs.String("dir", "backups", "backup directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: otbtool backup list <path> [--dir=DIR]")
	}

	records, err := backup.ForOriginal(*dir, fs.Arg(0))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no backups found")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-10s  %s\n", r.Timestamp.Format(time.RFC3339), r.Kind, r.BackupPath)
	}
	return nil
}

func runBackupRestore(args []string) error {
	fs := pflag.NewFlagSet("backup restore", pflag.ContinueOnError)
	dir := fs.String("dir", "backups", "backup directory")
	timestamp := fs.String("timestamp", "", "restore the backup recorded at this RFC3339 timestamp (default: latest)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: otbtool backup restore <path> [--dir=DIR] [--timestamp=RFC3339]")
	}
	path := fs.Arg(0)

	var rec *backup.Record
	var err error
	if *timestamp == "" {
		rec, err = backup.RestoreLatest(*dir, path, backup.Options{})
	} else {
		ts, perr := time.Parse(time.RFC3339, *timestamp)
		if perr != nil {
			return fmt.Errorf("invalid --timestamp: %w", perr)
		}
		rec, err = backup.RestoreByTimestamp(*dir, path, ts, backup.Options{})
	}
	if err != nil {
		return err
	}
	fmt.Printf("restored %s from %s\n", path, rec.BackupPath)
	return nil
}

func parseBackupKind(s string) (backup.Kind, bool) {
	switch s {
	case "manual":
		return backup.Manual, true
	case "auto":
		return backup.Automatic, true
	case "presave":
		return backup.PreSave, true
	case "premod":
		return backup.PreModification, true
	case "crash":
		return backup.CrashRecovery, true
	case "checkpoint":
		return backup.Checkpoint, true
	default:
		return backup.Manual, false
	}
}
