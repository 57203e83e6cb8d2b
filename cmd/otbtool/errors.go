package main

import (
	"errors"
	"os"

	"github.com/ernie/otbcore/internal/backup"
	"github.com/ernie/otbcore/internal/otb"
)

// exitError lets a subcommand pin its own exit code directly, for
// failure modes (like a failed validation run) that aren't carried by a
// typed core error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// categorize maps a returned error to the exit code its category owns:
// file=2, validation=3, internal=4.
func categorize(err error) int {
	if err == nil {
		return exitOK
	}

	var pinned *exitError
	if errors.As(err, &pinned) {
		return pinned.code
	}

	if os.IsNotExist(err) || os.IsPermission(err) {
		return exitFileError
	}

	var otbErr *otb.Error
	if errors.As(err, &otbErr) {
		switch otbErr.Kind {
		case otb.KindFileNotFound, otb.KindFileAccessDenied, otb.KindFileTooBig:
			return exitFileError
		case otb.KindAttributeValidationFailed, otb.KindInvalidItemData, otb.KindNodeStructureInvalid,
			otb.KindDuplicateItemID, otb.KindTooManyItems, otb.KindEmptyItemRange:
			return exitValidation
		default:
			return exitInternal
		}
	}

	var backupErr *backup.Error
	if errors.As(err, &backupErr) {
		switch backupErr.Kind {
		case backup.KindSourceUnreadable, backup.KindNoBackupFound:
			return exitFileError
		case backup.KindIntegrityMismatch, backup.KindBackupCorrupted:
			return exitValidation
		default:
			return exitInternal
		}
	}

	return exitInternal
}
