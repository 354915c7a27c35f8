package errors

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// classifySQLiteError inspects a sqlite3.Error's extended and base codes.
// Non-driver errors return ErrCodeUnknown.
func classifySQLiteError(err error) ErrorCode {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return ErrCodeUnknown
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey,
		sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
		// window_state upserts should never hit these; treat as a bad row
		return ErrCodeValidation
	case sqlite3.ErrBusyRecovery, sqlite3.ErrBusySnapshot:
		return ErrCodeBusy
	}

	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		return ErrCodeValidation

	// Database corruption
	case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
		return ErrCodeCorruption

	// Permission and access errors
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return ErrCodePermission

	// Connection and I/O errors
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return ErrCodeBusy
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
		return ErrCodeConnection

	// Disk space errors
	case sqlite3.ErrFull:
		return ErrCodeDiskSpace

	// API misuse errors
	case sqlite3.ErrMisuse:
		return ErrCodeInternal

	// Migration problems
	case sqlite3.ErrSchema:
		return ErrCodeSchema

	default:
		return ErrCodeUnknown
	}
}
