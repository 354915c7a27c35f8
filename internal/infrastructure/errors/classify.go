package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ClassifyError maps driver and standard library errors onto an ErrorCode
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "database is busy"):
		return ErrCodeBusy
	case strings.Contains(msg, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return ErrCodeSchema
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "access denied"):
		return ErrCodePermission
	case strings.Contains(msg, "disk full"), strings.Contains(msg, "no space left"):
		return ErrCodeDiskSpace
	case strings.Contains(msg, "unable to open database"):
		return ErrCodeConnection
	case strings.Contains(msg, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapDatabaseError wraps err with its classification
func WrapDatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(op, err, ClassifyError(err))
}

// WrapDatabaseErrorWithContext wraps err with its classification and extra context
func WrapDatabaseErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	return NewStoreErrorWithContext(op, err, ClassifyError(err), contextMap)
}

// HandleNotFound creates a standardized not found error
func HandleNotFound(op string, resource string, identifier string) error {
	return NewStoreErrorWithContext(op, sql.ErrNoRows, ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleValidationError creates a standardized validation error
func HandleValidationError(op string, field string, value string, reason string) error {
	return NewStoreErrorWithContext(op, errors.New("validation failed"), ErrCodeValidation, map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	})
}

// HandleConnectionError creates a standardized connection error
func HandleConnectionError(op string, details string) error {
	return NewStoreErrorWithContext(op, errors.New("connection error"), ErrCodeConnection, map[string]string{
		"details": details,
	})
}
