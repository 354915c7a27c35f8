package shell

import "errors"

var (
	// ErrMainWindowNotFound aborts startup when no window carries the configured main id
	ErrMainWindowNotFound = errors.New("main window not found")
	// ErrDisplayUnavailable aborts Run before the framework starts
	ErrDisplayUnavailable = errors.New("display server unavailable")
	// ErrAlreadyRunning is returned by Run and Attach once the run loop has been entered
	ErrAlreadyRunning = errors.New("shell already running")
)
