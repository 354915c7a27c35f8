package shell

import "context"

// Plugin hooks into the main window's lifecycle. Errors are logged by the
// bootstrapper and never abort startup or shutdown.
type Plugin interface {
	Name() string
	// Startup runs once the main window exists, before it is styled
	Startup(ctx context.Context, win Window) error
	// BeforeClose runs when the user closes the main window
	BeforeClose(ctx context.Context, win Window) error
	// Shutdown runs after the run loop has stopped dispatching events
	Shutdown(ctx context.Context) error
}
