package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"overlayshell/internal/infrastructure/logging"
	"overlayshell/internal/overlay"
	"overlayshell/internal/platform"
	"overlayshell/internal/shell"
)

// ShellSource reports the running shell's lifecycle and platform choices
type ShellSource interface {
	State() shell.State
	TitleBarStyle() platform.TitleBarStyle
	Capabilities() platform.Capabilities
}

// Snapshotter schedules a window-state save
type Snapshotter interface {
	Snapshot()
}

// ClipboardFunc writes text to the system clipboard
type ClipboardFunc func(ctx context.Context, text string) error

// EmitterFactory builds the frontend event emitter for the framework context
type EmitterFactory func(ctx context.Context) overlay.Emitter

// ShellInfo is what the frontend learns about the window it runs in
type ShellInfo struct {
	State           string `json:"state"`
	TitleBarStyle   string `json:"titleBarStyle"`
	OS              string `json:"os"`
	OSVersion       string `json:"osVersion"`
	OverlayTitleBar bool   `json:"overlayTitleBar"`
}

// App struct is bound to the frontend
type App struct {
	mu  sync.RWMutex
	ctx context.Context

	overlay     *overlay.Store
	windowState Snapshotter
	shell       ShellSource
	clipboard   ClipboardFunc
	newEmitter  EmitterFactory
	logger      logging.Logger
}

// Option customises an App
type Option func(*App)

// WithClipboard replaces the Wails clipboard
func WithClipboard(fn ClipboardFunc) Option {
	return func(a *App) { a.clipboard = fn }
}

// WithEmitterFactory replaces the Wails event emitter
func WithEmitterFactory(fn EmitterFactory) Option {
	return func(a *App) { a.newEmitter = fn }
}

// NewApp creates the bound API. windowState and shell may be nil.
func NewApp(store *overlay.Store, windowState Snapshotter, shellSource ShellSource, logger logging.Logger, opts ...Option) *App {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if store == nil {
		store = overlay.NewStore(logger)
	}

	a := &App{
		overlay:     store,
		windowState: windowState,
		shell:       shellSource,
		clipboard:   wruntime.ClipboardSetText,
		newEmitter:  newWailsEmitter,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Startup is called once the main window is ready
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	a.overlay.SetEmitter(a.newEmitter(ctx))
	a.logger.Info("Overlay frontend bridge connected")
}

func (a *App) runtimeContext() (context.Context, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ctx == nil {
		return nil, fmt.Errorf("application not started")
	}
	return a.ctx, nil
}

// GetOverlayState returns the current overlay state
func (a *App) GetOverlayState() overlay.State {
	return a.overlay.Snapshot()
}

// SetConnected updates the connection indicator
func (a *App) SetConnected(connected bool) {
	a.overlay.SetConnected(connected)
}

// SetProfileName switches the active profile
func (a *App) SetProfileName(name string) error {
	return a.overlay.SetProfileName(name)
}

// PushTranscript appends a transcript line
func (a *App) PushTranscript(item overlay.TranscriptItem) (overlay.TranscriptItem, error) {
	return a.overlay.PushTranscript(item)
}

// PushSuggestion adds a suggestion in front of the others
func (a *App) PushSuggestion(item overlay.Suggestion) (overlay.Suggestion, error) {
	return a.overlay.PushSuggestion(item)
}

// ResetSession clears the transcript and suggestions
func (a *App) ResetSession() {
	a.overlay.Reset()
}

// CopySuggestion copies a suggestion's text to the clipboard. An empty id
// copies the newest one.
func (a *App) CopySuggestion(id string) error {
	ctx, err := a.runtimeContext()
	if err != nil {
		return err
	}

	var (
		sg overlay.Suggestion
		ok bool
	)
	if id == "" {
		sg, ok = a.overlay.Latest()
	} else {
		sg, ok = a.overlay.Suggestion(id)
	}
	if !ok {
		return fmt.Errorf("no suggestion to copy")
	}

	if err := a.clipboard(ctx, sg.Text); err != nil {
		logging.LogError(a.logger, err, "CopySuggestion", map[string]interface{}{
			"suggestion_id": sg.ID,
		})
		return fmt.Errorf("copy suggestion: %w", err)
	}
	a.logger.Debug("Suggestion copied", "suggestion_id", sg.ID)
	return nil
}

// CopyShortcut is Cmd/Ctrl+Shift+S, copying the newest suggestion like the
// overlay's Copy button.
func CopyShortcut(a *App) shell.Shortcut {
	return shell.Shortcut{
		Label:       "Copy Suggestion",
		Accelerator: keys.Combo("s", keys.CmdOrCtrlKey, keys.ShiftKey),
		Action: func() {
			if err := a.CopySuggestion(""); err != nil {
				a.logger.Debug("Copy shortcut ignored", "error", err)
			}
		},
	}
}

// SaveWindowState asks for the window geometry to be saved soon. Calls in
// quick succession are merged.
func (a *App) SaveWindowState() {
	if a.windowState == nil {
		return
	}
	a.windowState.Snapshot()
}

// GetShellInfo describes the running shell
func (a *App) GetShellInfo() ShellInfo {
	if a.shell == nil {
		return ShellInfo{State: shell.StateUninitialized.String(), TitleBarStyle: platform.TitleBarDefault.String()}
	}
	caps := a.shell.Capabilities()
	return ShellInfo{
		State:           a.shell.State().String(),
		TitleBarStyle:   a.shell.TitleBarStyle().String(),
		OS:              caps.OS,
		OSVersion:       caps.OSVersion,
		OverlayTitleBar: caps.OverlayTitleBar,
	}
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
