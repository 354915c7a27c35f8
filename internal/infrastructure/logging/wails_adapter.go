package logging

import (
	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
)

var _ wailslogger.Logger = (*WailsLoggerAdapter)(nil)

// WailsLoggerAdapter routes framework output through our structured logger.
// It is installed as options.App.Logger so runtime and webview messages share
// the same JSON line format as the shell.
type WailsLoggerAdapter struct {
	logger Logger
}

// NewWailsLoggerAdapter creates a new adapter; a nil logger falls back to the default one
func NewWailsLoggerAdapter(logger Logger) *WailsLoggerAdapter {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{logger: logger}
}

// Print logs a message at INFO level (Wails general output)
func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message, "source", "wails")
}

// Trace logs a message at DEBUG level
func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message, "source", "wails", "level", "trace")
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message, "source", "wails")
}

// Fatal is logged at ERROR level; the shell decides whether the process exits
func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "source", "wails", "level", "fatal")
}
