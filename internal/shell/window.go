package shell

import (
	"context"
	"fmt"

	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Window is a borrowed handle to a framework window. Every mutator returns an
// error so callers can treat it as best-effort.
type Window interface {
	ID() string
	SetAlwaysOnTop(on bool) error
	SetBackgroundColour(r, g, b, a uint8) error
	Position() (x, y int, err error)
	SetPosition(x, y int) error
	Size() (width, height int, err error)
	SetSize(width, height int) error
	IsMaximised() (bool, error)
	Maximise() error
	Show() error
}

// Runtime is the framework surface the bootstrapper needs outside the run loop
type Runtime interface {
	// Window returns the handle of the window the framework created for id
	Window(ctx context.Context, id string) Window
	// Quit asks the run loop to stop
	Quit(ctx context.Context)
}

// WailsRuntime drives the Wails v2 runtime package
type WailsRuntime struct{}

func (WailsRuntime) Window(ctx context.Context, id string) Window {
	return &wailsWindow{ctx: ctx, id: id}
}

func (WailsRuntime) Quit(ctx context.Context) {
	wruntime.Quit(ctx)
}

// wailsWindow wraps the Wails single-window runtime calls. The Wails functions
// do not return errors; panics from the bridge are turned into errors.
type wailsWindow struct {
	ctx context.Context
	id  string
}

func guard(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", op, r)
		}
	}()
	fn()
	return nil
}

func (w *wailsWindow) ID() string { return w.id }

func (w *wailsWindow) SetAlwaysOnTop(on bool) error {
	return guard("WindowSetAlwaysOnTop", func() { wruntime.WindowSetAlwaysOnTop(w.ctx, on) })
}

func (w *wailsWindow) SetBackgroundColour(r, g, b, a uint8) error {
	return guard("WindowSetBackgroundColour", func() { wruntime.WindowSetBackgroundColour(w.ctx, r, g, b, a) })
}

func (w *wailsWindow) Position() (x, y int, err error) {
	err = guard("WindowGetPosition", func() { x, y = wruntime.WindowGetPosition(w.ctx) })
	return x, y, err
}

func (w *wailsWindow) SetPosition(x, y int) error {
	return guard("WindowSetPosition", func() { wruntime.WindowSetPosition(w.ctx, x, y) })
}

func (w *wailsWindow) Size() (width, height int, err error) {
	err = guard("WindowGetSize", func() { width, height = wruntime.WindowGetSize(w.ctx) })
	return width, height, err
}

func (w *wailsWindow) SetSize(width, height int) error {
	return guard("WindowSetSize", func() { wruntime.WindowSetSize(w.ctx, width, height) })
}

func (w *wailsWindow) IsMaximised() (maximised bool, err error) {
	err = guard("WindowIsMaximised", func() { maximised = wruntime.WindowIsMaximised(w.ctx) })
	return maximised, err
}

func (w *wailsWindow) Maximise() error {
	return guard("WindowMaximise", func() { wruntime.WindowMaximise(w.ctx) })
}

func (w *wailsWindow) Show() error {
	return guard("WindowShow", func() { wruntime.WindowShow(w.ctx) })
}
