package testutils

import (
	"context"
	"sync"
)

// FakeWindow is an in-memory window handle. It satisfies shell.Window and
// records every mutation. Set the *Err fields to make calls fail.
type FakeWindow struct {
	mu sync.Mutex

	WindowID    string
	X, Y        int
	Width       int
	Height      int
	Maximised   bool
	AlwaysOnTop bool
	Visible     bool
	Background  [4]uint8

	AlwaysOnTopErr error
	BackgroundErr  error
	GeometryErr    error
	ShowErr        error

	Calls []string
}

// NewFakeWindow returns a visible 400x300 window at the origin
func NewFakeWindow(id string) *FakeWindow {
	return &FakeWindow{WindowID: id, Width: 400, Height: 300, Visible: true}
}

func (w *FakeWindow) call(name string) {
	w.Calls = append(w.Calls, name)
}

func (w *FakeWindow) ID() string { return w.WindowID }

func (w *FakeWindow) SetAlwaysOnTop(on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.call("SetAlwaysOnTop")
	if w.AlwaysOnTopErr != nil {
		return w.AlwaysOnTopErr
	}
	w.AlwaysOnTop = on
	return nil
}

func (w *FakeWindow) SetBackgroundColour(r, g, b, a uint8) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.call("SetBackgroundColour")
	if w.BackgroundErr != nil {
		return w.BackgroundErr
	}
	w.Background = [4]uint8{r, g, b, a}
	return nil
}

func (w *FakeWindow) Position() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.GeometryErr != nil {
		return 0, 0, w.GeometryErr
	}
	return w.X, w.Y, nil
}

func (w *FakeWindow) SetPosition(x, y int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.call("SetPosition")
	if w.GeometryErr != nil {
		return w.GeometryErr
	}
	w.X, w.Y = x, y
	return nil
}

func (w *FakeWindow) Size() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.GeometryErr != nil {
		return 0, 0, w.GeometryErr
	}
	return w.Width, w.Height, nil
}

func (w *FakeWindow) SetSize(width, height int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.call("SetSize")
	if w.GeometryErr != nil {
		return w.GeometryErr
	}
	w.Width, w.Height = width, height
	return nil
}

func (w *FakeWindow) IsMaximised() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.GeometryErr != nil {
		return false, w.GeometryErr
	}
	return w.Maximised, nil
}

func (w *FakeWindow) Maximise() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.call("Maximise")
	if w.GeometryErr != nil {
		return w.GeometryErr
	}
	w.Maximised = true
	return nil
}

func (w *FakeWindow) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.call("Show")
	if w.ShowErr != nil {
		return w.ShowErr
	}
	w.Visible = true
	return nil
}

// Called reports whether name was called at least once
func (w *FakeWindow) Called(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.Calls {
		if c == name {
			return true
		}
	}
	return false
}

// FakeRuntime hands out FakeWindows by id and records Quit requests.
// It satisfies shell.Runtime once wrapped by the caller's adapter.
type FakeRuntime struct {
	mu      sync.Mutex
	Windows map[string]*FakeWindow
	Quits   int
}

// NewFakeRuntime returns a runtime with no windows created yet
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{Windows: make(map[string]*FakeWindow)}
}

// FakeWindowFor returns the window for id, creating it on first use
func (r *FakeRuntime) FakeWindowFor(_ context.Context, id string) *FakeWindow {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.Windows[id]; ok {
		return w
	}
	w := NewFakeWindow(id)
	r.Windows[id] = w
	return w
}

func (r *FakeRuntime) Quit(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Quits++
}

// QuitCount returns how many times Quit was requested
func (r *FakeRuntime) QuitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Quits
}
