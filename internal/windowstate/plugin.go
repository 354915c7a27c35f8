package windowstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"

	"overlayshell/internal/infrastructure/logging"
	"overlayshell/internal/shell"
)

// DefaultSnapshotDelay is how long Snapshot waits for calls to settle before saving
const DefaultSnapshotDelay = 500 * time.Millisecond

// Options configures the plugin
type Options struct {
	Flags         StateFlags
	SnapshotDelay time.Duration
	SaveTimeout   time.Duration
}

// DefaultOptions saves and restores everything
func DefaultOptions() Options {
	return Options{
		Flags:         FlagsAll,
		SnapshotDelay: DefaultSnapshotDelay,
		SaveTimeout:   2 * time.Second,
	}
}

// Plugin restores the main window's geometry on startup and saves it when the
// window closes. A nil or failing store disables persistence without
// affecting the window.
type Plugin struct {
	store  Store
	opts   Options
	logger logging.Logger

	debounced func(func())
	saveMu    sync.Mutex // serialises store writes and Close

	mu     sync.Mutex
	window shell.Window
	normal Geometry // last geometry observed while not maximised
	closed bool
}

var _ shell.Plugin = (*Plugin)(nil)

// NewPlugin creates the window-state plugin. store may be nil.
func NewPlugin(store Store, opts Options, logger logging.Logger) *Plugin {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	defaults := DefaultOptions()
	if opts.Flags == 0 {
		opts.Flags = defaults.Flags
	}
	if opts.SnapshotDelay <= 0 {
		opts.SnapshotDelay = defaults.SnapshotDelay
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaults.SaveTimeout
	}

	return &Plugin{
		store:     store,
		opts:      opts,
		logger:    logger,
		debounced: debounce.New(opts.SnapshotDelay),
	}
}

func (p *Plugin) Name() string { return "window-state" }

// Startup restores the saved geometry for win
func (p *Plugin) Startup(ctx context.Context, win shell.Window) error {
	p.mu.Lock()
	p.window = win
	p.mu.Unlock()

	if p.store == nil {
		p.logger.Warn("Window state store unavailable, geometry will not persist", "window_id", win.ID())
		return nil
	}

	g, err := p.store.Load(ctx, win.ID())
	if errors.Is(err, ErrNoState) {
		p.logger.Debug("No saved window state", "window_id", win.ID())
		p.rememberNormal(win)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load window state: %w", err)
	}
	if !g.Valid() {
		p.logger.Warn("Ignoring invalid saved window state", "window_id", win.ID(), "geometry", g.String())
		return nil
	}

	p.mu.Lock()
	p.normal = g
	p.normal.Maximised = false
	p.mu.Unlock()

	var failed []error
	if p.opts.Flags.Has(FlagSize) {
		if err := win.SetSize(g.Width, g.Height); err != nil {
			failed = append(failed, err)
		}
	}
	if p.opts.Flags.Has(FlagPosition) {
		if err := win.SetPosition(g.X, g.Y); err != nil {
			failed = append(failed, err)
		}
	}
	if p.opts.Flags.Has(FlagMaximised) && g.Maximised {
		if err := win.Maximise(); err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("restore window state: %w", errors.Join(failed...))
	}

	p.logger.Info("Restored window state", "window_id", win.ID(), "geometry", g.String())
	return nil
}

// BeforeClose saves the geometry synchronously. Pending snapshots are
// superseded.
func (p *Plugin) BeforeClose(ctx context.Context, win shell.Window) error {
	p.debounced(func() {})
	err := p.save(ctx, win)

	p.mu.Lock()
	p.closed = true
	p.window = nil
	p.mu.Unlock()
	return err
}

// Shutdown closes the store
func (p *Plugin) Shutdown(context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.window = nil
	p.mu.Unlock()

	if p.store == nil {
		return nil
	}
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	if err := p.store.Close(); err != nil {
		return fmt.Errorf("close window state store: %w", err)
	}
	return nil
}

// Snapshot schedules a save of the current geometry. Bursts of calls within
// the snapshot delay collapse into one write. The save runs on the debounce
// timer goroutine, outside the framework callbacks.
func (p *Plugin) Snapshot() {
	p.debounced(func() {
		p.mu.Lock()
		win := p.window
		p.mu.Unlock()
		if win == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.opts.SaveTimeout)
		defer cancel()
		if err := p.save(ctx, win); err != nil {
			p.logger.Warn("Window state snapshot failed", "window_id", win.ID(), "error", err)
		}
	})
}

// Current reads the window's geometry. While maximised the frame reported is
// the last normal one, with Maximised set.
func (p *Plugin) Current(win shell.Window) (Geometry, error) {
	maximised, err := win.IsMaximised()
	if err != nil {
		return Geometry{}, err
	}
	if !maximised {
		return p.rememberNormal(win)
	}

	p.mu.Lock()
	g := p.normal
	p.mu.Unlock()
	if !g.Valid() {
		// never seen un-maximised: fall back to the maximised frame
		if g, err = readFrame(win); err != nil {
			return Geometry{}, err
		}
	}
	g.Maximised = true
	return g, nil
}

func (p *Plugin) save(ctx context.Context, win shell.Window) error {
	if p.store == nil || win == nil {
		return nil
	}

	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil
	}

	g, err := p.Current(win)
	if err != nil {
		return fmt.Errorf("read window geometry: %w", err)
	}

	// keep what is not tracked from the previous save
	if p.opts.Flags != FlagsAll {
		prev, loadErr := p.store.Load(ctx, win.ID())
		if loadErr == nil {
			g = mergeFlags(prev, g, p.opts.Flags)
		}
	}

	if err := p.store.Save(ctx, win.ID(), g); err != nil {
		return fmt.Errorf("save window state: %w", err)
	}
	p.logger.Debug("Saved window state", "window_id", win.ID(), "geometry", g.String())
	return nil
}

func (p *Plugin) rememberNormal(win shell.Window) (Geometry, error) {
	g, err := readFrame(win)
	if err != nil {
		return Geometry{}, err
	}
	p.mu.Lock()
	p.normal = g
	p.mu.Unlock()
	return g, nil
}

func readFrame(win shell.Window) (Geometry, error) {
	x, y, err := win.Position()
	if err != nil {
		return Geometry{}, err
	}
	w, h, err := win.Size()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{X: x, Y: y, Width: w, Height: h}, nil
}

// mergeFlags takes the tracked parts from next and the rest from prev
func mergeFlags(prev, next Geometry, flags StateFlags) Geometry {
	out := prev
	if flags.Has(FlagPosition) {
		out.X, out.Y = next.X, next.Y
	}
	if flags.Has(FlagSize) {
		out.Width, out.Height = next.Width, next.Height
	}
	if flags.Has(FlagMaximised) {
		out.Maximised = next.Maximised
	}
	return out
}
