package shell

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"overlayshell/internal/config"
	"overlayshell/internal/infrastructure/logging"
	"overlayshell/internal/platform"
)

// pluginTimeout bounds each plugin hook so a stuck store cannot hold the window open
const pluginTimeout = 5 * time.Second

// RunFunc enters the framework run loop and blocks until it exits
type RunFunc func(app *options.App) error

// ReadyFunc is called at the end of the setup hook with the framework context
type ReadyFunc func(ctx context.Context)

// shortcutMenuLabel names the submenu carrying registered shortcuts
const shortcutMenuLabel = "Overlay"

// Shortcut is a keyboard accelerator delivered through the application menu
type Shortcut struct {
	Label       string
	Accelerator *keys.Accelerator
	Action      func()
}

// Bootstrapper builds the application options, attaches plugins, styles the
// main window once in the setup hook and runs the framework loop.
type Bootstrapper struct {
	cfg      *config.Config
	logger   logging.Logger
	caps     platform.Capabilities
	strategy platform.TitleBarStrategy
	assets   fs.FS
	runtime  Runtime
	run      RunFunc

	mu       sync.Mutex
	state    State
	running  bool
	plugins   []Plugin
	shortcuts []Shortcut
	bindings  []interface{}
	ready    []ReadyFunc
	windows  map[string]Window
	main     Window
	setupErr error
	app      *options.App
}

// Option customises a Bootstrapper
type Option func(*Bootstrapper)

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(b *Bootstrapper) { b.logger = logger }
}

// WithAssets sets the frontend assets served to the webview
func WithAssets(assets fs.FS) Option {
	return func(b *Bootstrapper) { b.assets = assets }
}

// WithRuntime replaces the Wails runtime bridge
func WithRuntime(rt Runtime) Option {
	return func(b *Bootstrapper) { b.runtime = rt }
}

// WithRunner replaces wails.Run
func WithRunner(run RunFunc) Option {
	return func(b *Bootstrapper) { b.run = run }
}

// WithCapabilities replaces platform.Detect
func WithCapabilities(caps platform.Capabilities) Option {
	return func(b *Bootstrapper) { b.caps = caps }
}

// New creates a bootstrapper. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) *Bootstrapper {
	if cfg == nil {
		cfg = config.Default()
	}

	b := &Bootstrapper{
		cfg:     cfg,
		runtime: WailsRuntime{},
		run:     wails.Run,
		windows: make(map[string]Window),
		state:   StateUninitialized,
	}
	b.caps = platform.Detect()

	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewLogger(cfg.LogLevel)
	}

	b.strategy = platform.StrategyFor(platform.ResolveTitleBarStyle(cfg.TitleBarPreference(), b.caps))
	return b
}

// Attach registers a plugin. Plugins run in registration order.
func (b *Bootstrapper) Attach(p Plugin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return fmt.Errorf("attach plugin %s: %w", p.Name(), ErrAlreadyRunning)
	}
	b.plugins = append(b.plugins, p)
	b.logger.Debug("Plugin attached", "plugin", p.Name())
	return nil
}

// AddShortcut registers a menu accelerator. Shortcuts must be added before
// Build.
func (b *Bootstrapper) AddShortcut(s Shortcut) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.Accelerator == nil || s.Action == nil {
		return fmt.Errorf("shortcut %q: accelerator and action are required", s.Label)
	}
	if b.app != nil || b.running {
		return fmt.Errorf("add shortcut %q: %w", s.Label, ErrAlreadyRunning)
	}
	b.shortcuts = append(b.shortcuts, s)
	return nil
}

// Bind exposes a struct's exported methods to the frontend
func (b *Bootstrapper) Bind(v interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings = append(b.bindings, v)
}

// OnReady registers a callback run at the end of the setup hook
func (b *Bootstrapper) OnReady(fn ReadyFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready = append(b.ready, fn)
}

// State returns the current lifecycle state
func (b *Bootstrapper) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// TitleBarStyle returns the style chosen for this platform
func (b *Bootstrapper) TitleBarStyle() platform.TitleBarStyle {
	return b.strategy.Style()
}

// Capabilities returns the platform capabilities the bootstrapper resolved against
func (b *Bootstrapper) Capabilities() platform.Capabilities {
	return b.caps
}

// Build validates the configuration and produces the framework options
func (b *Bootstrapper) Build() (*options.App, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.app != nil {
		return b.app, nil
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shell configuration: %w", err)
	}

	primary := b.cfg.PrimaryWindow()
	translucent := primary.Background.A < 255
	for _, w := range b.cfg.Windows[1:] {
		b.logger.Warn("Window declaration ignored, only the first window is created", "window_id", w.ID)
	}

	level := wailsLogLevel(b.cfg.LogLevel)
	app := &options.App{
		Title:            primary.Title,
		Width:            primary.Width,
		Height:           primary.Height,
		MinWidth:         primary.MinWidth,
		MinHeight:        primary.MinHeight,
		MaxWidth:         primary.MaxWidth,
		MaxHeight:        primary.MaxHeight,
		DisableResize:    false,
		Fullscreen:       false,
		Frameless:        primary.Frameless,
		StartHidden:      primary.StartHidden,
		AlwaysOnTop:      primary.AlwaysOnTop,
		BackgroundColour: &options.RGBA{R: primary.Background.R, G: primary.Background.G, B: primary.Background.B, A: primary.Background.A},
		AssetServer: &assetserver.Options{
			Assets: b.assets,
		},
		Logger:             logging.NewWailsLoggerAdapter(b.logger),
		LogLevel:           level,
		LogLevelProduction: level,
		OnStartup:          b.setup,
		OnBeforeClose:      b.beforeClose,
		OnShutdown:         b.shutdown,
		WindowStartState:   options.Normal,
		Bind:               append([]interface{}(nil), b.bindings...),
		Windows: &windows.Options{
			WebviewIsTransparent: translucent,
			WindowIsTranslucent:  translucent,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: translucent,
			ProgramName:         "overlayshell",
		},
	}

	if id := b.cfg.SingleInstanceID; id != "" {
		app.SingleInstanceLock = &options.SingleInstanceLock{
			UniqueId: id,
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				b.logger.Info("Second instance launch ignored", "args", data.Args, "working_directory", data.WorkingDirectory)
			},
		}
	}

	if len(b.shortcuts) > 0 {
		app.Menu = b.shortcutMenu()
	}

	b.strategy.Configure(app)

	b.app = app
	b.state = StateBuilt
	b.logger.Debug("Application options built",
		"window_id", primary.ID,
		"title_bar_style", b.strategy.Style().String(),
		"plugins", len(b.plugins))
	return app, nil
}

// Run builds the options if needed and blocks in the framework run loop.
// It returns nil when the window was closed normally.
func (b *Bootstrapper) Run() error {
	app, err := b.Build()
	if err != nil {
		return err
	}

	if !b.caps.DisplayAvailable {
		return fmt.Errorf("%w: %s", ErrDisplayUnavailable, b.caps.DisplayReason)
	}

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.running = true
	b.mu.Unlock()

	b.logger.Info("Starting shell",
		"os", b.caps.OS,
		"os_version", b.caps.OSVersion,
		"title_bar_style", b.strategy.Style().String())

	runErr := b.run(app)

	b.mu.Lock()
	setupErr := b.setupErr
	b.state = StateTerminated
	b.mu.Unlock()

	if setupErr != nil {
		return fmt.Errorf("startup aborted: %w", setupErr)
	}
	if runErr != nil {
		return fmt.Errorf("run loop failed: %w", runErr)
	}

	b.logger.Info("Shell exited")
	return nil
}

// setup is the framework's OnStartup hook. It runs once, after the window
// exists and before events are dispatched.
func (b *Bootstrapper) setup(ctx context.Context) {
	b.mu.Lock()
	if b.state >= StateWindowCreated {
		b.mu.Unlock()
		b.logger.Warn("Setup hook fired twice, ignoring")
		return
	}
	primary := b.cfg.PrimaryWindow()
	b.windows[primary.ID] = b.runtime.Window(ctx, primary.ID)
	b.state = StateWindowCreated
	b.mu.Unlock()

	mainID := b.cfg.MainWindowID
	win, ok := b.lookup(mainID)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrMainWindowNotFound, mainID)
		b.mu.Lock()
		b.setupErr = err
		b.mu.Unlock()
		b.logger.Error("Main window missing, aborting startup", "window_id", mainID, "declared", primary.ID)
		b.runtime.Quit(ctx)
		return
	}

	for _, p := range b.pluginsSnapshot() {
		pctx, cancel := context.WithTimeout(ctx, pluginTimeout)
		if err := p.Startup(pctx, win); err != nil {
			b.logger.Warn("Plugin startup failed", "plugin", p.Name(), "error", err)
		}
		cancel()
	}

	logging.LogDiscarded(b.logger, win.SetAlwaysOnTop(true), "set_always_on_top", "window_id", mainID)
	for _, err := range b.strategy.Apply(win) {
		logging.LogDiscarded(b.logger, err, "apply_title_bar_style",
			"window_id", mainID, "style", b.strategy.Style().String())
	}

	b.mu.Lock()
	b.main = win
	b.state = StateStyled
	ready := append([]ReadyFunc(nil), b.ready...)
	b.mu.Unlock()

	if declared, _ := b.cfg.Window(mainID); declared.StartHidden {
		logging.LogDiscarded(b.logger, win.Show(), "show_window", "window_id", mainID)
	}

	for _, fn := range ready {
		fn(ctx)
	}

	b.mu.Lock()
	b.state = StateRunning
	b.mu.Unlock()
	b.logger.Info("Main window ready", "window_id", mainID, "title_bar_style", b.strategy.Style().String())
}

// beforeClose gives plugins a last look at the window; closing is never prevented
func (b *Bootstrapper) beforeClose(ctx context.Context) (prevent bool) {
	b.mu.Lock()
	win := b.main
	b.mu.Unlock()
	if win == nil {
		return false
	}

	for _, p := range b.pluginsSnapshot() {
		pctx, cancel := context.WithTimeout(ctx, pluginTimeout)
		if err := p.BeforeClose(pctx, win); err != nil {
			b.logger.Warn("Plugin before-close failed", "plugin", p.Name(), "error", err)
		}
		cancel()
	}
	return false
}

// shutdown is the framework's OnShutdown hook
func (b *Bootstrapper) shutdown(ctx context.Context) {
	for _, p := range b.pluginsSnapshot() {
		pctx, cancel := context.WithTimeout(ctx, pluginTimeout)
		if err := p.Shutdown(pctx); err != nil {
			b.logger.Warn("Plugin shutdown failed", "plugin", p.Name(), "error", err)
		}
		cancel()
	}

	b.mu.Lock()
	b.main = nil
	b.state = StateTerminated
	b.mu.Unlock()
}

// shortcutMenu builds the application menu. On macOS a custom menu replaces
// the default one, so the standard app and edit menus are kept in front.
func (b *Bootstrapper) shortcutMenu() *menu.Menu {
	m := menu.NewMenu()
	if b.caps.OS == "darwin" {
		m.Append(menu.AppMenu())
		m.Append(menu.EditMenu())
	}

	sub := m.AddSubmenu(shortcutMenuLabel)
	for _, s := range b.shortcuts {
		action := s.Action
		sub.AddText(s.Label, s.Accelerator, func(*menu.CallbackData) { action() })
	}
	return m
}

func (b *Bootstrapper) lookup(id string) (Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	win, ok := b.windows[id]
	return win, ok
}

func (b *Bootstrapper) pluginsSnapshot() []Plugin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Plugin(nil), b.plugins...)
}

func wailsLogLevel(level string) wailslogger.LogLevel {
	lvl, _ := logging.ParseLevel(level)
	switch lvl {
	case logging.LevelDebug:
		return wailslogger.DEBUG
	case logging.LevelWarn:
		return wailslogger.WARNING
	case logging.LevelError:
		return wailslogger.ERROR
	default:
		return wailslogger.INFO
	}
}
