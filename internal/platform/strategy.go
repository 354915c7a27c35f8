package platform

import (
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
)

// TitleBarWindow is the part of a window handle a styling strategy touches
type TitleBarWindow interface {
	SetBackgroundColour(r, g, b, a uint8) error
}

// TitleBarStrategy styles the main window's title bar in two phases:
// Configure runs while the application options are built, Apply runs once in
// the setup hook. Apply reports failures instead of stopping; the caller
// decides what to do with them.
type TitleBarStrategy interface {
	Style() TitleBarStyle
	Configure(app *options.App)
	Apply(win TitleBarWindow) []error
}

// StrategyFor returns the strategy implementing style
func StrategyFor(style TitleBarStyle) TitleBarStrategy {
	if style == TitleBarOverlay {
		return OverlayStrategy{}
	}
	return DefaultStrategy{}
}

// OverlayStrategy draws content under a transparent title bar, keeping the
// window buttons.
type OverlayStrategy struct{}

func (OverlayStrategy) Style() TitleBarStyle { return TitleBarOverlay }

func (OverlayStrategy) Configure(app *options.App) {
	if app.Mac == nil {
		app.Mac = &mac.Options{}
	}
	app.Mac.TitleBar = &mac.TitleBar{
		TitlebarAppearsTransparent: true,
		HideTitle:                  false,
		HideTitleBar:               false,
		FullSizeContent:            true,
		UseToolbar:                 false,
		HideToolbarSeparator:       true,
	}
	app.Mac.WebviewIsTransparent = true
}

// Apply clears the window background so the transparent title bar shows the
// webview underneath. The configured background colour is replaced; the
// frontend draws its own backdrop.
func (OverlayStrategy) Apply(win TitleBarWindow) []error {
	if win == nil {
		return []error{fmt.Errorf("overlay title bar: no window")}
	}
	if err := win.SetBackgroundColour(0, 0, 0, 0); err != nil {
		return []error{fmt.Errorf("overlay title bar: transparent background: %w", err)}
	}
	return nil
}

// DefaultStrategy leaves the platform chrome untouched
type DefaultStrategy struct{}

func (DefaultStrategy) Style() TitleBarStyle { return TitleBarDefault }

func (DefaultStrategy) Configure(app *options.App) {}

func (DefaultStrategy) Apply(win TitleBarWindow) []error { return nil }
