// Package config loads the declarative shell configuration: the windows the
// framework creates, which one is the main window, how its title bar is styled
// and where window state is persisted.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"overlayshell/internal/infrastructure/logging"
	"overlayshell/internal/platform"
)

//go:embed shell.yaml
var defaultYAML []byte

// Environment variables read by FromEnvironment
const (
	EnvConfigFile  = "OVERLAYSHELL_CONFIG"
	EnvEnvironment = "OVERLAYSHELL_ENV"
	EnvLogLevel    = "OVERLAYSHELL_LOG_LEVEL"
	EnvMainWindow  = "OVERLAYSHELL_MAIN_WINDOW"
	EnvTitleBar    = "OVERLAYSHELL_TITLE_BAR"
	EnvStatePath   = "OVERLAYSHELL_STATE_PATH"
	EnvStartHidden = "OVERLAYSHELL_START_HIDDEN"
)

// RGBA is a background colour
type RGBA struct {
	R uint8 `yaml:"r" json:"r"`
	G uint8 `yaml:"g" json:"g"`
	B uint8 `yaml:"b" json:"b"`
	A uint8 `yaml:"a" json:"a"`
}

// WindowConfig declares one framework window
type WindowConfig struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
	MinWidth    int    `yaml:"minWidth" json:"minWidth"`
	MinHeight   int    `yaml:"minHeight" json:"minHeight"`
	MaxWidth    int    `yaml:"maxWidth" json:"maxWidth"`
	MaxHeight   int    `yaml:"maxHeight" json:"maxHeight"`
	Frameless   bool   `yaml:"frameless" json:"frameless"`
	StartHidden bool   `yaml:"startHidden" json:"startHidden"`
	AlwaysOnTop bool   `yaml:"alwaysOnTop" json:"alwaysOnTop"`
	Background  RGBA   `yaml:"background" json:"background"`
}

// Config is the shell configuration
type Config struct {
	Environment      string         `yaml:"environment" json:"environment"`
	LogLevel         string         `yaml:"logLevel" json:"logLevel"`
	MainWindowID     string         `yaml:"mainWindow" json:"mainWindow"`
	TitleBarStyle    string         `yaml:"titleBarStyle" json:"titleBarStyle"`
	SingleInstanceID string         `yaml:"singleInstanceId" json:"singleInstanceId"`
	StatePath        string         `yaml:"statePath" json:"statePath"` // empty means the database default
	Windows          []WindowConfig `yaml:"windows" json:"windows"`
}

// Default returns the embedded configuration
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultYAML, cfg); err != nil {
		// the embedded file is part of the binary
		panic(fmt.Sprintf("config: embedded shell.yaml is invalid: %v", err))
	}
	return cfg
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(logger logging.Logger, files ...string) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.Warn("Ignoring unreadable env file", "file", file, "error", err)
			continue
		}
		logger.Debug("Loaded env file", "file", file)
	}
}

// ApplyEnvironment overlays OVERLAYSHELL_* variables
func (c *Config) ApplyEnvironment(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvEnvironment); v != "" {
		c.Environment = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvMainWindow); v != "" {
		c.MainWindowID = v
	}
	if v := getenv(EnvTitleBar); v != "" {
		c.TitleBarStyle = v
	}
	if v := getenv(EnvStatePath); v != "" {
		c.StatePath = v
	}
	if v := getenv(EnvStartHidden); v != "" && len(c.Windows) > 0 {
		if hidden, err := strconv.ParseBool(v); err == nil {
			c.Windows[0].StartHidden = hidden
		}
	}
}

// FromEnvironment loads .env, the optional override file and environment
// variables, then validates the result.
func FromEnvironment(logger logging.Logger) (*Config, error) {
	LoadDotEnv(logger)

	cfg, err := Load(os.Getenv(EnvConfigFile))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvironment(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration. The main window id is deliberately not
// checked against Windows here: a missing main window aborts startup in the
// setup hook.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid environment %q", c.Environment)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := platform.ParseTitleBarPreference(c.TitleBarStyle); err != nil {
		return err
	}
	if strings.TrimSpace(c.MainWindowID) == "" {
		return fmt.Errorf("mainWindow cannot be empty")
	}
	if len(c.Windows) == 0 {
		return fmt.Errorf("at least one window must be declared")
	}

	seen := make(map[string]bool, len(c.Windows))
	for i, w := range c.Windows {
		if w.ID == "" {
			return fmt.Errorf("windows[%d]: id cannot be empty", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("windows[%d]: duplicate id %q", i, w.ID)
		}
		seen[w.ID] = true

		if w.Width <= 0 || w.Height <= 0 {
			return fmt.Errorf("window %q: size must be positive, got %dx%d", w.ID, w.Width, w.Height)
		}
		if w.MinWidth < 0 || w.MinHeight < 0 || w.MaxWidth < 0 || w.MaxHeight < 0 {
			return fmt.Errorf("window %q: size limits cannot be negative", w.ID)
		}
		if w.MaxWidth > 0 && w.MaxWidth < w.MinWidth {
			return fmt.Errorf("window %q: maxWidth %d below minWidth %d", w.ID, w.MaxWidth, w.MinWidth)
		}
		if w.MaxHeight > 0 && w.MaxHeight < w.MinHeight {
			return fmt.Errorf("window %q: maxHeight %d below minHeight %d", w.ID, w.MaxHeight, w.MinHeight)
		}
	}

	return nil
}

// TitleBarPreference returns the parsed titleBarStyle
func (c *Config) TitleBarPreference() platform.TitleBarPreference {
	pref, _ := platform.ParseTitleBarPreference(c.TitleBarStyle)
	return pref
}

// PrimaryWindow is the window the framework creates at startup (the first declared)
func (c *Config) PrimaryWindow() WindowConfig {
	if len(c.Windows) == 0 {
		return WindowConfig{}
	}
	return c.Windows[0]
}

// Window returns the declared window with id
func (c *Config) Window(id string) (WindowConfig, bool) {
	for _, w := range c.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowConfig{}, false
}
