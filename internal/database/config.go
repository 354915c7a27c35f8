package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppDirName is the per-user directory holding persisted shell state
const AppDirName = "overlayshell"

// parseBoolEnv reads an environment variable and parses it as a boolean.
// The second result reports whether the variable was present and understood.
func parseBoolEnv(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}

	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}

	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Config holds the state database options
type Config struct {
	Path            string        `json:"path" yaml:"path"`                       // Database file path or :memory:
	MaxConnections  int           `json:"maxConnections" yaml:"maxConnections"`   // Maximum number of open connections
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`       // Maximum number of idle connections
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"` // Maximum connection lifetime

	JournalMode     string `json:"journalMode" yaml:"journalMode"`         // WAL, DELETE, MEMORY...
	SynchronousMode string `json:"synchronousMode" yaml:"synchronousMode"` // FULL, NORMAL, OFF
	BusyTimeout     int    `json:"busyTimeout" yaml:"busyTimeout"`         // milliseconds

	Environment string `json:"environment" yaml:"environment"` // development, production, test
}

// DefaultStatePath returns the state database location under the user config directory.
// It falls back to the working directory when no config directory is known.
func DefaultStatePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "window-state.db")
	}
	return filepath.Join(configDir, AppDirName, "window-state.db")
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:            DefaultStatePath(),
		MaxConnections:  2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		BusyTimeout:     5000,
		Environment:     "production",
	}
}

// DevelopmentConfig keeps state next to the binary so dev runs don't touch the user's geometry
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = filepath.Join(".", "window-state_dev.db")
	config.Environment = "development"
	return config
}

// TestConfig returns an in-memory configuration
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.Environment = "test"
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.BusyTimeout = 1000
	return config
}

// ConfigForEnvironment returns the configuration for env with environment overrides applied
func ConfigForEnvironment(env string) *Config {
	var config *Config
	switch env {
	case "development":
		config = DevelopmentConfig()
	case "test":
		config = TestConfig()
	default:
		config = DefaultConfig()
	}
	config.LoadFromEnvironment()
	return config
}

// LoadFromEnvironment applies OVERLAYSHELL_DB_* overrides
func (c *Config) LoadFromEnvironment() {
	if path := os.Getenv("OVERLAYSHELL_DB_PATH"); path != "" {
		c.Path = path
	}
	if wal, ok := parseBoolEnv("OVERLAYSHELL_DB_WAL"); ok {
		if wal {
			c.JournalMode = "WAL"
		} else {
			c.JournalMode = "DELETE"
		}
	}
	if busy := os.Getenv("OVERLAYSHELL_DB_BUSY_TIMEOUT"); busy != "" {
		if v, err := strconv.Atoi(busy); err == nil && v >= 0 {
			c.BusyTimeout = v
		}
	}
}

// Validate checks the configuration and creates the database directory if needed
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns must be between 0 and %d, got %d", c.MaxConnections, c.MaxIdleConns)
	}

	switch strings.ToUpper(c.JournalMode) {
	case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}

	switch strings.ToUpper(c.SynchronousMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}

	switch c.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	return nil
}

// GetConnectionString builds the go-sqlite3 DSN
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	values.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))

	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}

// IsInMemory returns true if the database is configured to use in-memory storage
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}
