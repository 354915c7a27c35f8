package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"time"

	"overlayshell/internal/app"
	"overlayshell/internal/config"
	"overlayshell/internal/database"
	"overlayshell/internal/infrastructure/errors"
	"overlayshell/internal/infrastructure/logging"
	"overlayshell/internal/overlay"
	"overlayshell/internal/shell"
	"overlayshell/internal/windowstate"
)

//go:embed all:frontend/dist
var assets embed.FS

const storeOpenTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "overlayshell: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnvironment(logging.NewDefaultLogger())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	errors.InstallRetryLogger(logger)

	dbConfig := database.ConfigForEnvironment(cfg.Environment)
	if cfg.StatePath != "" {
		dbConfig.Path = cfg.StatePath
	}

	// A missing state database only costs window placement
	var stateStore windowstate.Store
	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	store, err := windowstate.OpenSQLiteStore(ctx, dbConfig, logger)
	cancel()
	if err != nil {
		logging.LogError(logger, err, "OpenWindowStateStore", map[string]interface{}{
			"path": dbConfig.Path,
		})
		logger.Warn("Window state persistence disabled")
	} else {
		stateStore = store
		defer store.Close()
	}
	statePlugin := windowstate.NewPlugin(stateStore, windowstate.DefaultOptions(), logger)

	dist, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		return fmt.Errorf("frontend assets: %w", err)
	}

	bootstrapper := shell.New(cfg, shell.WithLogger(logger), shell.WithAssets(dist))
	if err := bootstrapper.Attach(statePlugin); err != nil {
		return err
	}

	application := app.NewApp(overlay.NewStore(logger), statePlugin, bootstrapper, logger)
	bootstrapper.Bind(application)
	if err := bootstrapper.AddShortcut(app.CopyShortcut(application)); err != nil {
		return err
	}
	bootstrapper.OnReady(application.Startup)

	return bootstrapper.Run()
}
