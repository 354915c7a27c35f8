package windowstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"overlayshell/internal/database"
	repoerrors "overlayshell/internal/infrastructure/errors"
	"overlayshell/internal/infrastructure/logging"
)

// ErrNoState is returned by Load when nothing was saved for a window
var ErrNoState = errors.New("no saved window state")

// Store persists one Geometry per window id
type Store interface {
	Load(ctx context.Context, windowID string) (Geometry, error)
	Save(ctx context.Context, windowID string, g Geometry) error
	Close() error
}

const (
	loadGeometrySQL = `SELECT x, y, width, height, maximised FROM window_state WHERE window_id = ?`

	upsertGeometrySQL = `INSERT INTO window_state (window_id, x, y, width, height, maximised, updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(window_id) DO UPDATE SET
    x = excluded.x,
    y = excluded.y,
    width = excluded.width,
    height = excluded.height,
    maximised = excluded.maximised,
    updated_at = CURRENT_TIMESTAMP`
)

// SQLiteStore keeps window geometry in the window_state table
type SQLiteStore struct {
	dbService   database.Service
	retryConfig *repoerrors.RetryConfig
	logger      logging.Logger
}

// NewSQLiteStore creates a store on an already connected and migrated service
func NewSQLiteStore(dbService database.Service, logger logging.Logger) *SQLiteStore {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteStore{
		dbService:   dbService,
		retryConfig: repoerrors.DefaultRetryConfig(),
		logger:      logger,
	}
}

// OpenSQLiteStore connects to the database described by config, applies the
// migrations and checks the connection answers queries.
func OpenSQLiteStore(ctx context.Context, config *database.Config, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	service := database.NewSQLiteService(logger)
	if err := service.Connect(ctx, config); err != nil {
		return nil, fmt.Errorf("open window state store: %w", err)
	}
	if err := service.Migrate(ctx); err != nil {
		service.Close()
		return nil, fmt.Errorf("migrate window state store: %w", err)
	}
	if err := service.Health(ctx); err != nil {
		service.Close()
		return nil, fmt.Errorf("window state store unhealthy: %w", err)
	}

	version, err := service.GetMigrationVersion(ctx)
	if err != nil {
		logging.LogDiscarded(logger, err, "get_migration_version")
	} else {
		logger.Info("Window state store ready", "path", config.Path, "schema_version", version)
	}
	return NewSQLiteStore(service, logger), nil
}

// Load returns the saved geometry for windowID
func (s *SQLiteStore) Load(ctx context.Context, windowID string) (Geometry, error) {
	db := s.dbService.DB()
	if db == nil {
		return Geometry{}, repoerrors.HandleConnectionError("Load", "database not connected")
	}

	var g Geometry
	err := db.QueryRowContext(ctx, loadGeometrySQL, windowID).Scan(&g.X, &g.Y, &g.Width, &g.Height, &g.Maximised)
	if errors.Is(err, sql.ErrNoRows) {
		return Geometry{}, repoerrors.NewStoreErrorWithContext("Load", ErrNoState, repoerrors.ErrCodeNotFound, map[string]string{
			"window_id": windowID,
		})
	}
	if err != nil {
		return Geometry{}, repoerrors.WrapDatabaseErrorWithContext("Load", err, map[string]string{
			"window_id": windowID,
		})
	}
	return g, nil
}

// Save upserts the geometry for windowID, retrying while the file is busy
func (s *SQLiteStore) Save(ctx context.Context, windowID string, g Geometry) error {
	if strings.TrimSpace(windowID) == "" {
		return repoerrors.HandleValidationError("Save", "window_id", windowID, "window id is empty")
	}
	if !g.Valid() {
		return repoerrors.HandleValidationError("Save", "geometry", g.String(), "width and height must be positive")
	}

	db := s.dbService.DB()
	if db == nil {
		return repoerrors.HandleConnectionError("Save", "database not connected")
	}

	start := time.Now()
	err := repoerrors.WithRetry(ctx, s.retryConfig, "SaveWindowState", func() error {
		_, err := db.ExecContext(ctx, upsertGeometrySQL, windowID, g.X, g.Y, g.Width, g.Height, g.Maximised)
		if err != nil {
			storeErr := repoerrors.NewStoreErrorWithContext("Save", err, repoerrors.ClassifyError(err), map[string]string{
				"window_id": windowID,
				"geometry":  g.String(),
			})
			if storeErr.IsRetryable() {
				s.logger.Debug("Retryable error saving window state", "error", err, "window_id", windowID)
			}
			return storeErr
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.LogOperation(s.logger, "SaveWindowState", time.Since(start), map[string]interface{}{
		"window_id": windowID,
	})
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.dbService.Close()
}
