package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"                                  // PostgreSQL driver
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers the "nrpostgres" driver
	"github.com/smarttransit/seat-reservation/internal/config"
)

// NewConnection creates a new database connection.
// When instrumented is true the New Relic wrapped driver is used so every query
// shows up as a datastore segment.
func NewConnection(cfg config.DatabaseConfig, instrumented bool) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	driverName := "postgres"
	if instrumented {
		driverName = "nrpostgres"
	}

	db, err := sqlx.Connect(driverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Open returns the Store selected by storage.Driver. The postgres driver also
// applies the schema when AutoMigrate is set.
func Open(ctx context.Context, storage config.StorageConfig, dbCfg config.DatabaseConfig, instrumented bool) (Store, error) {
	switch storage.Driver {
	case "", "file":
		return NewFileStore(storage.DataFile)
	case "postgres":
		db, err := NewConnection(dbCfg, instrumented)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(db)
		if dbCfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
	}
}
