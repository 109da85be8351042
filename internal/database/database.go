package database

import (
	"context"
	"fmt"

	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/repository"
	"github.com/segyhp/loan-tracker/internal/repository/memory"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// OpenStore opens the store selected by DATABASE_DRIVER and makes sure the schema exists.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	if cfg.Driver == config.DriverMemory {
		return memory.NewStore(), nil
	}

	db, err := repository.Open(ctx, cfg.Driver, cfg.DSN(), cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Driver, err)
	}

	return repository.NewSQLStore(db), nil
}
