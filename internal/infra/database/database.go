// Package database opens the two source databases by driver name.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"m3c/internal/infra/database/postgres"
	"m3c/internal/infra/database/sqlite"
)

// Driver names accepted in configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config describes one database connection.
type Config struct {
	Driver string
	DSN    string
}

// Open connects according to cfg. Postgres is the default driver.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case "", DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case DriverSQLite:
		return sqlite.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
