// Package db opens the flowcheck report database and manages its schema.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pragmas are applied to every database handle opened by OpenDB.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// DB wraps the report database handle.
type DB struct {
	*sql.DB
	log *zap.Logger
}

// OpenDB opens (or creates) the sqlite database at path and applies the
// connection pragmas. The schema is not touched; call MigrateUp for that.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// Pragmas such as foreign_keys are per connection.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return &DB{DB: sqlDB}, nil
}

// Open opens the database at path and migrates it to the latest schema.
func Open(path string) (*DB, error) {
	d, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}
