package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const defaultPath = "auth.db"

// connection-level pragmas understood by go-sqlite3; they are applied to every
// pooled connection, unlike a one-off PRAGMA statement.
var dsnPragmas = []string{
	"_foreign_keys=on",
	"_busy_timeout=5000",
}

// Open opens (or creates) the SQLite credential store and applies pending
// migrations from internal/db/migrations.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*sql.DB, error) {
	if path == "" {
		path = defaultPath
	}
	d, err := sql.Open("sqlite3", withPragmas(path))
	if err != nil {
		return nil, err
	}
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	// journal_mode is not supported for in-memory databases. Ignore errors.
	_, _ = d.ExecContext(ctx, `PRAGMA journal_mode=WAL`)

	m := &migrator{db: d, log: logger.With().Str("component", "migrations").Logger()}
	if err := m.up(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// RollbackLast reverts the most recently applied migration.
func RollbackLast(ctx context.Context, d *sql.DB, logger zerolog.Logger) error {
	m := &migrator{db: d, log: logger.With().Str("component", "migrations").Logger()}
	return m.rollbackLast(ctx)
}

func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(dsnPragmas, "&")
}
