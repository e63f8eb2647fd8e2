package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Files follow 0001_name.up.sql / 0001_name.down.sql. A script whose first
// line is "-- NO_TX" runs outside a transaction.
var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

const noTxMarker = "-- NO_TX"

type migration struct {
	version  int
	name     string
	upFile   string
	downFile string
}

type migrator struct {
	db  *sql.DB
	log zerolog.Logger
}

func loadMigrations() (map[int]migration, error) {
	entries := map[int]migration{}
	list, err := stdfs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		m := migFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		ver, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		item := entries[ver]
		item.version = ver
		item.name = m[2]
		p := "migrations/" + de.Name()
		if m[3] == "up" {
			item.upFile = p
		} else {
			item.downFile = p
		}
		entries[ver] = item
	}
	return entries, nil
}

func (m *migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
    )`)
	return err
}

func (m *migrator) applied(ctx context.Context) (map[int]bool, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		got[v] = true
	}
	return got, rows.Err()
}

func (m *migrator) up(ctx context.Context) error {
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	versions := make([]int, 0, len(migs))
	for v := range migs {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	for _, v := range versions {
		if applied[v] {
			continue
		}
		mig := migs[v]
		if strings.TrimSpace(mig.upFile) == "" {
			return fmt.Errorf("missing up migration for version %04d", v)
		}
		if err := m.run(ctx, mig.upFile, `INSERT INTO schema_migrations(version) VALUES(?)`, v); err != nil {
			return fmt.Errorf("migration %04d failed: %w", v, err)
		}
		m.log.Info().Int("version", v).Str("name", mig.name).Msg("migration applied")
	}
	return nil
}

func (m *migrator) rollbackLast(ctx context.Context) error {
	if m.db == nil {
		return errors.New("nil db")
	}
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	var version int
	err := m.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		return err
	}
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	mig, ok := migs[version]
	if !ok || mig.downFile == "" {
		return fmt.Errorf("no down migration found for version %d", version)
	}
	if err := m.run(ctx, mig.downFile, `DELETE FROM schema_migrations WHERE version = ?`, version); err != nil {
		return fmt.Errorf("rollback %04d failed: %w", version, err)
	}
	m.log.Info().Int("version", version).Str("name", mig.name).Msg("migration rolled back")
	return nil
}

// run executes a migration script and the bookkeeping statement, inside a
// transaction unless the script opts out.
func (m *migrator) run(ctx context.Context, file, bookkeeping string, version int) error {
	raw, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}
	text := string(raw)
	if strings.HasPrefix(strings.TrimSpace(text), noTxMarker) {
		if _, err := m.db.ExecContext(ctx, text); err != nil {
			return err
		}
		_, err := m.db.ExecContext(ctx, bookkeeping, version)
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, text); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
