// Package sqlite implements the persistent build database: nodes,
// file-links, cmd-links, and configuration, stored in a single SQLite
// file under .tup/.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Storage is the SQLite-backed build database.
type Storage struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the database at path and brings the
// schema up to date.
func New(ctx context.Context, path string) (*Storage, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(normal)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The updater is single-threaded and the driver serializes
	// access anyway; one connection keeps WAL bookkeeping simple.
	db.SetMaxOpenConns(1)

	s := &Storage{db: db, path: path}
	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	for _, m := range migrationsList {
		if err := m.Func(ctx, s.db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
	}
	return nil
}

// Path returns the filesystem path of the database file.
func (s *Storage) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Migration is a single idempotent schema/data migration.
type Migration struct {
	Name string
	Func func(context.Context, *sql.DB) error
}

// migrationsList is the ordered list of all migrations to run.
// Every entry must be safe to re-run on an already-migrated database.
var migrationsList = []Migration{
	{"config_defaults", migrateConfigDefaults},
}

// migrateConfigDefaults seeds config keys the updater consults, so a
// fresh database behaves sensibly without a `tup config set` step.
func migrateConfigDefaults(ctx context.Context, db *sql.DB) error {
	defaults := map[string]string{
		"show_progress": "1",
	}
	for lval, rval := range defaults {
		_, err := db.ExecContext(ctx, `
			INSERT INTO config (lval, rval) VALUES (?, ?)
			ON CONFLICT (lval) DO NOTHING
		`, lval, rval)
		if err != nil {
			return fmt.Errorf("failed to seed config %q: %w", lval, err)
		}
	}
	return nil
}
