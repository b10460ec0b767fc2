package main

import (
	"context"
	"path/filepath"

	"github.com/untoldecay/tup/internal/config"
	"github.com/untoldecay/tup/internal/storage"
	"github.com/untoldecay/tup/internal/storage/sqlite"
)

const (
	dbFile   = "db"
	lockFile = "update-lock"
)

// dbPath returns the database path for a project root, honoring the
// TUP_DB override.
func dbPath(root string) string {
	if p := config.GetString("db"); p != "" {
		return p
	}
	return filepath.Join(root, config.TupDir, dbFile)
}

// openStore locates the project root and opens its database.
func openStore(ctx context.Context) (storage.Store, string, error) {
	root, err := config.ProjectRoot()
	if err != nil {
		return nil, "", err
	}
	store, err := sqlite.New(ctx, dbPath(root))
	if err != nil {
		return nil, "", err
	}
	return store, root, nil
}
