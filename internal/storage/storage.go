// Package storage defines the interface for build database backends.
// The SQLite implementation under storage/sqlite is the only backend;
// the interface is the contract the updater, monitor, and CLI consume,
// and the seam tests hang fakes off when they need one.
package storage

import (
	"context"

	"github.com/untoldecay/tup/internal/storage/sqlite"
	"github.com/untoldecay/tup/internal/types"
)

// Store is the full build database contract.
type Store interface {
	// Configuration.
	ConfigGetString(ctx context.Context, key, dflt string) (string, error)
	ConfigGetInt(ctx context.Context, key string) (int, error)
	SetConfig(ctx context.Context, key, value string) error
	AllConfig(ctx context.Context) (map[string]string, error)

	// Node queries. Select callbacks run against a snapshot of the
	// query result, so they may write back to the database.
	SelectNodeByFlags(ctx context.Context, mask types.Flags, cb types.NodeFunc) error
	SelectNodeByLink(ctx context.Context, id types.TupID, cb types.NodeFunc) error
	SelectNodeByCmdlink(ctx context.Context, id types.TupID, cb types.NodeFunc) error
	NodeByID(ctx context.Context, id types.TupID) (*types.DBNode, error)
	NodeByName(ctx context.Context, name string) (*types.DBNode, error)
	AllNodes(ctx context.Context) ([]*types.DBNode, error)

	// Node mutation.
	CreateNode(ctx context.Context, dir types.TupID, name string, typ types.NodeType, flags types.Flags) (types.TupID, error)
	CreateDupNode(ctx context.Context, name string, typ types.NodeType, flags types.Flags) (types.TupID, error)
	SetFlagsByID(ctx context.Context, id types.TupID, flags types.Flags) error
	SetCmdchildFlags(ctx context.Context, dir types.TupID, flags types.Flags) error
	DeleteNameFile(ctx context.Context, id types.TupID) error

	// Links.
	AddLink(ctx context.Context, from, to types.TupID) error
	AddCmdlink(ctx context.Context, from, to types.TupID) error
	MoveCmdlink(ctx context.Context, old, new types.TupID) error
	AllLinks(ctx context.Context) ([]sqlite.Link, error)
	AllCmdlinks(ctx context.Context) ([]sqlite.Link, error)

	Close() error
}

var _ Store = (*sqlite.Storage)(nil)
