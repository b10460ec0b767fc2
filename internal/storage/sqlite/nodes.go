package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/untoldecay/tup/internal/types"
)

// ErrNodeNotFound is returned by the lookup helpers.
var ErrNodeNotFound = errors.New("node not found")

func scanNodes(rows *sql.Rows) ([]*types.DBNode, error) {
	var out []*types.DBNode
	for rows.Next() {
		dbn := &types.DBNode{}
		if err := rows.Scan(&dbn.ID, &dbn.Dir, &dbn.Type, &dbn.Name, &dbn.Flags); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, dbn)
	}
	return out, rows.Err()
}

// selectNodes snapshots a node query result, then dispatches callbacks.
func (s *Storage) selectNodes(ctx context.Context, cb types.NodeFunc, query string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}
	nodes, err := scanNodes(rows)
	rows.Close()
	if err != nil {
		return err
	}
	for _, dbn := range nodes {
		if err := cb(dbn); err != nil {
			return err
		}
	}
	return nil
}

// SelectNodeByFlags invokes cb for every node whose flags intersect
// mask, in id order.
func (s *Storage) SelectNodeByFlags(ctx context.Context, mask types.Flags, cb types.NodeFunc) error {
	return s.selectNodes(ctx, cb, `
		SELECT id, dir, type, name, flags FROM node
		WHERE flags & ? != 0 ORDER BY id
	`, int(mask))
}

// SelectNodeByLink invokes cb for every node reachable over a
// file-link out of id.
func (s *Storage) SelectNodeByLink(ctx context.Context, id types.TupID, cb types.NodeFunc) error {
	return s.selectNodes(ctx, cb, `
		SELECT n.id, n.dir, n.type, n.name, n.flags
		FROM link l JOIN node n ON n.id = l.to_id
		WHERE l.from_id = ? ORDER BY n.id
	`, int64(id))
}

// SelectNodeByCmdlink invokes cb for every node reachable over a
// cmd-link out of id.
func (s *Storage) SelectNodeByCmdlink(ctx context.Context, id types.TupID, cb types.NodeFunc) error {
	return s.selectNodes(ctx, cb, `
		SELECT n.id, n.dir, n.type, n.name, n.flags
		FROM cmdlink l JOIN node n ON n.id = l.to_id
		WHERE l.from_id = ? ORDER BY n.id
	`, int64(id))
}

// SetFlagsByID overwrites the flags of one node.
func (s *Storage) SetFlagsByID(ctx context.Context, id types.TupID, flags types.Flags) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE node SET flags = ? WHERE id = ?
	`, int(flags), int64(id))
	if err != nil {
		return fmt.Errorf("failed to set flags on node %d: %w", id, err)
	}
	return nil
}

// SetCmdchildFlags overwrites the flags of every command whose parent
// directory is dir.
func (s *Storage) SetCmdchildFlags(ctx context.Context, dir types.TupID, flags types.Flags) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE node SET flags = ? WHERE dir = ? AND type = ?
	`, int(flags), int64(dir), int(types.TypeCmd))
	if err != nil {
		return fmt.Errorf("failed to set flags on commands under %d: %w", dir, err)
	}
	return nil
}

// CreateNode inserts a node and returns its new id.
func (s *Storage) CreateNode(ctx context.Context, dir types.TupID, name string, typ types.NodeType, flags types.Flags) (types.TupID, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO node (dir, type, name, flags) VALUES (?, ?, ?, ?)
	`, int64(dir), int(typ), name, int(flags))
	if err != nil {
		return 0, fmt.Errorf("failed to create node %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new node id: %w", err)
	}
	return types.TupID(id), nil
}

// CreateDupNode inserts a fresh node with the given name and type,
// used by the executor to reincarnate a command before running it.
func (s *Storage) CreateDupNode(ctx context.Context, name string, typ types.NodeType, flags types.Flags) (types.TupID, error) {
	return s.CreateNode(ctx, 0, name, typ, flags)
}

// DeleteNameFile removes a node's name record and every link touching
// it.
func (s *Storage) DeleteNameFile(ctx context.Context, id types.TupID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM link WHERE from_id = ? OR to_id = ?`,
		`DELETE FROM cmdlink WHERE from_id = ? OR to_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, int64(id), int64(id)); err != nil {
			return fmt.Errorf("failed to delete links of node %d: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM node WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("failed to delete node %d: %w", id, err)
	}
	return tx.Commit()
}

// NodeByID returns one node row.
func (s *Storage) NodeByID(ctx context.Context, id types.TupID) (*types.DBNode, error) {
	dbn := &types.DBNode{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dir, type, name, flags FROM node WHERE id = ?
	`, int64(id)).Scan(&dbn.ID, &dbn.Dir, &dbn.Type, &dbn.Name, &dbn.Flags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node %d: %w", id, err)
	}
	return dbn, nil
}

// NodeByName returns the first node with the given name, preferring
// the lowest id. Reincarnation can briefly leave two rows with the
// same name; callers that race it want the original.
func (s *Storage) NodeByName(ctx context.Context, name string) (*types.DBNode, error) {
	dbn := &types.DBNode{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dir, type, name, flags FROM node
		WHERE name = ? ORDER BY id LIMIT 1
	`, name).Scan(&dbn.ID, &dbn.Dir, &dbn.Type, &dbn.Name, &dbn.Flags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node %q: %w", name, err)
	}
	return dbn, nil
}

// AllNodes returns every node, in id order.
func (s *Storage) AllNodes(ctx context.Context) ([]*types.DBNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dir, type, name, flags FROM node ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}
