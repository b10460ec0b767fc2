package sqlite

import (
	"context"
	"fmt"

	"github.com/untoldecay/tup/internal/types"
)

// Link is a directed dependency edge between two nodes.
type Link struct {
	From, To types.TupID
}

// AddLink records a file-link from -> to. Duplicate links are ignored.
func (s *Storage) AddLink(ctx context.Context, from, to types.TupID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO link (from_id, to_id) VALUES (?, ?)
		ON CONFLICT (from_id, to_id) DO NOTHING
	`, int64(from), int64(to))
	if err != nil {
		return fmt.Errorf("failed to add link %d -> %d: %w", from, to, err)
	}
	return nil
}

// AddCmdlink records a cmd-link from -> to. Duplicate links are
// ignored.
func (s *Storage) AddCmdlink(ctx context.Context, from, to types.TupID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cmdlink (from_id, to_id) VALUES (?, ?)
		ON CONFLICT (from_id, to_id) DO NOTHING
	`, int64(from), int64(to))
	if err != nil {
		return fmt.Errorf("failed to add cmdlink %d -> %d: %w", from, to, err)
	}
	return nil
}

// MoveCmdlink re-homes every cmd-link of old onto new. Used by the
// executor to hand a command's produced-node links to its
// reincarnation.
func (s *Storage) MoveCmdlink(ctx context.Context, old, new types.TupID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE OR REPLACE cmdlink SET from_id = ? WHERE from_id = ?
	`, int64(new), int64(old))
	if err != nil {
		return fmt.Errorf("failed to move cmdlinks %d -> %d: %w", old, new, err)
	}
	return nil
}

func (s *Storage) listLinks(ctx context.Context, query string) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.From, &l.To); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AllLinks returns every file-link, for graph rendering.
func (s *Storage) AllLinks(ctx context.Context) ([]Link, error) {
	return s.listLinks(ctx, `SELECT from_id, to_id FROM link ORDER BY from_id, to_id`)
}

// AllCmdlinks returns every cmd-link, for graph rendering.
func (s *Storage) AllCmdlinks(ctx context.Context) ([]Link, error) {
	return s.listLinks(ctx, `SELECT from_id, to_id FROM cmdlink ORDER BY from_id, to_id`)
}
