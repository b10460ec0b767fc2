package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// ConfigGetString returns the config value for key, or dflt when the
// key is not set.
func (s *Storage) ConfigGetString(ctx context.Context, key, dflt string) (string, error) {
	var rval string
	err := s.db.QueryRowContext(ctx, `
		SELECT rval FROM config WHERE lval = ?
	`, key).Scan(&rval)
	if errors.Is(err, sql.ErrNoRows) {
		return dflt, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config %q: %w", key, err)
	}
	return rval, nil
}

// ConfigGetInt returns the config value for key as an integer. A
// missing key reads as zero; a non-numeric value is an error.
func (s *Storage) ConfigGetInt(ctx context.Context, key string) (int, error) {
	rval, err := s.ConfigGetString(ctx, key, "0")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(rval)
	if err != nil {
		return 0, fmt.Errorf("config %q is not an integer: %w", key, err)
	}
	return n, nil
}

// SetConfig stores a config value, replacing any existing one.
func (s *Storage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (lval, rval) VALUES (?, ?)
		ON CONFLICT (lval) DO UPDATE SET rval = excluded.rval
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config %q: %w", key, err)
	}
	return nil
}

// AllConfig returns the whole config table, for `tup config list`.
func (s *Storage) AllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lval, rval FROM config ORDER BY lval`)
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var lval, rval string
		if err := rows.Scan(&lval, &rval); err != nil {
			return nil, fmt.Errorf("failed to scan config row: %w", err)
		}
		out[lval] = rval
	}
	return out, rows.Err()
}
