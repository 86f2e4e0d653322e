package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSyncMetadata returns the timestamp of the most recent accepted
// write, or nil if no write has ever been accepted.
func (s *Store) GetSyncMetadata(ctx context.Context) (*string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT last_modified FROM meta_sync WHERE id = 1`)
	var last sql.NullString
	err := row.Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync metadata: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.String, nil
}

// SetSyncMetadata records ts as the global last-modified timestamp.
func (s *Store) SetSyncMetadata(ctx context.Context, ts string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta_sync (id, last_modified) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_modified = excluded.last_modified`, ts)
	if err != nil {
		return fmt.Errorf("set sync metadata: %w", err)
	}
	return nil
}
