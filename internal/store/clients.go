package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Client is a registered sync device.
type Client struct {
	ID          string
	Name        string
	FirstSeenAt string
	LastSeenAt  string
}

// UpsertClient registers a client id. A new row records now as both
// first and last seen; re-registration refreshes name and last_seen_at
// and leaves first_seen_at alone.
func (s *Store) UpsertClient(ctx context.Context, id, name, now string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_seen_at = excluded.last_seen_at`,
		id, name, now, now)
	if err != nil {
		return fmt.Errorf("upsert client %s: %w", id, err)
	}
	return nil
}

// GetClient returns the client with the given id, or nil if none exists.
func (s *Store) GetClient(ctx context.Context, id string) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, first_seen_at, last_seen_at FROM clients WHERE id = ?`, id)
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.FirstSeenAt, &c.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &c, nil
}
