package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Entry is the stored form of one daily tracker entry. Value and
// Completed are both optional; entries are never soft-deleted, they
// simply age out of the read window.
type Entry struct {
	Date           string
	TrackerID      string
	Value          *float64
	Completed      *bool
	Version        int
	LastModifiedBy string
	LastModifiedAt string
}

const entryColumns = `date, tracker_id, value, completed, version, last_modified_by, last_modified_at`

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var value sql.NullFloat64
	var completed sql.NullBool
	if err := row.Scan(&e.Date, &e.TrackerID, &value, &completed, &e.Version, &e.LastModifiedBy, &e.LastModifiedAt); err != nil {
		return nil, err
	}
	if value.Valid {
		e.Value = &value.Float64
	}
	if completed.Valid {
		e.Completed = &completed.Bool
	}
	return &e, nil
}

// GetEntry returns the entry for (date, trackerID), or nil if none exists.
func (s *Store) GetEntry(ctx context.Context, date, trackerID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE date = ? AND tracker_id = ?`, date, trackerID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s/%s: %w", date, trackerID, err)
	}
	return e, nil
}

// PutEntry writes the full post-state of an entry, replacing any
// existing row for the same (date, trackerID).
func (s *Store) PutEntry(ctx context.Context, e Entry) error {
	var value any
	if e.Value != nil {
		value = *e.Value
	}
	var completed any
	if e.Completed != nil {
		completed = *e.Completed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Date, e.TrackerID, value, completed, e.Version, e.LastModifiedBy, e.LastModifiedAt)
	if err != nil {
		return fmt.Errorf("put entry %s/%s: %w", e.Date, e.TrackerID, err)
	}
	return nil
}

// ListEntries returns entries with date >= minDate, ordered by date
// then tracker id. A non-empty since restricts the result to rows
// modified strictly after that timestamp.
func (s *Store) ListEntries(ctx context.Context, minDate, since string) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE date >= ?`
	args := []any{minDate}
	if since != "" {
		query += ` AND last_modified_at > ?`
		args = append(args, since)
	}
	query += ` ORDER BY date, tracker_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}
