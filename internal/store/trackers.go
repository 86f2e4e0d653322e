package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tracker is the stored form of a tracker definition. Meta carries any
// client payload fields beyond the known columns, preserved verbatim.
type Tracker struct {
	ID             string
	Name           string
	Category       string
	Type           string
	Meta           map[string]any
	Version        int
	Deleted        bool
	LastModifiedBy string
	LastModifiedAt string
}

const trackerColumns = `id, name, category, type, meta_json, version, deleted, last_modified_by, last_modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracker(row rowScanner) (*Tracker, error) {
	var t Tracker
	var meta sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Type, &meta, &t.Version, &t.Deleted, &t.LastModifiedBy, &t.LastModifiedAt); err != nil {
		return nil, err
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &t.Meta); err != nil {
			return nil, fmt.Errorf("decode meta for tracker %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

// GetTracker returns the tracker with the given id, or nil if none exists.
// Tombstoned trackers are returned like any other row.
func (s *Store) GetTracker(ctx context.Context, id string) (*Tracker, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackerColumns+` FROM trackers WHERE id = ?`, id)
	t, err := scanTracker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tracker %s: %w", id, err)
	}
	return t, nil
}

// PutTracker writes the full post-state of a tracker, replacing any
// existing row. The write is a single statement, so it commits or
// fails as a unit.
func (s *Store) PutTracker(ctx context.Context, t Tracker) error {
	var meta any
	if len(t.Meta) > 0 {
		raw, err := json.Marshal(t.Meta)
		if err != nil {
			return fmt.Errorf("encode meta for tracker %s: %w", t.ID, err)
		}
		meta = string(raw)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO trackers (`+trackerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Category, t.Type, meta, t.Version, t.Deleted, t.LastModifiedBy, t.LastModifiedAt)
	if err != nil {
		return fmt.Errorf("put tracker %s: %w", t.ID, err)
	}
	return nil
}

// ListTrackers returns trackers ordered by id. Tombstones are included
// only when includeDeleted is set. A non-empty since restricts the
// result to rows modified strictly after that timestamp.
func (s *Store) ListTrackers(ctx context.Context, includeDeleted bool, since string) ([]Tracker, error) {
	query := `SELECT ` + trackerColumns + ` FROM trackers`
	var conds []string
	var args []any
	if !includeDeleted {
		conds = append(conds, "deleted = 0")
	}
	if since != "" {
		conds = append(conds, "last_modified_at > ?")
		args = append(args, since)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	defer rows.Close()

	trackers := []Tracker{}
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("list trackers: %w", err)
		}
		trackers = append(trackers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	return trackers, nil
}

// ListDeletedTrackerIDsSince returns ids of tombstoned trackers whose
// last modification is strictly after since, ordered by id.
func (s *Store) ListDeletedTrackerIDsSince(ctx context.Context, since string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM trackers
		WHERE deleted = 1 AND last_modified_at > ?
		ORDER BY id`, since)
	if err != nil {
		return nil, fmt.Errorf("list deleted trackers: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list deleted trackers: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deleted trackers: %w", err)
	}
	return ids, nil
}
