package syncservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/journalapp/journal-sync/internal/store"
	"github.com/journalapp/journal-sync/internal/syncx"
)

// Resolve forces one side of a conflict to win, out of band of the
// update flow. A client resolution overwrites the entity with the
// supplied payload and bumps its version without consulting the
// detector; a server resolution changes nothing. Both append an audit
// record with resolvedAt set.
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) error {
	if req.Resolution != ResolutionClient && req.Resolution != ResolutionServer {
		return &ValidationError{Message: fmt.Sprintf("unknown resolution %q", req.Resolution)}
	}
	if req.ClientID == "" {
		return &ValidationError{Message: "client_id is required"}
	}
	if req.Resolution == ResolutionClient && req.Payload == nil {
		return &ValidationError{Message: "client resolution requires a payload"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()

	switch req.EntityType {
	case "tracker":
		if err := e.resolveTracker(ctx, req, now); err != nil {
			return err
		}
	case "entry":
		if err := e.resolveEntry(ctx, req, now); err != nil {
			return err
		}
	default:
		return &ValidationError{Message: fmt.Sprintf("unknown entity type %q", req.EntityType)}
	}

	// A client resolution is a write like any other; keep the global
	// last-modified in step so status polling picks it up. Server
	// resolutions change nothing and leave it alone.
	if req.Resolution == ResolutionClient {
		if err := e.store.SetSyncMetadata(ctx, now); err != nil {
			log.Error().Err(err).Str("entity_id", req.EntityID).Msg("set sync metadata failed")
			return err
		}
	}

	rec := store.ConflictRecord{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Resolution: req.Resolution,
		ClientID:   req.ClientID,
		ResolvedAt: now,
		CreatedAt:  now,
	}
	if err := e.store.AppendConflictRecord(ctx, rec); err != nil {
		log.Error().Err(err).Str("entity_id", req.EntityID).Msg("conflict record append failed")
		return err
	}

	log.Info().
		Str("entity_type", req.EntityType).
		Str("entity_id", req.EntityID).
		Str("resolution", req.Resolution).
		Str("client_id", req.ClientID).
		Msg("conflict resolved")
	return nil
}

func (e *Engine) resolveTracker(ctx context.Context, req ResolveRequest, now string) error {
	current, err := e.store.GetTracker(ctx, req.EntityID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrEntityNotFound
	}
	if req.Resolution == ResolutionServer {
		return nil
	}

	rec := trackerRecord(req.EntityID, req.Payload)
	rec.Version = current.Version + 1
	rec.Deleted = syncx.DeleteFlag(req.Payload)
	rec.LastModifiedBy = req.ClientID
	rec.LastModifiedAt = now
	return e.store.PutTracker(ctx, rec)
}

func (e *Engine) resolveEntry(ctx context.Context, req ResolveRequest, now string) error {
	date, trackerID, err := splitEntryID(req.EntityID)
	if err != nil {
		return err
	}
	current, err := e.store.GetEntry(ctx, date, trackerID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrEntityNotFound
	}
	if req.Resolution == ResolutionServer {
		return nil
	}

	rec := entryRecord(date, trackerID, req.Payload)
	rec.Version = current.Version + 1
	rec.LastModifiedBy = req.ClientID
	rec.LastModifiedAt = now
	return e.store.PutEntry(ctx, rec)
}

// splitEntryID parses the composite "YYYY-MM-DD|trackerId" entry key,
// splitting on the first pipe so tracker ids may contain pipes.
func splitEntryID(entityID string) (date, trackerID string, err error) {
	i := strings.Index(entityID, "|")
	if i < 0 {
		return "", "", &ValidationError{Message: fmt.Sprintf("entry id %q must be date|trackerId", entityID)}
	}
	date, trackerID = entityID[:i], entityID[i+1:]
	if !syncx.ValidDate(date) || trackerID == "" {
		return "", "", &ValidationError{Message: fmt.Sprintf("entry id %q must be date|trackerId", entityID)}
	}
	return date, trackerID, nil
}

// UnresolvedConflicts lists pending conflict rows. Resolution events
// are logged with resolvedAt set, so this is empty in practice.
func (e *Engine) UnresolvedConflicts(ctx context.Context) ([]ConflictDescriptor, error) {
	records, err := e.store.ListUnresolvedConflicts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list unresolved conflicts failed")
		return nil, err
	}
	out := make([]ConflictDescriptor, 0, len(records))
	for _, rec := range records {
		out = append(out, ConflictDescriptor{
			EntityType: rec.EntityType,
			EntityID:   rec.EntityID,
		})
	}
	return out, nil
}
