// Package syncservice implements the journal sync engine: batched
// optimistic-concurrency updates, full and delta snapshots, and
// out-of-band conflict resolution.
package syncservice

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/journalapp/journal-sync/internal/store"
	"github.com/journalapp/journal-sync/internal/syncx"
)

// Engine processes sync requests against the store. A mutex serializes
// write batches: within one batch no other batch's writes may
// interleave, or the detector's get-then-put would race.
type Engine struct {
	store *store.Store
	clock *syncx.Clock

	mu sync.Mutex
}

// NewEngine creates a sync engine over the given store and clock.
func NewEngine(st *store.Store, clock *syncx.Clock) *Engine {
	return &Engine{store: st, clock: clock}
}

// ApplyUpdate applies one batched update from a single client. Each
// entity is accepted or conflicted independently; all writes in the
// batch share one timestamp. Success means no entity conflicted, and
// only then is LastModified populated.
func (e *Engine) ApplyUpdate(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	logger := log.With().Str("client_id", req.ClientID).Logger()

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	res := &UpdateResult{
		Conflicts:       []ConflictDescriptor{},
		AppliedConfig:   []map[string]any{},
		AppliedDays:     map[string]map[string]map[string]any{},
		OverwrittenData: []map[string]any{},
	}
	wrote := false

	// Trackers in input order; a later item sees the post-state of an
	// earlier item with the same id.
	for _, payload := range req.Config {
		applied, conflict, err := e.applyTracker(ctx, req.ClientID, payload, now)
		if err != nil {
			logger.Error().Err(err).Msg("tracker write failed")
			return nil, err
		}
		switch {
		case conflict != nil:
			res.Conflicts = append(res.Conflicts, *conflict)
		case applied != nil:
			res.AppliedConfig = append(res.AppliedConfig, applied)
			wrote = true
		}
	}

	for _, date := range sortedKeys(req.Days) {
		for _, trackerID := range sortedKeys(req.Days[date]) {
			applied, conflict, err := e.applyEntry(ctx, req.ClientID, date, trackerID, req.Days[date][trackerID], now)
			if err != nil {
				logger.Error().Err(err).Msg("entry write failed")
				return nil, err
			}
			switch {
			case conflict != nil:
				res.Conflicts = append(res.Conflicts, *conflict)
			case applied != nil:
				day := res.AppliedDays[date]
				if day == nil {
					day = map[string]map[string]any{}
					res.AppliedDays[date] = day
				}
				day[trackerID] = applied
				wrote = true
			}
		}
	}

	if wrote {
		if err := e.store.SetSyncMetadata(ctx, now); err != nil {
			logger.Error().Err(err).Msg("set sync metadata failed")
			return nil, err
		}
	}

	res.Success = len(res.Conflicts) == 0
	if res.Success {
		last, err := e.store.GetSyncMetadata(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("get sync metadata failed")
			return nil, err
		}
		res.LastModified = last
	}

	logger.Info().
		Int("applied_trackers", len(res.AppliedConfig)).
		Int("applied_days", len(res.AppliedDays)).
		Int("conflicts", len(res.Conflicts)).
		Bool("success", res.Success).
		Msg("sync update processed")

	return res, nil
}

func (e *Engine) applyTracker(ctx context.Context, clientID string, payload map[string]any, now string) (map[string]any, *ConflictDescriptor, error) {
	id, _ := syncx.GetString(payload, "id")
	base := syncx.BaseVersion(payload)
	incomingDelete := syncx.DeleteFlag(payload)

	current, err := e.store.GetTracker(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	exists := current != nil
	var serverVersion int
	var serverDeleted bool
	if exists {
		serverVersion = current.Version
		serverDeleted = current.Deleted
	}

	decision, next := syncx.Detect(exists, serverVersion, serverDeleted, base, incomingDelete)
	switch decision {
	case syncx.DecisionNoop:
		return nil, nil, nil
	case syncx.DecisionConflict:
		log.Warn().
			Str("client_id", clientID).
			Str("tracker_id", id).
			Int("server_version", serverVersion).
			Int("base_version", base).
			Msg("tracker conflict")
		return nil, &ConflictDescriptor{
			EntityType:        "tracker",
			EntityID:          id,
			ServerVersion:     serverVersion,
			ClientBaseVersion: base,
			ServerData:        trackerPayload(current),
		}, nil
	}

	rec := trackerRecord(id, payload)
	rec.Version = next
	rec.Deleted = incomingDelete
	rec.LastModifiedBy = clientID
	rec.LastModifiedAt = now
	if err := e.store.PutTracker(ctx, rec); err != nil {
		return nil, nil, err
	}
	return trackerPayload(&rec), nil, nil
}

func (e *Engine) applyEntry(ctx context.Context, clientID, date, trackerID string, payload map[string]any, now string) (map[string]any, *ConflictDescriptor, error) {
	base := syncx.BaseVersion(payload)

	current, err := e.store.GetEntry(ctx, date, trackerID)
	if err != nil {
		return nil, nil, err
	}

	exists := current != nil
	var serverVersion int
	if exists {
		serverVersion = current.Version
	}

	// Entries never carry a delete flag and are never tombstoned.
	decision, next := syncx.Detect(exists, serverVersion, false, base, false)
	if decision == syncx.DecisionConflict {
		entityID := date + "|" + trackerID
		log.Warn().
			Str("client_id", clientID).
			Str("entity_id", entityID).
			Int("server_version", serverVersion).
			Int("base_version", base).
			Msg("entry conflict")
		return nil, &ConflictDescriptor{
			EntityType:        "entry",
			EntityID:          entityID,
			ServerVersion:     serverVersion,
			ClientBaseVersion: base,
			ServerData:        entryPayload(current),
		}, nil
	}

	rec := entryRecord(date, trackerID, payload)
	rec.Version = next
	rec.LastModifiedBy = clientID
	rec.LastModifiedAt = now
	if err := e.store.PutEntry(ctx, rec); err != nil {
		return nil, nil, err
	}
	return entryPayload(&rec), nil, nil
}

// trackerRecord builds the stored form from a client payload: known
// columns pulled out, reserved keys stripped, and every other key kept
// verbatim in the metadata bag.
func trackerRecord(id string, payload map[string]any) store.Tracker {
	bag := syncx.StripReserved(payload)

	rec := store.Tracker{ID: id, Type: "simple"}
	if name, ok := syncx.GetString(bag, "name"); ok {
		rec.Name = name
	}
	if category, ok := syncx.GetString(bag, "category"); ok {
		rec.Category = category
	}
	if typ, ok := syncx.GetString(bag, "type"); ok && typ != "" {
		rec.Type = typ
	}
	for _, k := range []string{"id", "name", "category", "type"} {
		delete(bag, k)
	}
	rec.Meta = bag
	return rec
}

// entryRecord builds the stored form of an entry. Only value and
// completed are read from the payload.
func entryRecord(date, trackerID string, payload map[string]any) store.Entry {
	rec := store.Entry{Date: date, TrackerID: trackerID}
	if v, ok := syncx.GetFloat(payload, "value"); ok {
		rec.Value = &v
	}
	if c, ok := syncx.GetBool(payload, "completed"); ok {
		rec.Completed = &c
	}
	return rec
}

func validateUpdate(req UpdateRequest) error {
	if req.ClientID == "" {
		return &ValidationError{Message: "clientId is required"}
	}
	for i, payload := range req.Config {
		if id, ok := syncx.GetString(payload, "id"); !ok || id == "" {
			return &ValidationError{Message: fmt.Sprintf("config[%d]: id is required", i)}
		}
		if name, ok := syncx.GetString(payload, "name"); !ok || name == "" {
			return &ValidationError{Message: fmt.Sprintf("config[%d]: name is required", i)}
		}
	}
	for date := range req.Days {
		if !syncx.ValidDate(date) {
			return &ValidationError{Message: fmt.Sprintf("days: invalid date %q", date)}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
