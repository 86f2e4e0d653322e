package syncservice

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/journalapp/journal-sync/internal/store"
	"github.com/journalapp/journal-sync/internal/syncx"
)

// FullSnapshot returns every live tracker and all entries inside the
// read window, grouped {date -> {trackerId -> entry}}.
func (e *Engine) FullSnapshot(ctx context.Context) (*Snapshot, error) {
	trackers, err := e.store.ListTrackers(ctx, false, "")
	if err != nil {
		log.Error().Err(err).Msg("full snapshot: list trackers failed")
		return nil, err
	}
	entries, err := e.store.ListEntries(ctx, e.entryLowerBound(), "")
	if err != nil {
		log.Error().Err(err).Msg("full snapshot: list entries failed")
		return nil, err
	}

	return &Snapshot{
		Config:     trackerPayloads(trackers),
		Days:       groupEntries(entries),
		ServerTime: e.clock.Now(),
	}, nil
}

// DeltaSnapshot returns changes strictly after the since cursor, plus
// ids of trackers tombstoned in that span. A future cursor yields
// empty lists, not an error.
func (e *Engine) DeltaSnapshot(ctx context.Context, since, clientID string) (*Delta, error) {
	trackers, err := e.store.ListTrackers(ctx, false, since)
	if err != nil {
		log.Error().Err(err).Msg("delta snapshot: list trackers failed")
		return nil, err
	}
	entries, err := e.store.ListEntries(ctx, e.entryLowerBound(), since)
	if err != nil {
		log.Error().Err(err).Msg("delta snapshot: list entries failed")
		return nil, err
	}
	deleted, err := e.store.ListDeletedTrackerIDsSince(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("delta snapshot: list deleted trackers failed")
		return nil, err
	}

	log.Debug().
		Str("client_id", clientID).
		Str("since", since).
		Int("trackers", len(trackers)).
		Int("entries", len(entries)).
		Int("deleted", len(deleted)).
		Msg("delta assembled")

	return &Delta{
		Config:          trackerPayloads(trackers),
		Days:            groupEntries(entries),
		DeletedTrackers: deleted,
		ServerTime:      e.clock.Now(),
	}, nil
}

// Status returns the global last-modified timestamp, nil before any
// accepted write.
func (e *Engine) Status(ctx context.Context) (*string, error) {
	return e.store.GetSyncMetadata(ctx)
}

func (e *Engine) entryLowerBound() string {
	return syncx.EntryLowerBound(e.clock.Today())
}

func trackerPayloads(trackers []store.Tracker) []map[string]any {
	out := make([]map[string]any, 0, len(trackers))
	for i := range trackers {
		out = append(out, trackerPayload(&trackers[i]))
	}
	return out
}

func groupEntries(entries []store.Entry) map[string]map[string]map[string]any {
	days := map[string]map[string]map[string]any{}
	for i := range entries {
		en := &entries[i]
		day := days[en.Date]
		if day == nil {
			day = map[string]map[string]any{}
			days[en.Date] = day
		}
		day[en.TrackerID] = entryPayload(en)
	}
	return days
}

// trackerPayload rehydrates a stored tracker into wire form: the
// metadata bag merged at top level, reserved keys synthesized.
func trackerPayload(t *store.Tracker) map[string]any {
	out := make(map[string]any, len(t.Meta)+8)
	for k, v := range t.Meta {
		out[k] = v
	}
	out["id"] = t.ID
	out["name"] = t.Name
	out["category"] = t.Category
	out["type"] = t.Type
	out[syncx.KeyVersion] = t.Version
	out[syncx.KeyDeleted] = t.Deleted
	out[syncx.KeyLastModifiedBy] = t.LastModifiedBy
	out[syncx.KeyLastModifiedAt] = t.LastModifiedAt
	return out
}

// entryPayload rehydrates a stored entry. Entries have no _deleted key.
func entryPayload(en *store.Entry) map[string]any {
	out := make(map[string]any, 5)
	var value any
	if en.Value != nil {
		value = *en.Value
	}
	out["value"] = value
	var completed any
	if en.Completed != nil {
		completed = *en.Completed
	}
	out["completed"] = completed
	out[syncx.KeyVersion] = en.Version
	out[syncx.KeyLastModifiedBy] = en.LastModifiedBy
	out[syncx.KeyLastModifiedAt] = en.LastModifiedAt
	return out
}
