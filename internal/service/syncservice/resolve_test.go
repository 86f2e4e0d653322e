package syncservice

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedTracker(t *testing.T, e *Engine) {
	t.Helper()
	mustApply(t, e, UpdateRequest{ClientID: "device-1", Config: []map[string]any{waterTracker(0)}})
}

func seedEntry(t *testing.T, e *Engine) {
	t.Helper()
	mustApply(t, e, UpdateRequest{
		ClientID: "device-1",
		Days: map[string]map[string]map[string]any{
			"2026-01-10": {"water": {"value": float64(5), "_baseVersion": 0}},
		},
	})
}

func TestResolveTrackerClientWins(t *testing.T) {
	e, fn := newTestEngine(t)
	ctx := context.Background()
	seedTracker(t, e)

	v2 := waterTracker(1)
	v2["name"] = "Server Version"
	mustApply(t, e, UpdateRequest{ClientID: "device-1", Config: []map[string]any{v2}})

	fn.Advance(time.Minute)
	err := e.Resolve(ctx, ResolveRequest{
		EntityType: "tracker",
		EntityID:   "water",
		Resolution: ResolutionClient,
		ClientID:   "device-2",
		Payload: map[string]any{
			"name":     "Client Wins",
			"category": "health",
			"type":     "quantifiable",
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	full, err := e.FullSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tr := full.Config[0]
	if tr["name"] != "Client Wins" {
		t.Errorf("name = %v, want Client Wins", tr["name"])
	}
	if tr["_version"] != 3 {
		t.Errorf("version = %v, want 3", tr["_version"])
	}
	if tr["_lastModifiedBy"] != "device-2" {
		t.Errorf("_lastModifiedBy = %v, want device-2", tr["_lastModifiedBy"])
	}
}

func TestResolveClientAdvancesSyncMetadata(t *testing.T) {
	e, fn := newTestEngine(t)
	ctx := context.Background()
	seedTracker(t, e)

	before, err := e.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if before == nil {
		t.Fatal("status nil after seed write")
	}

	fn.Advance(time.Hour)
	err = e.Resolve(ctx, ResolveRequest{
		EntityType: "tracker",
		EntityID:   "water",
		Resolution: ResolutionClient,
		ClientID:   "device-2",
		Payload:    map[string]any{"name": "Resolved", "type": "simple"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	after, err := e.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after == nil || *after <= *before {
		t.Fatalf("status = %v, want later than %q", after, *before)
	}

	// Status must agree with the entity stamp the overwrite produced.
	full, err := e.FullSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := full.Config[0]["_lastModifiedAt"]; got != *after {
		t.Errorf("status = %q, entity _lastModifiedAt = %v", *after, got)
	}

	// A server resolution writes nothing and leaves the cursor alone.
	fn.Advance(time.Hour)
	err = e.Resolve(ctx, ResolveRequest{
		EntityType: "tracker",
		EntityID:   "water",
		Resolution: ResolutionServer,
		ClientID:   "device-2",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	final, err := e.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if final == nil || *final != *after {
		t.Errorf("status after server resolution = %v, want %q", final, *after)
	}
}

func TestResolveTrackerServerWins(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	seedTracker(t, e)

	err := e.Resolve(ctx, ResolveRequest{
		EntityType: "tracker",
		EntityID:   "water",
		Resolution: ResolutionServer,
		ClientID:   "device-2",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Server state unchanged, version not bumped.
	full, err := e.FullSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tr := full.Config[0]
	if tr["name"] != "Water Intake" || tr["_version"] != 1 {
		t.Errorf("server resolution mutated the tracker: %v", tr)
	}
}

func TestResolveEntryClientWins(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	seedEntry(t, e)

	err := e.Resolve(ctx, ResolveRequest{
		EntityType: "entry",
		EntityID:   "2026-01-10|water",
		Resolution: ResolutionClient,
		ClientID:   "device-2",
		Payload:    map[string]any{"value": float64(10), "completed": true},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	full, err := e.FullSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	entry := full.Days["2026-01-10"]["water"]
	if entry["value"] != float64(10) || entry["completed"] != true {
		t.Errorf("entry not overwritten: %v", entry)
	}
	if entry["_version"] != 2 {
		t.Errorf("version = %v, want 2", entry["_version"])
	}
}

func TestResolveWritesAuditRecord(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	seedTracker(t, e)

	resolutions := []string{ResolutionClient, ResolutionServer}
	for _, res := range resolutions {
		req := ResolveRequest{
			EntityType: "tracker",
			EntityID:   "water",
			Resolution: res,
			ClientID:   "device-2",
		}
		if res == ResolutionClient {
			req.Payload = map[string]any{"name": "Resolved", "type": "simple"}
		}
		if err := e.Resolve(ctx, req); err != nil {
			t.Fatalf("resolve %s: %v", res, err)
		}
	}

	records, err := e.store.ListConflictRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("audit records = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.ResolvedAt == "" {
			t.Errorf("record %d missing resolved_at", rec.ID)
		}
		if rec.EntityID != "water" || rec.ClientID != "device-2" {
			t.Errorf("record = %+v", rec)
		}
	}

	// Because resolutions are logged already resolved, nothing is pending.
	pending, err := e.UnresolvedConflicts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending conflicts = %+v, want none", pending)
	}
}

func TestResolveValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	seedTracker(t, e)
	seedEntry(t, e)

	tests := []struct {
		name string
		req  ResolveRequest
	}{
		{"unknown entity type", ResolveRequest{EntityType: "widget", EntityID: "w", Resolution: ResolutionServer, ClientID: "d"}},
		{"unknown resolution", ResolveRequest{EntityType: "tracker", EntityID: "water", Resolution: "merge", ClientID: "d"}},
		{"missing client id", ResolveRequest{EntityType: "tracker", EntityID: "water", Resolution: ResolutionServer}},
		{"client resolution without payload", ResolveRequest{EntityType: "tracker", EntityID: "water", Resolution: ResolutionClient, ClientID: "d"}},
		{"entry id without pipe", ResolveRequest{EntityType: "entry", EntityID: "2026-01-10", Resolution: ResolutionServer, ClientID: "d"}},
		{"entry id with bad date", ResolveRequest{EntityType: "entry", EntityID: "Jan 10|water", Resolution: ResolutionServer, ClientID: "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Resolve(ctx, tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestResolveMissingEntity(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	err := e.Resolve(ctx, ResolveRequest{
		EntityType: "tracker",
		EntityID:   "ghost",
		Resolution: ResolutionServer,
		ClientID:   "device-1",
	})
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("error = %v, want ErrEntityNotFound", err)
	}

	err = e.Resolve(ctx, ResolveRequest{
		EntityType: "entry",
		EntityID:   "2026-01-10|ghost",
		Resolution: ResolutionServer,
		ClientID:   "device-1",
	})
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("error = %v, want ErrEntityNotFound", err)
	}
}

func TestResolveFailuresWriteNoAudit(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_ = e.Resolve(ctx, ResolveRequest{
		EntityType: "tracker", EntityID: "ghost",
		Resolution: ResolutionServer, ClientID: "d",
	})

	records, err := e.store.ListConflictRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("failed resolution must not log: %+v", records)
	}
}
