package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// --- Lifecycle tests ---

func TestOpenCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestReopenPreservesData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	tr := Tracker{ID: "water", Name: "Water", Type: "counter", Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"}
	if err := s.PutTracker(ctx, tr); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.GetTracker(ctx, "water")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Water" {
		t.Fatal("tracker not preserved across reopen")
	}
}

func TestOpenReadOnlyRejectsMissingFile(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestOpenReadOnlyCanQuery(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutTracker(ctx, Tracker{ID: "t1", Name: "One", Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()

	var n int
	if err := ro.QueryRow(`SELECT COUNT(*) FROM trackers`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 tracker, got %d", n)
	}
	if _, err := ro.Exec(`INSERT INTO trackers (id, name, version, last_modified_at) VALUES ('x', 'X', 1, '')`); err == nil {
		t.Error("write through read-only handle should fail")
	}
}

func TestSchemaVersionRecorded(t *testing.T) {
	s := newTestStore(t)
	var v int
	if err := s.db.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&v); err != nil {
		t.Fatal(err)
	}
	if v != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, v)
	}
}

// --- Tracker tests ---

func TestPutAndGetTracker(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tr := Tracker{
		ID:             "water",
		Name:           "Water",
		Category:       "health",
		Type:           "counter",
		Meta:           map[string]any{"unit": "glasses", "goal": float64(8)},
		Version:        3,
		LastModifiedBy: "device-1",
		LastModifiedAt: "2026-01-10T08:00:00Z",
	}
	if err := s.PutTracker(ctx, tr); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTracker(ctx, "water")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("tracker not found")
	}
	if got.Name != "Water" || got.Category != "health" || got.Type != "counter" {
		t.Errorf("tracker fields = %q/%q/%q", got.Name, got.Category, got.Type)
	}
	if got.Version != 3 || got.Deleted {
		t.Errorf("version/deleted = %d/%v, want 3/false", got.Version, got.Deleted)
	}
	if got.Meta["unit"] != "glasses" || got.Meta["goal"] != float64(8) {
		t.Errorf("meta not preserved: %v", got.Meta)
	}
}

func TestGetTrackerNotFound(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetTracker(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected nil for missing tracker")
	}
}

func TestPutTrackerReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.PutTracker(ctx, Tracker{ID: "t", Name: "Old", Meta: map[string]any{"a": "1"}, Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutTracker(ctx, Tracker{ID: "t", Name: "New", Version: 2, LastModifiedAt: "2026-01-10T09:00:00Z"}); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetTracker(ctx, "t")
	if got.Name != "New" || got.Version != 2 {
		t.Errorf("got %q v%d, want New v2", got.Name, got.Version)
	}
	if len(got.Meta) != 0 {
		t.Errorf("meta should be replaced, got %v", got.Meta)
	}
}

func TestGetTrackerReturnsTombstone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.PutTracker(ctx, Tracker{ID: "gone", Name: "Gone", Version: 2, Deleted: true, LastModifiedAt: "2026-01-10T08:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetTracker(ctx, "gone")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.Deleted {
		t.Fatal("tombstone should be readable with Deleted set")
	}
}

func TestListTrackers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.PutTracker(ctx, Tracker{ID: "b", Name: "B", Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"})
	s.PutTracker(ctx, Tracker{ID: "a", Name: "A", Version: 1, LastModifiedAt: "2026-01-10T09:00:00Z"})
	s.PutTracker(ctx, Tracker{ID: "c", Name: "C", Version: 2, Deleted: true, LastModifiedAt: "2026-01-10T10:00:00Z"})

	visible, err := s.ListTrackers(ctx, false, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 2 || visible[0].ID != "a" || visible[1].ID != "b" {
		t.Fatalf("visible trackers = %+v", visible)
	}

	all, err := s.ListTrackers(ctx, true, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 with tombstones, got %d", len(all))
	}

	since, err := s.ListTrackers(ctx, true, "2026-01-10T08:30:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 {
		t.Fatalf("expected 2 modified after cursor, got %d", len(since))
	}
}

func TestListTrackersSinceIsStrict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.PutTracker(ctx, Tracker{ID: "t", Name: "T", Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"})

	got, err := s.ListTrackers(ctx, false, "2026-01-10T08:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatal("cursor comparison must be strictly greater-than")
	}
}

func TestListDeletedTrackerIDsSince(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.PutTracker(ctx, Tracker{ID: "live", Name: "Live", Version: 1, LastModifiedAt: "2026-01-10T09:00:00Z"})
	s.PutTracker(ctx, Tracker{ID: "old-dead", Name: "X", Version: 2, Deleted: true, LastModifiedAt: "2026-01-09T09:00:00Z"})
	s.PutTracker(ctx, Tracker{ID: "new-dead", Name: "Y", Version: 2, Deleted: true, LastModifiedAt: "2026-01-10T09:00:00Z"})

	ids, err := s.ListDeletedTrackerIDsSince(ctx, "2026-01-10T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "new-dead" {
		t.Fatalf("deleted ids = %v, want [new-dead]", ids)
	}
}

// --- Entry tests ---

func TestPutAndGetEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := Entry{
		Date:           "2026-01-10",
		TrackerID:      "water",
		Value:          floatPtr(6),
		Completed:      boolPtr(true),
		Version:        2,
		LastModifiedBy: "device-1",
		LastModifiedAt: "2026-01-10T08:00:00Z",
	}
	if err := s.PutEntry(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEntry(ctx, "2026-01-10", "water")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("entry not found")
	}
	if got.Value == nil || *got.Value != 6 {
		t.Errorf("value = %v, want 6", got.Value)
	}
	if got.Completed == nil || !*got.Completed {
		t.Errorf("completed = %v, want true", got.Completed)
	}
	if got.Version != 2 || got.LastModifiedBy != "device-1" {
		t.Errorf("version/by = %d/%s", got.Version, got.LastModifiedBy)
	}
}

func TestEntryNullFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.PutEntry(ctx, Entry{Date: "2026-01-10", TrackerID: "mood", Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetEntry(ctx, "2026-01-10", "mood")
	if err != nil {
		t.Fatal(err)
	}
	if got.Value != nil || got.Completed != nil {
		t.Errorf("expected nil value and completed, got %v/%v", got.Value, got.Completed)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetEntry(context.Background(), "2026-01-10", "nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected nil for missing entry")
	}
}

func TestListEntriesWindowAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.PutEntry(ctx, Entry{Date: "2026-01-02", TrackerID: "water", Version: 1, LastModifiedAt: "2026-01-02T08:00:00Z"})
	s.PutEntry(ctx, Entry{Date: "2026-01-10", TrackerID: "water", Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"})
	s.PutEntry(ctx, Entry{Date: "2026-01-10", TrackerID: "mood", Version: 1, LastModifiedAt: "2026-01-10T08:05:00Z"})

	got, err := s.ListEntries(ctx, "2026-01-03", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries within window, got %d", len(got))
	}
	if got[0].TrackerID != "mood" || got[1].TrackerID != "water" {
		t.Errorf("order = %s,%s, want mood,water", got[0].TrackerID, got[1].TrackerID)
	}
}

func TestListEntriesSince(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.PutEntry(ctx, Entry{Date: "2026-01-10", TrackerID: "old", Version: 1, LastModifiedAt: "2026-01-10T08:00:00Z"})
	s.PutEntry(ctx, Entry{Date: "2026-01-10", TrackerID: "new", Version: 1, LastModifiedAt: "2026-01-10T09:00:00Z"})

	got, err := s.ListEntries(ctx, "2026-01-01", "2026-01-10T08:30:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TrackerID != "new" {
		t.Fatalf("entries since cursor = %+v", got)
	}
}

// --- Client tests ---

func TestUpsertClientNew(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpsertClient(ctx, "device-1", "device", "2026-01-10T08:00:00Z"); err != nil {
		t.Fatal(err)
	}
	c, err := s.GetClient(ctx, "device-1")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil {
		t.Fatal("client not found")
	}
	if c.FirstSeenAt != "2026-01-10T08:00:00Z" || c.LastSeenAt != "2026-01-10T08:00:00Z" {
		t.Errorf("seen timestamps = %s/%s", c.FirstSeenAt, c.LastSeenAt)
	}
}

func TestUpsertClientRefreshesLastSeen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.UpsertClient(ctx, "device-1", "device", "2026-01-10T08:00:00Z")
	if err := s.UpsertClient(ctx, "device-1", "Phone", "2026-01-10T09:00:00Z"); err != nil {
		t.Fatal(err)
	}

	c, _ := s.GetClient(ctx, "device-1")
	if c.FirstSeenAt != "2026-01-10T08:00:00Z" {
		t.Errorf("first_seen_at changed: %s", c.FirstSeenAt)
	}
	if c.LastSeenAt != "2026-01-10T09:00:00Z" {
		t.Errorf("last_seen_at not refreshed: %s", c.LastSeenAt)
	}
	if c.Name != "Phone" {
		t.Errorf("name not updated: %s", c.Name)
	}
}

func TestGetClientNotFound(t *testing.T) {
	s := newTestStore(t)
	c, err := s.GetClient(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Fatal("expected nil for missing client")
	}
}

// --- Sync metadata tests ---

func TestSyncMetadataEmpty(t *testing.T) {
	s := newTestStore(t)
	last, err := s.GetSyncMetadata(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Fatalf("expected nil before first write, got %q", *last)
	}
}

func TestSetAndGetSyncMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetSyncMetadata(ctx, "2026-01-10T08:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSyncMetadata(ctx, "2026-01-10T09:00:00Z"); err != nil {
		t.Fatal(err)
	}

	last, err := s.GetSyncMetadata(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || *last != "2026-01-10T09:00:00Z" {
		t.Fatalf("last modified = %v, want 2026-01-10T09:00:00Z", last)
	}
}

// --- Conflict record tests ---

func TestAppendAndListConflictRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := ConflictRecord{
		EntityType: "tracker",
		EntityID:   "water",
		Resolution: "client",
		ClientID:   "device-2",
		ResolvedAt: "2026-01-10T08:00:00Z",
		CreatedAt:  "2026-01-10T08:00:00Z",
	}
	if err := s.AppendConflictRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListConflictRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.EntityType != "tracker" || got.EntityID != "water" || got.Resolution != "client" {
		t.Errorf("record = %+v", got)
	}
	if got.ResolvedAt == "" {
		t.Error("resolved_at should be set on resolution events")
	}
}

func TestListUnresolvedConflictsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.AppendConflictRecord(ctx, ConflictRecord{
		EntityType: "tracker", EntityID: "t", Resolution: "server",
		ClientID: "d", ResolvedAt: "2026-01-10T08:00:00Z", CreatedAt: "2026-01-10T08:00:00Z",
	})

	pending, err := s.ListUnresolvedConflicts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no unresolved conflicts, got %d", len(pending))
	}
}
