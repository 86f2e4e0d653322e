package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/journalapp/journal-sync/internal/service/syncservice"
	"github.com/journalapp/journal-sync/internal/store"
	"github.com/journalapp/journal-sync/internal/syncx"
)

// fakeNow is an adjustable time source for test clocks.
type fakeNow struct {
	t time.Time
}

func (f *fakeNow) Now() time.Time          { return f.t }
func (f *fakeNow) Advance(d time.Duration) { f.t = f.t.Add(d) }

// testEnv bundles a router with the store and clock behind it so tests
// can assert on persisted state and move time.
type testEnv struct {
	router http.Handler
	store  *store.Store
	now    *fakeNow
	server *Server
}

// newTestEnv builds a full HTTP stack over a temp database with the
// clock pinned to a known instant.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fn := &fakeNow{t: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)}
	srv := &Server{Engine: syncservice.NewEngine(st, syncx.NewClockAt(fn.Now))}

	return &testEnv{router: srv.Routes(), store: st, now: fn, server: srv}
}

// do makes an HTTP request against the test router and returns the
// recorder. A non-nil body is sent as JSON.
func (env *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// decode parses a recorder body into a generic JSON map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, w.Body.String())
	}
	return out
}

// register registers a client id and fails the test on error.
func (env *testEnv) register(t *testing.T, clientID string) {
	t.Helper()
	w := env.do(t, "POST", "/api/sync/register?client_id="+clientID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: got status %d, body: %s", clientID, w.Code, w.Body.String())
	}
}

// update submits a batched update and returns the parsed response.
func (env *testEnv) update(t *testing.T, clientID string, config []map[string]any, days map[string]map[string]map[string]any) map[string]any {
	t.Helper()
	if config == nil {
		config = []map[string]any{}
	}
	if days == nil {
		days = map[string]map[string]map[string]any{}
	}
	w := env.do(t, "POST", "/api/sync/update", map[string]any{
		"clientId": clientID,
		"config":   config,
		"days":     days,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: got status %d, body: %s", w.Code, w.Body.String())
	}
	return decode(t, w)
}
