package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/journalapp/journal-sync/internal/service/syncservice"
)

// maxBodyBytes caps sync request bodies.
const maxBodyBytes = 10 << 20

// Register handles POST /api/sync/register. Registration is
// idempotent; re-registering refreshes last_seen_at.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	clientName := r.URL.Query().Get("client_name")

	if err := s.Engine.Register(r.Context(), clientID, clientName); err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"clientId": clientID,
	})
}

// Status handles GET /api/sync/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	last, err := s.Engine.Status(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lastModified": last})
}

// Full handles GET /api/sync/full.
func (s *Server) Full(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Engine.FullSnapshot(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Delta handles GET /api/sync/delta.
func (s *Server) Delta(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	clientID := r.URL.Query().Get("client_id")
	if since == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "since parameter is required")
		return
	}
	if clientID == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "client_id parameter is required")
		return
	}

	delta, err := s.Engine.DeltaSnapshot(r.Context(), since, clientID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

// Update handles POST /api/sync/update. Conflicts are reported in the
// body of a 200 response, not via HTTP status.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	var req syncservice.UpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}

	res, err := s.Engine.ApplyUpdate(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ResolveConflict handles POST /api/sync/resolve-conflict. The chosen
// side is forced; a client resolution reads the replacement payload
// from the request body.
func (s *Server) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := syncservice.ResolveRequest{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Resolution: q.Get("resolution"),
		ClientID:   q.Get("client_id"),
	}
	if req.EntityType == "" || req.EntityID == "" || req.Resolution == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "entity_type, entity_id and resolution are required")
		return
	}

	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "failed to read request body")
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req.Payload); err != nil {
				writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "invalid payload: "+err.Error())
				return
			}
		}
	}

	if err := s.Engine.Resolve(r.Context(), req); err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"resolution": req.Resolution,
		"entityId":   req.EntityID,
	})
}

// Conflicts handles GET /api/sync/conflicts: pending conflict rows for
// a client. Resolutions are logged already-resolved, so the list is
// empty in practice.
func (s *Server) Conflicts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("client_id") == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, "client_id parameter is required")
		return
	}

	conflicts, err := s.Engine.UnresolvedConflicts(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// writeEngineError maps engine errors onto the HTTP taxonomy:
// validation 422, unknown entity 404, anything else 500.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var verr *syncservice.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, verr.Message)
	case errors.Is(err, syncservice.ErrEntityNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "entity not found")
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
