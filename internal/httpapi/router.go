// Package httpapi binds the sync engine to its HTTP surface: the
// /api/sync endpoints, wildcard CORS, and the static web app.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/journalapp/journal-sync/internal/service/syncservice"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	Engine *syncservice.Engine

	// PublicDir is the web-app asset directory. Empty disables static
	// serving (API-only mode).
	PublicDir string
}

// Routes creates the HTTP router with all sync endpoints and, when
// PublicDir is set, the static web app.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	})

	// Sync API, open to any origin (client-id trust model).
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		}).Handler)

		r.Post("/sync/register", s.Register)
		r.Get("/sync/status", s.Status)
		r.Get("/sync/full", s.Full)
		r.Get("/sync/delta", s.Delta)
		r.Post("/sync/update", s.Update)
		r.Post("/sync/resolve-conflict", s.ResolveConflict)
		r.Get("/sync/conflicts", s.Conflicts)
	})

	if s.PublicDir != "" {
		s.mountStatic(r)
	} else {
		log.Warn().Msg("no public directory configured, running API-only")
	}

	log.Info().Msg("HTTP routes registered")
	return r
}
