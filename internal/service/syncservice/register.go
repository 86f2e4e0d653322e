package syncservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Register upserts a client row. An empty name defaults to the id
// prefix before the first dash.
func (e *Engine) Register(ctx context.Context, clientID, clientName string) error {
	if clientID == "" {
		return &ValidationError{Message: "client_id is required"}
	}
	name := clientName
	if name == "" {
		name = DefaultClientName(clientID)
	}
	if err := e.store.UpsertClient(ctx, clientID, name, e.clock.Now()); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("client registration failed")
		return err
	}
	log.Info().Str("client_id", clientID).Str("name", name).Msg("client registered")
	return nil
}

// DefaultClientName derives a display name from a client id: the
// prefix before the first dash, or the whole id when there is none.
func DefaultClientName(clientID string) string {
	if i := strings.Index(clientID, "-"); i > 0 {
		return clientID[:i]
	}
	return clientID
}
