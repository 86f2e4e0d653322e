package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// SSEStream is a server-sent events connection bound to one MCP
// session. GET /mcp holds it open for server-to-client messages.
type SSEStream struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	nextID    int
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewSSEStream prepares the response for event streaming. Fails when
// the underlying writer cannot flush.
func NewSSEStream(ctx context.Context, w http.ResponseWriter, sessionID string) (*SSEStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	streamCtx, cancel := context.WithCancel(ctx)

	return &SSEStream{
		w:         w,
		flusher:   flusher,
		sessionID: sessionID,
		ctx:       streamCtx,
		cancel:    cancel,
	}, nil
}

// SendMessage writes one JSON-RPC message as a "message" event with a
// monotonically increasing event id, flushed immediately.
func (s *SSEStream) SendMessage(msg interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.nextID++
	if _, err := fmt.Fprintf(s.w, "event: message\nid: %d\ndata: %s\n\n", s.nextID, data); err != nil {
		return err
	}

	s.flusher.Flush()
	return nil
}

// Close closes the SSE stream
func (s *SSEStream) Close() {
	s.cancel()
}

// Done returns a channel that's closed when the stream is closed
func (s *SSEStream) Done() <-chan struct{} {
	return s.ctx.Done()
}
