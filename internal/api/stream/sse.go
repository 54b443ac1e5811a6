// Package stream exposes the per-session push channel over two transports:
// server-sent events (the default, usable from a browser EventSource) and
// WebSocket. Both carry the same JSON frames.
package stream

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/reviewd/internal/session"
)

type Handler struct {
	sessions *session.Manager
}

func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// ServeSSE opens a new session and streams its frames as server-sent events.
// The first event is always the init frame carrying the session id; the
// channel stays open until a terminal frame or client disconnect.
func (h *Handler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s := h.sessions.Open()
	defer h.sessions.Close(s.ID)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, open := <-s.Events():
			if !open {
				return
			}
			_, err := fmt.Fprintf(w, "data: %s\n\n", frame)
			if err != nil {
				log.Debug().Err(err).Str("session_id", s.ID).Msg("sse write")
				return
			}
			flusher.Flush()
		}
	}
}
