package stream

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// OpenSession pre-allocates a session for WebSocket clients, which cannot
// read a response body and upgrade on the same request the way an
// EventSource consumes SSE. Returns the session id and initial snapshot; the
// buffered init frame is delivered once the socket attaches.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Open()

	progress, err := h.sessions.Progress(s.ID)
	if err != nil {
		http.Error(w, "session vanished", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sessionId": s.ID,
		"progress":  progress,
	})
}

// ServeWS attaches a WebSocket to a pre-opened session and relays its frames
// as text messages.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s, err := h.sessions.Get(sessionID)
	if err != nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	defer h.sessions.Close(s.ID)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case frame, open := <-s.Events():
			if !open {
				_ = conn.Close(websocket.StatusNormalClosure, "session finished")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, frame); writeErr != nil {
				log.Debug().Err(writeErr).Str("session_id", s.ID).Msg("websocket write")
				return
			}
		}
	}
}
