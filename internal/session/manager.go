// Package session owns the mapping from opaque session ids to open streaming
// channels and their progress snapshots. The channel-opening request and the
// work-triggering request meet here.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/reviewd/internal/domain"
)

// outBuffer is the per-session outbound frame buffer. Pipeline progress must
// never block on a slow client; a client that falls this far behind is
// dropped instead.
const outBuffer = 256

// Session is one client's open streaming channel plus its progress state.
// All mutation goes through the Manager.
type Session struct {
	ID       string
	progress *domain.Progress
	out      chan []byte
	closed   bool
}

// Events is the ordered outbound frame stream. It is closed when the session
// reaches a terminal state or the client is dropped.
func (s *Session) Events() <-chan []byte {
	return s.out
}

// Manager is the in-memory session registry. It is owned by the composition
// root and injected wherever sessions are touched; there is no package-level
// instance.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Open allocates a session id, creates a fresh progress snapshot (planner
// pre-completed, the rest pending), registers the session and queues the
// init frame as the channel's first message.
func (m *Manager) Open() *Session {
	s := &Session{
		ID:       ulid.Make().String(),
		progress: domain.NewProgress(),
		out:      make(chan []byte, outBuffer),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.push(s, initFrame{SessionID: s.ID, Type: "init", Progress: s.progress})
	m.mu.Unlock()

	log.Info().Str("session_id", s.ID).Msg("session opened")

	return s
}

// Get returns the session handle for a transport to attach to.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session.Manager.Get: %s: %w", id, domain.ErrSessionNotFound)
	}
	return s, nil
}

// Validate reports whether the session exists and its channel is still open.
// The triggering request must fail synchronously on an unknown id instead of
// writing anywhere.
func (m *Manager) Validate(id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || s.closed {
		return fmt.Errorf("session.Manager.Validate: %s: %w", id, domain.ErrSessionNotFound)
	}
	return nil
}

// Progress returns a point-in-time copy of the session's snapshot for
// request/response surfaces. Returns ErrSessionNotFound when gone.
func (m *Manager) Progress(id string) (*domain.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session.Manager.Progress: %s: %w", id, domain.ErrSessionNotFound)
	}
	return s.progress, nil
}

// UpdateCheckpoint applies a checkpoint transition and, when the channel is
// still open, pushes a progress frame carrying the full snapshot and the
// updated checkpoint. A missing session or unknown agent name is a silent
// no-op: the client may have disconnected mid-flight.
func (m *Manager) UpdateCheckpoint(id, agent string, status domain.CheckpointStatus, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}

	cp := s.progress.Transition(agent, status, details)
	if cp == nil {
		return
	}

	m.push(s, progressFrame{Type: "progress", Progress: s.progress, Checkpoint: cp})
}

// ErrorCheckpoint marks whichever checkpoint is currently in progress as
// errored. No-op when the session is gone or nothing is in progress.
func (m *Manager) ErrorCheckpoint(id, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}

	cp := s.progress.InProgress()
	if cp == nil {
		return
	}

	cp = s.progress.Transition(cp.Agent, domain.CheckpointError, details)
	m.push(s, progressFrame{Type: "progress", Progress: s.progress, Checkpoint: cp})
}

// Log pushes a narration line.
func (m *Manager) Log(id, line string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		m.push(s, logFrame{Type: "log", Log: line})
	}
}

// Review pushes the final review payload.
func (m *Manager) Review(id, review string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		m.push(s, reviewFrame{Type: "review", Review: review})
	}
}

// Done signals successful completion, then closes and deregisters.
func (m *Manager) Done(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}

	m.push(s, doneFrame{Type: "done", Done: true})
	m.teardown(s)
}

// Fail pushes a terminal error frame, then closes and deregisters.
func (m *Manager) Fail(id, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}

	m.push(s, errorFrame{Type: "error", Error: message})
	m.teardown(s)
}

// Close tears a session down without a terminal frame. Used when the client
// disconnects; later checkpoint updates against the id are safe no-ops.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		m.teardown(s)
		log.Info().Str("session_id", id).Msg("session closed")
	}
}

// teardown closes the channel exactly once and removes the registry entry.
// Callers hold m.mu.
func (m *Manager) teardown(s *Session) {
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	delete(m.sessions, s.ID)
}

// push marshals a frame onto the session's channel. Callers hold m.mu, which
// makes the session a single-writer stream: frames are strictly ordered. A
// full buffer drops the client rather than blocking or reordering.
func (m *Manager) push(s *Session, frame any) {
	if s.closed {
		return
	}

	b, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("frame marshal failed")
		return
	}

	select {
	case s.out <- b:
	default:
		log.Warn().Str("session_id", s.ID).Msg("session buffer full, dropping client")
		s.closed = true
		close(s.out)
		delete(m.sessions, s.ID)
	}
}
