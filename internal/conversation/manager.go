package conversation

import (
	"context"
	"sync"

	"salaatflow/internal/logging"
)

// Manager owns all session states and serializes turns within a
// session. Two concurrent turns for the same session are processed one
// after the other; turns for different sessions run independently.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	window   int
}

type session struct {
	mu    sync.Mutex
	state *State
}

// NewManager creates a manager whose sessions keep at most
// historyWindow turns each.
func NewManager(historyWindow int) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		window:   historyWindow,
	}
}

// Acquire locks the named session for one turn and returns its state
// plus the release function. The caller must call release when the
// turn is done. Acquire blocks while another turn holds the session,
// honoring ctx cancellation while waiting.
func (m *Manager) Acquire(ctx context.Context, sessionID string) (*State, func(), error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{state: &State{SessionID: sessionID, window: m.window}}
		m.sessions[sessionID] = s
		logging.Session("new session %s", sessionID)
	}
	m.mu.Unlock()

	locked := make(chan struct{})
	go func() {
		s.mu.Lock()
		close(locked)
	}()
	select {
	case <-locked:
		return s.state, s.mu.Unlock, nil
	case <-ctx.Done():
		// The goroutine still owns the lock once it gets it; hand the
		// release over so the session is not wedged.
		go func() {
			<-locked
			s.mu.Unlock()
		}()
		return nil, nil, ctx.Err()
	}
}

// Drop discards a session's state entirely.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
