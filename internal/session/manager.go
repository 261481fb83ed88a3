package session

import (
	"sync"

	"github.com/hpungsan/spinit/internal/ops"
)

// Manager keeps at most one open session per spinner.
type Manager struct {
	coll *ops.Collection
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager that opens sessions with deps.
func NewManager(coll *ops.Collection, deps Deps) *Manager {
	return &Manager{
		coll:     coll,
		deps:     deps.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Open returns the spinner's session, opening one if needed.
func (m *Manager) Open(spinnerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[spinnerID]; ok && !s.Closed() {
		return s, nil
	}
	s, err := Open(m.coll, spinnerID, m.deps)
	if err != nil {
		return nil, err
	}
	m.sessions[spinnerID] = s
	return s, nil
}

// Get returns an open session without creating one.
func (m *Manager) Get(spinnerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[spinnerID]
	if !ok || s.Closed() {
		return nil, false
	}
	return s, true
}

// Back runs the back gesture on the spinner's session, if one is open.
func (m *Manager) Back(spinnerID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[spinnerID]
	delete(m.sessions, spinnerID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	return s.Back()
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
