package planner

import (
	"log/slog"
	"sync"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/google/uuid"
)

// Manager owns the live sessions and starts their loops.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	base     Options
	defaults func() Defaults
	publish  func(Snapshot)
}

// NewManager builds sessions from base. defaults is evaluated per session so
// that "today" is resolved at creation time. publish receives every change.
func NewManager(base Options, defaults func() Defaults, publish func(Snapshot)) *Manager {
	if base.Logger == nil {
		base.Logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		base:     base,
		defaults: defaults,
		publish:  publish,
	}
}

func (m *Manager) Create() *Session {
	opts := m.base
	if m.defaults != nil {
		opts.Defaults = m.defaults()
	}
	opts.OnChange = m.publish

	sess := NewSession(uuid.NewString(), opts)
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	go sess.Run()
	logging.LogOperation(m.base.Logger, "session_created", slog.String("session_id", sess.ID))
	return sess
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Delete stops and forgets a session. It reports whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		sess.Close()
		logging.LogOperation(m.base.Logger, "session_deleted", slog.String("session_id", id))
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
