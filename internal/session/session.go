package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusIncomplete Status = "incomplete"
)

var ErrNotFound = errors.New("session not found")

// Session is the per-connection call record. It is created when a caller
// connects and survives as artifacts after the connection closes.
type Session struct {
	ID        string    `json:"session_id"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Status:    StatusActive,
		StartedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return clone(s)
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// End marks the session terminal exactly once. A second End keeps the first
// terminal status and reports it to the caller.
func (m *Manager) End(sessionID string, status Status, reason string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status != StatusActive {
		return clone(s), nil
	}
	s.Status = status
	s.Reason = reason
	s.EndedAt = time.Now().UTC()
	return clone(s), nil
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.sessions {
		if s.Status == StatusActive {
			count++
		}
	}
	return count
}

func clone(s *Session) *Session {
	c := *s
	return &c
}
