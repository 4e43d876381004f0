package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

// Session is one running conversation. Every session starts with the
// system prompt of its prompt key; switching keys resets the history.
// mu serializes turns: SystemKey and Messages may only be touched with
// it held, so concurrent requests on one session see a consistent
// history.
type Session struct {
	ID string

	mu        sync.Mutex
	SystemKey string
	Messages  []dataset.Message
}

// SessionStore keeps active sessions in memory
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the session with the given ID, or nil.
func (s *SessionStore) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Create starts a new session seeded with the system prompt.
func (s *SessionStore) Create(systemKey, systemPrompt string) *Session {
	session := &Session{
		ID:        uuid.New().String(),
		SystemKey: systemKey,
		Messages:  []dataset.Message{{Role: "system", Content: systemPrompt}},
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// reset replaces the session's history with a fresh system prompt.
// Callers must hold s.mu.
func (s *Session) reset(systemKey, systemPrompt string) {
	s.SystemKey = systemKey
	s.Messages = []dataset.Message{{Role: "system", Content: systemPrompt}}
}

// Count returns the number of active sessions
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
