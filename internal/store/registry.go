package store

import (
	"sync"

	"pawdesk-assistant-backend/internal/assistant"
	"pawdesk-assistant-backend/internal/speech"
)

// Session groups the per-session pieces the server works with: the
// conversation itself plus the audio endpoints wired into it.
type Session struct {
	ID           string
	Conversation *assistant.Conversation
	Recognizer   *speech.WhisperRecognizer
	Audio        *speech.AudioBuffer
}

// SessionStore keeps one conversation per session id, creating them on first
// use through the injected factory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  func(id string) *Session
}

func NewSessionStore(factory func(id string) *Session) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// Get returns the session for the id, creating it when absent.
func (s *SessionStore) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := s.factory(id)
	sess.ID = id
	s.sessions[id] = sess
	return sess
}

// Len reports how many sessions exist.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
