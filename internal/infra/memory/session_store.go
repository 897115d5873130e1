package memory

import (
	"sync"
	"time"

	"flag-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(playerID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[playerID] = session
}

func (s *SessionStore) Get(playerID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[playerID]
	return session, ok
}

func (s *SessionStore) Delete(playerID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[playerID]
	if !ok {
		return
	}
	if sessionID == "" || session.ID() == sessionID {
		delete(s.sessions, playerID)
	}
}

func (s *SessionStore) SweepIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for playerID, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			delete(s.sessions, playerID)
			removed++
		}
	}
	return removed
}
