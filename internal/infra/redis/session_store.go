package redis

import (
	"context"
	"sync"
	"time"

	"flag-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Games stay in a local map; their timers and result channels are process-local.
//   - Redis holds "flagquiz:session:{playerID}" = session ID with a TTL as a
//     liveness marker other instances can read. It is advisory: the local map
//     stays authoritative, and every lookup of the game extends the TTL.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(playerID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[playerID] = session
	s.touch(playerID, session.ID())
}

func (s *SessionStore) Get(playerID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[playerID]
	if ok {
		s.touch(playerID, session.ID())
	}
	return session, ok
}

// touch extends the marker, recreating it if it already expired.
func (s *SessionStore) touch(playerID, sessionID string) {
	_ = s.client.Set(context.Background(), s.key(playerID), sessionID, s.ttl).Err()
}

func (s *SessionStore) Delete(playerID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[playerID]
	if !ok {
		return
	}
	if sessionID != "" && session.ID() != sessionID {
		return
	}
	delete(s.sessions, playerID)
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

func (s *SessionStore) SweepIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for playerID, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			delete(s.sessions, playerID)
			_ = s.client.Del(context.Background(), s.key(playerID)).Err()
			removed++
		}
	}
	return removed
}

func (s *SessionStore) key(playerID string) string {
	return "flagquiz:session:" + playerID
}
