package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionTTL is how long a session token stays valid without re-login.
const SessionTTL = 30 * 24 * time.Hour

// SessionStore maps opaque tokens to user ids.
type SessionStore interface {
	Create(userID string) string
	Resolve(token string) (string, bool)
	Delete(token string)
}

type session struct {
	userID    string
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in memory with lazy expiry: a token
// past its TTL is evicted the next time it is resolved. Restarting the
// process logs everyone out.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store with the default TTL.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]session),
		ttl:      SessionTTL,
		now:      time.Now,
	}
}

// Create issues a fresh token for the user.
func (s *MemorySessionStore) Create(userID string) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{userID: userID, expiresAt: s.now().Add(s.ttl)}

	return token
}

// Resolve returns the user id behind a token. Expired tokens are evicted
// and reported as unknown.
func (s *MemorySessionStore) Resolve(token string) (string, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return "", false
	}
	if s.now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return "", false
	}
	return sess.userID, true
}

// Delete invalidates a token. Unknown tokens are a no-op.
func (s *MemorySessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
