package session

import (
	"context"
	"sync"
	"time"

	"github.com/Career-Scout/careerscout/internal/logger"
)

// MemoryStore keeps sessions in a mutex-guarded map. Expired sessions are
// swept whenever a new one is created.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) expired(sess *Session) bool {
	return s.now().Sub(sess.CreatedAt) > s.ttl
}

func (s *MemoryStore) Create(ctx context.Context, input string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			swept++
		}
	}
	if swept > 0 {
		logger.Logger.Debug().Int("count", swept).Msg("swept expired sessions")
	}

	now := s.now()
	sess := &Session{
		ID:        NewID(),
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess

	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) Update(ctx context.Context, id, lastResult string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil
	}
	sess.LastResult = lastResult
	sess.UpdatedAt = s.now()
	return nil
}

// Len reports how many sessions are held, including any not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
