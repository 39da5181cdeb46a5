package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *sess
	copied.Transcript = append([]string(nil), sess.Transcript...)
	return &copied, nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = time.Now().UTC()
	copied := *sess
	copied.Transcript = append([]string(nil), sess.Transcript...)
	s.sessions[sess.ID] = &copied
	return nil
}
