package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	nowF  func() time.Time
}

// NewMemoryStore returns an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nowF: time.Now}
}

// Token returns the token if present and not expired. An expired token is dropped.
func (s *MemoryStore) Token(ctx context.Context) (string, bool) {
	s.mu.RLock()
	tok := s.token
	s.mu.RUnlock()
	if tok == "" {
		return "", false
	}
	if expired(tok, s.nowF()) {
		s.mu.Lock()
		if s.token == tok {
			s.token = ""
		}
		s.mu.Unlock()
		return "", false
	}
	return tok, true
}

// Put stores token.
func (s *MemoryStore) Put(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear removes the token.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
