package credential

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns a store, optionally pre-populated with token.
func NewMemoryStore(token ...string) *MemoryStore {
	s := &MemoryStore{}
	if len(token) > 0 {
		s.token = token[0]
	}
	return s
}

// Load returns the held token or ErrNotFound.
func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotFound
	}
	return s.token, nil
}

// Save replaces the held token.
func (s *MemoryStore) Save(_ context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear forgets the token.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
