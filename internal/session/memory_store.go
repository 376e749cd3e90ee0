package session

import (
	"context"
	"sync"
)

// NewMemoryStore returns a TokenStore that lives only as long as the process.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// MemoryStore implements TokenStore for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	saves int
}

// Load returns the stored token.
func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Save replaces the stored token.
func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.saves++
	s.mu.Unlock()
	return nil
}

// Clear empties the slot.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// Saves reports how many times Save was called. Useful for tests.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
