package client

import (
	"sync"
)

// Store holds the caller's credential and active conversation
// identifier. Both are read-mostly snapshots: every operation reads
// them once at its start, so a change mid-stream does not affect an
// in-flight request. Injectable so tests and embedders can supply
// their own persistence.
type Store interface {
	Token() string
	SetToken(token string)
	ActiveSession() string
	SetActiveSession(id string)
}

// MemoryStore is the in-process Store implementation
type MemoryStore struct {
	mu      sync.RWMutex
	token   string
	session string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Token returns the bearer credential
func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the bearer credential
func (s *MemoryStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// ActiveSession returns the active conversation identifier, or ""
func (s *MemoryStore) ActiveSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetActiveSession replaces the active conversation identifier
func (s *MemoryStore) SetActiveSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = id
}
