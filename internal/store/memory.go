package store

import (
	"context"
	"sync"

	"secretsanta/internal/models"
)

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*models.State
	auth   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*models.State),
		auth:   make(map[string]string),
	}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*models.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, state *models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[key] = state.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, key)
	delete(s.auth, key)
	return nil
}

func (s *MemoryStore) LoadAuth(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth[key], nil
}

func (s *MemoryStore) SaveAuth(_ context.Context, key, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth[key] = name
	return nil
}

func (s *MemoryStore) ClearAuth(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.auth, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
