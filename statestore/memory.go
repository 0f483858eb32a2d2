package statestore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and development.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]string)}
}

// Get returns the stored state for the chat.
func (m *MemoryStore) Get(_ context.Context, chatID int64) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[chatID]
	return state, ok, nil
}

// Set stores the state for the chat.
func (m *MemoryStore) Set(_ context.Context, chatID int64, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = state
	return nil
}
