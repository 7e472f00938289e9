package memory

import (
	"context"
	"sync"

	"booking-session-cache/internal/ports/output"
)

// Compile-time check to ensure MemoryStorage implements DurableStorage interface
var _ output.DurableStorage = (*MemoryStorage)(nil)

// MemoryStorage struct - Output adapter for process-local key-value storage.
// Uses sync.Map for thread-safe concurrent access. Nothing survives a restart,
// which makes it the storage of choice for tests and ephemeral runs.
type MemoryStorage struct {
	values sync.Map
}

// NewMemoryStorage creates a new, empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Get returns the value stored under key
func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	value, exists := m.values.Load(key)
	if !exists {
		return "", false, nil
	}
	return value.(string), true, nil
}

// Set stores value under key
func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.values.Store(key, value)
	return nil
}

// Remove deletes key.
// This operation is idempotent - removing a non-existent key does not return an error.
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.values.Delete(key)
	return nil
}
