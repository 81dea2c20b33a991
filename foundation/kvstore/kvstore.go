// Package kvstore provides a small key value abstraction with memory,
// LevelDB and Redis backends. It backs the single slot chain storage and the
// user records.
package kvstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a key doesn't exist.
var ErrNotFound = errors.New("key not found")

// Store represents the behavior required of a key value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// =============================================================================

// Memory is a Store that keeps everything in a map.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory constructs an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, exists := m.data[key]
	if !exists {
		return nil, ErrNotFound
	}

	return append([]byte(nil), v...), nil
}

// Put stores a copy of the value under key.
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes the key. Removing a missing key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Close has nothing to release.
func (m *Memory) Close() error {
	return nil
}
