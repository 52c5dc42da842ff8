package storage

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by backends for a missing key.
var ErrNotFound = errors.New("key not found")

// Backend is the synchronous key/value medium under SecureStore. Writes
// must stay durable until removed, and Get must return exactly the last
// value written for a key.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Keys() ([]string, error)
}

// MemoryBackend keeps values in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (backend *MemoryBackend) Get(key string) (string, error) {
	backend.mu.RLock()
	defer backend.mu.RUnlock()
	value, ok := backend.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (backend *MemoryBackend) Set(key, value string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	backend.values[key] = value
	return nil
}

func (backend *MemoryBackend) Remove(key string) error {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	delete(backend.values, key)
	return nil
}

func (backend *MemoryBackend) Keys() ([]string, error) {
	backend.mu.RLock()
	defer backend.mu.RUnlock()
	keys := make([]string, 0, len(backend.values))
	for key := range backend.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
