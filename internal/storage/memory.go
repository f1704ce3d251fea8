package storage

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is a non-durable Store used by tests and --ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	items  *cache.Cache
	closed bool
}

// NewMemoryStore creates an empty in-memory store. Entries never expire.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: cache.New(cache.NoExpiration, 0),
	}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}

	v, found := s.items.Get(key)
	if !found {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Set writes a single key.
func (s *MemoryStore) Set(key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// SetMany writes all pairs under one lock.
func (s *MemoryStore) SetMany(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for k, v := range values {
		s.items.Set(k, v, cache.NoExpiration)
	}
	return nil
}

// Delete removes keys under one lock.
func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for _, k := range keys {
		s.items.Delete(k)
	}
	return nil
}

// Len reports the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.ItemCount()
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items.Flush()
	return nil
}
