package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  atomic.Bool
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates an empty, ready store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the stored value, or "" on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrStoreClosed
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", nil
	}

	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		// a concurrent Set may have replaced it
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return "", nil
	}

	return entry.value, nil
}

// Set stores value for ttl. A non-positive ttl stores nothing.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()

	return nil
}

// Delete removes a value. Idempotent.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet dropped.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ready reports whether the store has not been closed.
func (s *MemoryStore) Ready() bool {
	return !s.closed.Load()
}

// Close marks the store not ready and drops every entry.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
