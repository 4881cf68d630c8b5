package store

import (
	"context"
	"sync"
	"time"

	"vttserver/internal/rooms"
)

type memoryEntry struct {
	state   *rooms.State
	expires time.Time
}

// MemoryStore is the volatile fallback: a mutex-guarded map with lazy
// TTL eviction. Entries are checked against their expiry instant on
// read; there is no background sweep. Snapshots are cloned on the way
// in and out so callers never alias stored state.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryEntry
}

// NewMemoryStore creates an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memoryEntry),
	}
}

// Get returns the stored snapshot, evicting it first if expired.
func (s *MemoryStore) Get(_ context.Context, roomID string) (*rooms.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[roomID]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expires) {
		delete(s.items, roomID)
		return nil, nil
	}
	return entry.state.Clone(), nil
}

// Put stores a snapshot and refreshes its expiry instant.
func (s *MemoryStore) Put(_ context.Context, roomID string, state *rooms.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[roomID] = memoryEntry{
		state:   state.Clone(),
		expires: s.now().Add(s.ttl),
	}
	return nil
}

// Exists reports whether a live (unexpired) entry is present.
func (s *MemoryStore) Exists(_ context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[roomID]
	if !ok {
		return false, nil
	}
	if s.now().After(entry.expires) {
		delete(s.items, roomID)
		return false, nil
	}
	return true, nil
}
