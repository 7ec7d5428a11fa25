package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Vodeneev/keibabot/internal/pkg/models"
)

var _ IndexStore = (*MemoryIndexStore)(nil)

type memoryEntry struct {
	index    models.RaceIndex
	storedAt time.Time
}

// MemoryIndexStore keeps indexes in process memory.
// With ttl 0 entries never expire and live until the process restarts.
type MemoryIndexStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[models.IndexKey]memoryEntry
	now     func() time.Time
}

// NewMemoryIndexStore creates an in-memory store
func NewMemoryIndexStore(ttl time.Duration) *MemoryIndexStore {
	return &MemoryIndexStore{
		ttl:     ttl,
		entries: make(map[models.IndexKey]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryIndexStore) Get(_ context.Context, key models.IndexKey) (models.RaceIndex, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.ttl > 0 && s.now().Sub(e.storedAt) >= s.ttl {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return copyIndex(e.index), true, nil
}

func (s *MemoryIndexStore) Set(_ context.Context, key models.IndexKey, index models.RaceIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{index: copyIndex(index), storedAt: s.now()}
	return nil
}

// Len returns the number of stored keys, expired ones included
func (s *MemoryIndexStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryIndexStore) Close() error { return nil }

func copyIndex(index models.RaceIndex) models.RaceIndex {
	out := make(models.RaceIndex, len(index))
	for k, v := range index {
		out[k] = v
	}
	return out
}
