package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sells-group/disclosure-cli/internal/model"
)

// MemoryStore is an in-process Store used in tests and for --cache memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
	meta    map[string]model.SubjectMetadata
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]model.CacheEntry),
		meta:    make(map[string]model.SubjectMetadata),
	}
}

func (s *MemoryStore) Get(_ context.Context, url string) (*model.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[Key(url)]
	if !ok {
		return nil, nil
	}
	e.Content = slices.Clone(e.Content)
	return &e, nil
}

func (s *MemoryStore) Put(_ context.Context, entry model.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Content = slices.Clone(entry.Content)
	s.entries[Key(entry.URL)] = entry
	return nil
}

func (s *MemoryStore) GetMetadata(_ context.Context, subjectID string) (*model.SubjectMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[subjectID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) SaveMetadata(_ context.Context, meta model.SubjectMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[meta.SubjectID] = meta
	return nil
}

func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.LastFetched.Before(cutoff) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }

// Len returns the number of cached documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
