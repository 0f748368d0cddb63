// Package session keeps each browser's dashboard view state between requests.
package session

import (
	"context"
	"sync"
	"time"

	"retail-dashboard/internal/pipeline"
)

// Store persists view states by session id. Save replaces the whole value.
type Store interface {
	Get(ctx context.Context, id string) (pipeline.ViewState, bool, error)
	Save(ctx context.Context, id string, state pipeline.ViewState) error
	Delete(ctx context.Context, id string) error
	Close() error
}

type memoryEntry struct {
	state   pipeline.ViewState
	expires time.Time
}

// MemoryStore is an in-process Store whose entries expire after ttl.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (pipeline.ViewState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return pipeline.ViewState{}, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return pipeline.ViewState{}, false, nil
	}
	return e.state, true, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, state pipeline.ViewState) error {
	if state.Region != nil {
		region := *state.Region
		state.Region = &region
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.entries[id] = memoryEntry{state: state, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }

// sweep drops expired entries. Callers hold s.mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
		}
	}
}
