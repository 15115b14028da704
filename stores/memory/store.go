package memory

import (
	"context"
	"sync"

	"canvas-collab/core"
)

// memStore keeps records only for the lifetime of the process. It exists
// so the registry's write-through path has a uniform store to talk to
// when no durable backend is configured.
type memStore struct {
	mu      sync.RWMutex
	records map[string]core.Record
	order   []string
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{records: make(map[string]core.Record)}
}

func (s *memStore) LoadAll(ctx context.Context) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]core.Record, 0, len(s.order))
	for _, id := range s.order {
		recs = append(recs, s.records[id])
	}
	return recs, nil
}

func (s *memStore) Save(ctx context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}
