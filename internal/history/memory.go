package history

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a Store that keeps runs in process memory. Runs are lost on
// restart.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already recorded", run.ID)
	}
	s.runs[run.ID] = clone(run)
	s.order = append(s.order, run.ID)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	s.runs[run.ID] = clone(run)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return clone(run), nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*Run, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, clone(s.runs[s.order[i]]))
	}
	return runs, nil
}

// Close implements Store.
func (s *MemoryStore) Close() {}
