package memory

import (
	"context"
	"sync"

	"github.com/aretw0/callflow/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.SessionRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.SessionRecord),
	}
}

// Set persists the record in memory.
func (s *Store) Set(ctx context.Context, callID string, rec *domain.SessionRecord) (domain.SetResult, error) {
	// Copy the fields map so later mutations by the caller don't leak into the store
	copied := *rec
	copied.Data = rec.Data.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.data[callID]
	s.data[callID] = copied
	if exists {
		return domain.SetUpdated, nil
	}
	return domain.SetCreated, nil
}

// Get retrieves the record from memory.
func (s *Store) Get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[callID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so the caller can't mutate stored data through the map
	rec.Data = rec.Data.Clone()
	return &rec, nil
}

// Destroy removes the record.
func (s *Store) Destroy(ctx context.Context, callID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[callID]
	delete(s.data, callID)
	return ok, nil
}

// List returns the calls with a stored record.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calls := make([]string, 0, len(s.data))
	for id := range s.data {
		calls = append(calls, id)
	}
	return calls, nil
}
