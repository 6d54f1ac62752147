package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/ports"
)

// MockStore is a minimal SessionStore used to check the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.SessionRecord
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.SessionRecord),
	}
}

func (m *MockStore) Get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[callID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	rec.Data = rec.Data.Clone()
	return &rec, nil
}

func (m *MockStore) Set(ctx context.Context, callID string, rec *domain.SessionRecord) (domain.SetResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.data[callID]
	copied := *rec
	copied.Data = rec.Data.Clone()
	m.data[callID] = copied
	if exists {
		return domain.SetUpdated, nil
	}
	return domain.SetCreated, nil
}

func (m *MockStore) Destroy(ctx context.Context, callID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[callID]
	delete(m.data, callID)
	return ok, nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}
