package tenant

import (
	"context"
	"sync"
)

// MemoryStore keeps tenants in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant
}

// NewMemoryStore creates a store preloaded with tenants.
func NewMemoryStore(tenants ...*Tenant) *MemoryStore {
	s := &MemoryStore{tenants: make(map[string]*Tenant, len(tenants))}
	for _, t := range tenants {
		s.tenants[t.ID.String()] = t
	}
	return s
}

// Add stores or replaces a tenant.
func (s *MemoryStore) Add(t *Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID.String()] = t
}

// FindByID implements Store.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Tenant, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[parsed.String()]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}
