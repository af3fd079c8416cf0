package integration

import (
	"context"
	"sync"
)

// MemoryStore keeps credential sets in memory in insertion order.
type MemoryStore struct {
	mu   sync.RWMutex
	sets []CredentialSet
}

// NewMemoryStore creates a store preloaded with sets.
func NewMemoryStore(sets ...CredentialSet) *MemoryStore {
	return &MemoryStore{sets: append([]CredentialSet(nil), sets...)}
}

// Add appends a credential set.
func (s *MemoryStore) Add(set CredentialSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, set)
}

// FindActive returns the first active set matching q.
func (s *MemoryStore) FindActive(ctx context.Context, q Query) (*CredentialSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, set := range s.sets {
		if !set.Active {
			continue
		}
		if set.TenantID != q.TenantID || set.EnvironmentID != q.EnvironmentID || set.Channel != q.Channel {
			continue
		}
		found := set
		return &found, nil
	}
	return nil, ErrCredentialNotFound
}
