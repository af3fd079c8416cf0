package render

import (
	"context"
	"sync"
)

// MemorySource keeps templates in memory, keyed by tenant and template id.
// Templates added with an empty tenant id are shared by every tenant.
type MemorySource struct {
	mu        sync.RWMutex
	templates map[string]map[string]Template
}

func NewMemorySource() *MemorySource {
	return &MemorySource{templates: make(map[string]map[string]Template)}
}

// Add stores tpl for tenantID, replacing any template with the same id.
func (s *MemorySource) Add(tenantID string, tpl Template) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.templates[tenantID]
	if !ok {
		byID = make(map[string]Template)
		s.templates[tenantID] = byID
	}
	byID[tpl.ID] = tpl
}

// Load implements Source. Tenant templates shadow shared ones.
func (s *MemorySource) Load(_ context.Context, tenantID, id string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tpl, ok := s.templates[tenantID][id]; ok {
		return &tpl, nil
	}
	if tpl, ok := s.templates[""][id]; ok {
		return &tpl, nil
	}
	return nil, ErrTemplateNotFound
}
