package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tenant is an organization that owns integrations and templates.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Logo      string    `json:"logo_url"`
	Color     string    `json:"brand_color"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Branding returns the seed of the branding template namespace.
// Empty fields are omitted.
func (t *Tenant) Branding() map[string]any {
	branding := make(map[string]any, 3)
	if t.Name != "" {
		branding["name"] = t.Name
	}
	if t.Logo != "" {
		branding["logo"] = t.Logo
	}
	if t.Color != "" {
		branding["color"] = t.Color
	}
	return branding
}

// Store loads tenants. Implementations must be safe for concurrent use.
type Store interface {
	// FindByID returns ErrTenantNotFound when no tenant has the id and
	// ErrInvalidIdentifier when id is not a UUID.
	FindByID(ctx context.Context, id string) (*Tenant, error)
}

// ParseID validates a tenant identifier.
func ParseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return parsed, nil
}
