package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/notifykit/pkg/pg"
)

// DB is the subset of pgxpool.Pool used by PostgresStore.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads tenants from the tenants table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store backed by db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const findByIDQuery = `
SELECT id, name, logo_url, brand_color, active, created_at
FROM tenants
WHERE id = $1`

// FindByID implements Store.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Tenant, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var t Tenant
	err = s.db.QueryRow(ctx, findByIDQuery, parsed).
		Scan(&t.ID, &t.Name, &t.Logo, &t.Color, &t.Active, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("query tenant: %w", err)
	}
	return &t, nil
}
