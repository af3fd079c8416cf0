package integration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/secrets"
)

// DB is the subset of pgxpool.Pool used by PostgresStore.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore reads sealed credential sets from the integrations table.
// Credentials are opened with the application key and the owning tenant's key.
type PostgresStore struct {
	db     DB
	appKey []byte
}

// NewPostgresStore creates a store. appKey must be secrets.KeySize bytes.
func NewPostgresStore(db DB, appKey []byte) (*PostgresStore, error) {
	if len(appKey) != secrets.KeySize {
		return nil, secrets.ErrInvalidAppKey
	}
	return &PostgresStore{db: db, appKey: appKey}, nil
}

const findActiveQuery = `
SELECT i.id, i.provider_id, i.credentials, t.secret_key
FROM integrations i
JOIN tenants t ON t.id = i.tenant_id
WHERE i.tenant_id = $1::uuid
  AND i.environment_id = $2
  AND i.channel = $3
  AND i.active
ORDER BY i.priority DESC, i.created_at ASC
LIMIT 1`

// FindActive returns the highest priority active set for q.
func (s *PostgresStore) FindActive(ctx context.Context, q Query) (*CredentialSet, error) {
	var (
		id, provider, sealed string
		tenantKey            []byte
	)
	err := s.db.QueryRow(ctx, findActiveQuery, q.TenantID, q.EnvironmentID, string(q.Channel)).
		Scan(&id, &provider, &sealed, &tenantKey)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("query integration: %w", err)
	}

	var creds Credentials
	if err := secrets.DecryptJSON(s.appKey, tenantKey, sealed, &creds); err != nil {
		return nil, fmt.Errorf("open credentials of integration %s: %w", id, err)
	}

	return &CredentialSet{
		ID:            id,
		TenantID:      q.TenantID,
		EnvironmentID: q.EnvironmentID,
		Channel:       q.Channel,
		Provider:      ProviderID(provider),
		Credentials:   creds,
		Active:        true,
	}, nil
}

const insertQuery = `
INSERT INTO integrations (tenant_id, environment_id, channel, provider_id, credentials, active, priority)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)`

// Create seals set.Credentials with tenantKey and stores the set.
func (s *PostgresStore) Create(ctx context.Context, set CredentialSet, tenantKey []byte, priority int) error {
	sealed, err := Seal(s.appKey, tenantKey, set.Credentials)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, insertQuery,
		set.TenantID, set.EnvironmentID, string(set.Channel), string(set.Provider), sealed, set.Active, priority,
	); err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return fmt.Errorf("%w: unknown tenant %s", ErrInvalidQuery, set.TenantID)
		}
		return fmt.Errorf("insert integration: %w", err)
	}
	return nil
}

// Seal encrypts credentials for storage.
func Seal(appKey, tenantKey []byte, creds Credentials) (string, error) {
	return secrets.EncryptJSON(appKey, tenantKey, creds)
}
