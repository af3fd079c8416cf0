// Package tenant loads the organizations that own integrations and templates.
//
// A Store looks a tenant up by its UUID. PostgresStore reads the tenants
// table, MemoryStore serves tests and local tooling, and CachedStore puts a
// Cache in front of either one:
//
//	store := tenant.NewCachedStore(
//	    tenant.NewPostgresStore(pool),
//	    tenant.NewRedisCache(redisClient, "notifykit:tenant:"),
//	    5*time.Minute,
//	)
//	t, err := store.FindByID(ctx, id)
//	if errors.Is(err, tenant.ErrTenantNotFound) {
//	    // unknown organization
//	}
//
// Two caches are provided: NewMemoryCache (process local, go-cache) and
// NewRedisCache (shared, JSON encoded). Misses are never cached, so a tenant
// created after a failed lookup is visible immediately.
//
// WithTenant and FromContext carry a loaded tenant through a context, and
// LogExtractor exposes its id to the structured logger.
package tenant
