package tenant

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithTenant adds a tenant to the context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tenant from the context.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(*Tenant)
	return t, ok && t != nil
}

// LogExtractor adds "tenant_id" to log records whose context carries a tenant.
// Its signature matches logger.ContextExtractor.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("tenant_id", t.ID.String()), true
}
