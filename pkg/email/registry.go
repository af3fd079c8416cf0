package email

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrymomot/notifykit/pkg/integration"
)

// Factory builds a Sender from decrypted credentials. from is the already
// resolved sender address.
type Factory func(ctx context.Context, creds integration.Credentials, from string) (Sender, error)

// Registry maps provider ids to factories. It is immutable once built.
type Registry struct {
	factories map[integration.ProviderID]Factory
}

// RegistryOption configures a Registry under construction.
type RegistryOption func(map[integration.ProviderID]Factory)

// WithProvider registers f under id, replacing any previous registration.
func WithProvider(id integration.ProviderID, f Factory) RegistryOption {
	return func(m map[integration.ProviderID]Factory) {
		if id != "" && f != nil {
			m[id] = f
		}
	}
}

// NewRegistry creates a registry with the given providers.
func NewRegistry(opts ...RegistryOption) *Registry {
	factories := make(map[integration.ProviderID]Factory)
	for _, opt := range opts {
		opt(factories)
	}
	return &Registry{factories: factories}
}

// HandlerFor returns the Sender for cred's provider.
// An unregistered provider yields ErrUnknownProvider.
func (r *Registry) HandlerFor(ctx context.Context, cred integration.CredentialSet, from string) (Sender, error) {
	factory, ok := r.factories[cred.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cred.Provider)
	}
	return factory(ctx, cred.Credentials, from)
}

// Providers lists registered provider ids in sorted order.
func (r *Registry) Providers() []integration.ProviderID {
	ids := make([]integration.ProviderID, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

const (
	ProviderPostmark integration.ProviderID = "postmark"
	ProviderSMTP     integration.ProviderID = "smtp"
	ProviderS3       integration.ProviderID = "s3"
	ProviderDev      integration.ProviderID = "dev"
)

type defaultsConfig struct {
	devDir string
}

// DefaultOption tunes DefaultRegistry.
type DefaultOption func(*defaultsConfig)

// WithDevDirectory sets where the dev provider writes messages.
func WithDevDirectory(dir string) DefaultOption {
	return func(c *defaultsConfig) {
		if dir != "" {
			c.devDir = dir
		}
	}
}

// DefaultRegistry registers every built-in provider.
func DefaultRegistry(opts ...DefaultOption) *Registry {
	cfg := &defaultsConfig{devDir: "./tmp/emails"}
	for _, opt := range opts {
		opt(cfg)
	}

	return NewRegistry(
		WithProvider(ProviderPostmark, NewPostmarkSender),
		WithProvider(ProviderSMTP, NewSMTPSender),
		WithProvider(ProviderS3, NewS3Sender),
		WithProvider(ProviderDev, DevFactory(cfg.devDir)),
	)
}
