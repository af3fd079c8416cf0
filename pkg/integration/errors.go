package integration

import "errors"

var (
	// ErrCredentialNotFound is returned by stores when no active credential set matches.
	ErrCredentialNotFound = errors.New("integration: credential not found")
	// ErrIntegrationMissing is returned by Resolver when the tenant has no active
	// credential set for the requested channel.
	ErrIntegrationMissing = errors.New("integration: missing an active integration")
	// ErrStoreFailure wraps unexpected credential store errors.
	ErrStoreFailure = errors.New("integration: credential store failure")
	// ErrInvalidQuery is returned when a query lacks the tenant, environment or channel.
	ErrInvalidQuery = errors.New("integration: invalid query")
)
