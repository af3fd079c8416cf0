package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrInvalidIdentifier is returned when the identifier is not a valid UUID.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")
	// ErrInactiveTenant is returned when trying to use an inactive tenant.
	ErrInactiveTenant = errors.New("tenant is inactive")
)
