package integration

import (
	"context"
	"errors"
)

// Resolver returns the single active credential set for a dispatch.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver backed by store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the active credential set for q.
//
// ErrIntegrationMissing is returned when the store has none, or when it hands
// back a set that is inactive or bound to another channel. Any other store
// error is joined with ErrStoreFailure.
func (r *Resolver) Resolve(ctx context.Context, q Query) (CredentialSet, error) {
	if err := q.Validate(); err != nil {
		return CredentialSet{}, err
	}

	cred, err := r.store.FindActive(ctx, q)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return CredentialSet{}, ErrIntegrationMissing
		}
		return CredentialSet{}, errors.Join(ErrStoreFailure, err)
	}
	if cred == nil || !cred.Active || cred.Channel != q.Channel {
		return CredentialSet{}, ErrIntegrationMissing
	}

	return *cred, nil
}
