// Package integration resolves the delivery credentials a tenant configured
// for a channel.
//
// A CredentialSet names a provider (for example "postmark" or "smtp") and
// carries already-decrypted credentials. Stores only return active sets for
// the exact tenant, environment and channel; when several are active the
// store's ordering decides and the first one wins.
//
//	resolver := integration.NewResolver(store)
//	cred, err := resolver.Resolve(ctx, integration.Query{
//	    TenantID:      tenantID,
//	    EnvironmentID: envID,
//	    Channel:       integration.ChannelEmail,
//	})
//	if errors.Is(err, integration.ErrIntegrationMissing) {
//	    // the tenant has no active email integration
//	}
//
// PostgresStore keeps credentials sealed with pkg/secrets and opens them with
// the tenant's key on read. MemoryStore is an in-process store for tests and
// local tooling.
package integration
