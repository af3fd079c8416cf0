// Package testsend sends a single test email on behalf of a tenant.
//
// Service.Execute walks a fixed pipeline driven by a per-invocation state
// machine:
//
//	validate_tenant -> resolve_credential -> build_context -> render -> dispatch -> done
//
// Any failing stage moves the machine to failed and Execute returns at once.
// Nothing is retried and nothing is persisted, so there is nothing to roll
// back. Credential resolution always precedes rendering, and rendering always
// precedes dispatch.
//
// # Errors
//
// Every error returned by Execute matches exactly one sentinel, and KindOf maps
// it to a Kind:
//
//   - ErrInvalidRequest: malformed request, detected before any external call
//   - ErrTenantNotFound: the tenant does not exist or is inactive
//   - ErrIntegrationMissing: no active email integration for the environment
//   - ErrRenderFailure: the template is missing, malformed or references an unknown variable
//   - ErrProviderError: the provider failed; the detail is logged, never returned
//   - ErrConfigurationDefect: the integration names a provider nobody registered
//   - ErrUnavailable: a tenant or credential store failed
//
// When ctx is cancelled the pipeline stops before its next transition and
// Execute returns ctx.Err().
//
// # Sender address
//
// The From address is picked by ResolveSender in this order: the request's
// SenderOverride, the payload's "$sender_email" field, the integration's From
// credential, and finally Config.FallbackSender.
//
// # Usage
//
//	svc := testsend.NewService(cfg, tenants, integration.NewResolver(store), renderer, email.DefaultRegistry(),
//		testsend.WithLogger(log),
//		testsend.WithTelemetry(sink),
//	)
//	err := svc.Execute(ctx, testsend.Request{
//		TenantID:      "5f0c...",
//		EnvironmentID: "production",
//		To:            testsend.Recipients{"ann@example.com"},
//		Template:      render.Ref{ID: "welcome"},
//		Payload:       map[string]any{"subscriber.firstName": "Ann"},
//	})
package testsend
