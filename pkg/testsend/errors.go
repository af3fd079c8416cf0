package testsend

import (
	"context"
	"errors"
)

var (
	ErrInvalidRequest      = errors.New("testsend: invalid request")
	ErrTenantNotFound      = errors.New("testsend: organization not found")
	ErrIntegrationMissing  = errors.New("testsend: missing an active email integration")
	ErrRenderFailure       = errors.New("testsend: failed to render template")
	ErrProviderError       = errors.New("testsend: unexpected provider error")
	ErrConfigurationDefect = errors.New("testsend: provider is not registered")
	ErrUnavailable         = errors.New("testsend: dependency unavailable")
)

// Kind classifies an error returned by Service.Execute.
type Kind string

const (
	KindNone                Kind = ""
	KindInvalidRequest      Kind = "invalid_request"
	KindTenantNotFound      Kind = "tenant_not_found"
	KindIntegrationMissing  Kind = "integration_missing"
	KindRenderFailure       Kind = "render_failure"
	KindProviderError       Kind = "provider_error"
	KindConfigurationDefect Kind = "configuration_defect"
	KindUnavailable         Kind = "unavailable"
	KindCanceled            Kind = "canceled"
	KindUnknown             Kind = "unknown"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{context.Canceled, KindCanceled},
	{context.DeadlineExceeded, KindCanceled},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrTenantNotFound, KindTenantNotFound},
	{ErrIntegrationMissing, KindIntegrationMissing},
	{ErrRenderFailure, KindRenderFailure},
	{ErrProviderError, KindProviderError},
	{ErrConfigurationDefect, KindConfigurationDefect},
	{ErrUnavailable, KindUnavailable},
}

// KindOf returns the Kind of err, KindNone for nil and KindUnknown for errors
// that did not come from Execute.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Retryable reports whether retrying the same request may succeed.
// Execute itself never retries.
func (k Kind) Retryable() bool {
	return k == KindProviderError || k == KindUnavailable
}
