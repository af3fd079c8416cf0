package testsend

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/integration"
	"github.com/dmitrymomot/notifykit/pkg/render"
	"github.com/dmitrymomot/notifykit/pkg/telemetry"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
)

// CredentialResolver returns the active credential set for a query.
// *integration.Resolver implements it.
type CredentialResolver interface {
	Resolve(ctx context.Context, q integration.Query) (integration.CredentialSet, error)
}

// DispatchFactory returns the Sender for a credential set.
// *email.Registry implements it.
type DispatchFactory interface {
	HandlerFor(ctx context.Context, cred integration.CredentialSet, from string) (email.Sender, error)
}

// Service runs test sends. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	tenants   tenant.Store
	resolver  CredentialResolver
	renderer  render.Renderer
	factory   DispatchFactory
	telemetry telemetry.Sink
	log       *slog.Logger
	fallback  string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Stages are logged at debug level and swallowed
// provider errors at error level.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTelemetry sets the breadcrumb sink. The sink is wrapped with
// telemetry.Safe.
func WithTelemetry(sink telemetry.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.telemetry = sink
		}
	}
}

// NewService creates a Service.
func NewService(
	cfg Config,
	tenants tenant.Store,
	resolver CredentialResolver,
	renderer render.Renderer,
	factory DispatchFactory,
	opts ...Option,
) *Service {
	s := &Service{
		tenants:   tenants,
		resolver:  resolver,
		renderer:  renderer,
		factory:   factory,
		telemetry: telemetry.Nop(),
		log:       slog.Default(),
		fallback:  cfg.FallbackSender,
	}
	if s.fallback == "" {
		s.fallback = DefaultFallbackSender
	}
	for _, opt := range opts {
		opt(s)
	}
	s.telemetry = telemetry.Safe(s.telemetry, s.log)
	return s
}

// Execute sends one test email. It returns nil on success and nothing else:
// acceptance by the provider is the only outcome reported.
func (s *Service) Execute(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to, err := req.validate()
	if err != nil {
		return err
	}

	run := &invocation{svc: s, req: req, to: to}
	return run.execute(ctx)
}
