package testsend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/integration"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/render"
	"github.com/dmitrymomot/notifykit/pkg/statemachine"
	"github.com/dmitrymomot/notifykit/pkg/telemetry"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
	"github.com/dmitrymomot/notifykit/pkg/variables"
)

// Pipeline states.
const (
	StateValidateTenant    = statemachine.StringState("validate_tenant")
	StateResolveCredential = statemachine.StringState("resolve_credential")
	StateBuildContext      = statemachine.StringState("build_context")
	StateRender            = statemachine.StringState("render")
	StateDispatch          = statemachine.StringState("dispatch")
	StateDone              = statemachine.StringState("done")
	StateFailed            = statemachine.StringState("failed")
)

const (
	eventAdvance = statemachine.StringEvent("advance")
	eventFail    = statemachine.StringEvent("fail")
)

const breadcrumbCategory = "test_send"

var stageOrder = []statemachine.StringState{
	StateValidateTenant,
	StateResolveCredential,
	StateBuildContext,
	StateRender,
	StateDispatch,
	StateDone,
}

// invocation carries the state of one Execute call.
type invocation struct {
	svc *Service
	req Request
	to  []string

	tenant *tenant.Tenant
	cred   integration.CredentialSet
	data   map[string]any
	msg    *render.Message

	err error
}

// newMachine wires each stage as the action of its advance transition.
// The fail edge is only taken once a stage has recorded an error.
func (inv *invocation) newMachine() (statemachine.StateMachine, error) {
	opts := make([]statemachine.Option, 0, len(stageOrder)+2)
	failures := make([]statemachine.TransitionDef, 0, len(stageOrder))
	for i := 0; i+1 < len(stageOrder); i++ {
		opts = append(opts, statemachine.WithTransition(stageOrder[i], stageOrder[i+1], eventAdvance,
			statemachine.WithGuard(inv.healthy),
			statemachine.WithAction(inv.runStage),
		))
		failures = append(failures, statemachine.TransitionDef{
			From:   stageOrder[i],
			To:     StateFailed,
			Event:  eventFail,
			Guards: []statemachine.Guard{inv.failed},
		})
	}
	opts = append(opts,
		statemachine.WithTransitions(failures),
		statemachine.WithFinalStates(StateDone, StateFailed),
		statemachine.WithHook(inv.observe),
	)

	return statemachine.New(StateValidateTenant, opts...)
}

func (inv *invocation) healthy(context.Context, statemachine.State, statemachine.Event, any) bool {
	return inv.err == nil
}

func (inv *invocation) failed(context.Context, statemachine.State, statemachine.Event, any) bool {
	return inv.err != nil
}

// runStage runs the stage owned by from. A context cancelled while the
// stage ran aborts the transition even when the stage itself succeeded.
func (inv *invocation) runStage(ctx context.Context, from, _ statemachine.State, _ statemachine.Event, _ any) error {
	run := inv.stage(from)
	if run == nil {
		return fmt.Errorf("test send pipeline: no stage for state %s", from.Name())
	}
	if err := run(ctx); err != nil {
		inv.err = err
		return err
	}
	return ctx.Err()
}

func (inv *invocation) stage(state statemachine.State) func(context.Context) error {
	switch state {
	case StateValidateTenant:
		return inv.validateTenant
	case StateResolveCredential:
		return inv.resolveCredential
	case StateBuildContext:
		return inv.buildContext
	case StateRender:
		return inv.render
	case StateDispatch:
		return inv.dispatch
	}
	return nil
}

func (inv *invocation) execute(ctx context.Context) error {
	sm, err := inv.newMachine()
	if err != nil {
		return fmt.Errorf("build test send pipeline: %w", err)
	}

	for !sm.IsFinal() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := sm.Fire(ctx, eventAdvance, nil); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if inv.err == nil {
				return err
			}
			if fireErr := sm.Fire(ctx, eventFail, nil); fireErr != nil {
				return fireErr
			}
			return inv.err
		}

		// Later stages log with the loaded tenant attached to the context.
		if inv.tenant != nil {
			if _, ok := tenant.FromContext(ctx); !ok {
				ctx = tenant.WithTenant(ctx, inv.tenant)
			}
		}
	}

	return nil
}

// observe records every transition as a breadcrumb.
func (inv *invocation) observe(ctx context.Context, rec statemachine.Record) {
	stage := rec.From.Name()
	attrs := []any{
		logger.TenantID(inv.req.TenantID),
		logger.EnvironmentID(inv.req.EnvironmentID),
		logger.Stage(stage),
	}

	if rec.To == StateFailed {
		kind := KindOf(inv.err)
		inv.svc.log.DebugContext(ctx, "test send stage failed", append(attrs, logger.Error(inv.err))...)
		inv.svc.telemetry.Record(ctx, telemetry.Breadcrumb{
			Category: breadcrumbCategory,
			Message:  "stage failed",
			Level:    telemetry.LevelWarning,
			Data: map[string]any{
				telemetry.KeyStage:   stage,
				telemetry.KeyOutcome: string(kind),
			},
		})
		return
	}

	inv.svc.log.DebugContext(ctx, "test send stage completed", attrs...)
	inv.svc.telemetry.Record(ctx, telemetry.Breadcrumb{
		Category: breadcrumbCategory,
		Message:  "stage completed",
		Level:    telemetry.LevelDebug,
		Data: map[string]any{
			telemetry.KeyStage:   stage,
			telemetry.KeyOutcome: "ok",
		},
	})
}

func (inv *invocation) validateTenant(ctx context.Context) error {
	t, err := inv.svc.tenants.FindByID(ctx, inv.req.TenantID)
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound), errors.Is(err, tenant.ErrInvalidIdentifier):
		return fmt.Errorf("%w: %s", ErrTenantNotFound, inv.req.TenantID)
	case err != nil:
		return errors.Join(ErrUnavailable, err)
	case t == nil:
		return fmt.Errorf("%w: %s", ErrTenantNotFound, inv.req.TenantID)
	case !t.Active:
		return errors.Join(fmt.Errorf("%w: %s", ErrTenantNotFound, inv.req.TenantID), tenant.ErrInactiveTenant)
	}
	inv.tenant = t

	inv.svc.telemetry.Record(ctx, telemetry.Breadcrumb{
		Category: breadcrumbCategory,
		Message:  "Sending Email",
		Level:    telemetry.LevelInfo,
		Data:     map[string]any{"tenant_id": inv.req.TenantID, "environment_id": inv.req.EnvironmentID},
	})
	return nil
}

func (inv *invocation) resolveCredential(ctx context.Context) error {
	cred, err := inv.svc.resolver.Resolve(ctx, integration.Query{
		TenantID:      inv.req.TenantID,
		EnvironmentID: inv.req.EnvironmentID,
		Channel:       integration.ChannelEmail,
		ActorID:       inv.req.ActorID,
	})
	switch {
	case errors.Is(err, integration.ErrIntegrationMissing):
		return ErrIntegrationMissing
	case errors.Is(err, integration.ErrInvalidQuery):
		return errors.Join(ErrInvalidRequest, err)
	case err != nil:
		return errors.Join(ErrUnavailable, err)
	}
	inv.cred = cred
	return nil
}

func (inv *invocation) buildContext(context.Context) error {
	inv.data = variables.BuildContext(inv.req.Payload, inv.tenant.Branding())
	return nil
}

func (inv *invocation) render(ctx context.Context) error {
	msg, err := inv.svc.renderer.Render(ctx, inv.req.TenantID, inv.req.Template, inv.data)
	if err != nil {
		return errors.Join(ErrRenderFailure, err)
	}
	if msg == nil {
		return fmt.Errorf("%w: renderer returned no message", ErrRenderFailure)
	}
	inv.msg = msg
	return nil
}

func (inv *invocation) dispatch(ctx context.Context) error {
	from := ResolveSender(inv.req.SenderOverride, inv.req.Payload, inv.cred.Credentials.From, inv.svc.fallback)
	if !email.IsValidAddress(from) {
		return fmt.Errorf("%w: invalid sender address %q", ErrInvalidRequest, from)
	}

	attrs := []any{
		logger.TenantID(inv.req.TenantID),
		logger.EnvironmentID(inv.req.EnvironmentID),
		logger.Provider(string(inv.cred.Provider)),
	}
	logErr := func(msg string, err error, extra ...any) {
		args := append(append(attrs[:len(attrs):len(attrs)], logger.Error(err)), extra...)
		inv.svc.log.ErrorContext(ctx, msg, args...)
	}

	sender, err := inv.svc.factory.HandlerFor(ctx, inv.cred, from)
	if errors.Is(err, email.ErrUnknownProvider) {
		logErr("test send: provider not registered", err)
		return fmt.Errorf("%w: %q", ErrConfigurationDefect, inv.cred.Provider)
	}
	if err != nil {
		logErr("test send: failed to build provider sender", err)
		return ErrProviderError
	}

	err = sender.Send(ctx, email.Message{
		To:      inv.to,
		From:    from,
		Subject: inv.msg.Subject,
		HTML:    inv.msg.Body,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logErr("test send: provider error", err, slog.Int("recipients", len(inv.to)))
		return ErrProviderError
	}
	return nil
}
