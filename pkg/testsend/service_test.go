package testsend_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/integration"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/render"
	"github.com/dmitrymomot/notifykit/pkg/telemetry"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
	"github.com/dmitrymomot/notifykit/pkg/testsend"
)

// harness records the order of every collaborator call.
type harness struct {
	mu    sync.Mutex
	calls []string

	tenant    *tenant.Tenant
	tenantErr error

	cred    integration.CredentialSet
	credErr error

	renderFn   func(ctx context.Context) (*render.Message, error)
	renderData map[string]any

	factoryErr  error
	factoryFrom string

	sendErr error
	sent    []email.Message
}

func newHarness() *harness {
	return &harness{
		tenant: &tenant.Tenant{ID: uuid.New(), Name: "Acme", Logo: "https://acme.test/logo.png", Color: "#112233", Active: true},
		cred: integration.CredentialSet{
			ID:            "int-1",
			TenantID:      "t1",
			EnvironmentID: "e1",
			Channel:       integration.ChannelEmail,
			Provider:      "spy",
			Credentials:   integration.Credentials{APIKey: "key", From: "no-reply@z.com"},
			Active:        true,
		},
	}
}

func (h *harness) record(call string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
}

func (h *harness) FindByID(_ context.Context, _ string) (*tenant.Tenant, error) {
	h.record("tenant")
	if h.tenantErr != nil {
		return nil, h.tenantErr
	}
	return h.tenant, nil
}

func (h *harness) Resolve(_ context.Context, q integration.Query) (integration.CredentialSet, error) {
	h.record("resolve:" + string(q.Channel))
	if h.credErr != nil {
		return integration.CredentialSet{}, h.credErr
	}
	return h.cred, nil
}

func (h *harness) Render(ctx context.Context, _ string, _ render.Ref, data map[string]any) (*render.Message, error) {
	h.record("render")
	h.renderData = data
	if h.renderFn != nil {
		return h.renderFn(ctx)
	}
	return &render.Message{Subject: "Hello", Body: "<p>Hello</p>"}, nil
}

func (h *harness) HandlerFor(_ context.Context, cred integration.CredentialSet, from string) (email.Sender, error) {
	h.record("handler:" + string(cred.Provider))
	h.factoryFrom = from
	if h.factoryErr != nil {
		return nil, h.factoryErr
	}
	return email.SenderFunc(func(_ context.Context, msg email.Message) error {
		h.record("send")
		h.sent = append(h.sent, msg)
		return h.sendErr
	}), nil
}

func (h *harness) service(opts ...testsend.Option) *testsend.Service {
	return testsend.NewService(testsend.Config{}, h, h, h, h, opts...)
}

func validRequest() testsend.Request {
	return testsend.Request{
		TenantID:      "t1",
		EnvironmentID: "e1",
		To:            testsend.Recipients{"a@b.com"},
		Template:      render.Ref{ID: "welcome"},
		Payload: map[string]any{
			"subscriber.name":  "Ann",
			"step.total_count": 5,
			"$sender_email":    "x@y.com",
		},
	}
}

func TestService_Execute_EndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness()
	err := h.service().Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"tenant", "resolve:email", "render", "handler:spy", "send"}, h.calls)

	assert.Equal(t, map[string]any{"name": "Ann"}, h.renderData["subscriber"])
	assert.Equal(t, map[string]any{"digest": true, "events": []any{}, "total_count": 5}, h.renderData["step"])
	assert.Equal(t, map[string]any{
		"name":  "Acme",
		"logo":  "https://acme.test/logo.png",
		"color": "#112233",
	}, h.renderData["branding"])
	assert.Equal(t, "x@y.com", h.renderData["$sender_email"])

	assert.Equal(t, "x@y.com", h.factoryFrom)
	require.Len(t, h.sent, 1)
	assert.Equal(t, email.Message{
		To:      []string{"a@b.com"},
		From:    "x@y.com",
		Subject: "Hello",
		HTML:    "<p>Hello</p>",
	}, h.sent[0])
}

func TestService_Execute_IntegrationMissing(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.credErr = integration.ErrIntegrationMissing

	err := h.service().Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, testsend.ErrIntegrationMissing)
	assert.Equal(t, testsend.KindIntegrationMissing, testsend.KindOf(err))
	assert.Equal(t, []string{"tenant", "resolve:email"}, h.calls)
	assert.Empty(t, h.sent)
}

func TestService_Execute_IntegrationMissingWithRealResolver(t *testing.T) {
	t.Parallel()

	h := newHarness()
	store := integration.NewMemoryStore(integration.CredentialSet{
		TenantID:      "t1",
		EnvironmentID: "e1",
		Channel:       integration.ChannelSMS,
		Provider:      "twilio",
		Active:        true,
	})
	svc := testsend.NewService(testsend.Config{}, h, integration.NewResolver(store), h, h)

	err := svc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, testsend.ErrIntegrationMissing)
	assert.Equal(t, []string{"tenant"}, h.calls)
}

func TestService_Execute_TenantNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		tnt  *tenant.Tenant
	}{
		{name: "not found", err: tenant.ErrTenantNotFound},
		{name: "malformed id", err: tenant.ErrInvalidIdentifier},
		{name: "inactive", tnt: &tenant.Tenant{ID: uuid.New(), Active: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			h.tenantErr = tt.err
			if tt.tnt != nil {
				h.tenant = tt.tnt
			}

			sink := telemetry.SinkFunc(func(_ context.Context, b telemetry.Breadcrumb) {
				h.record("telemetry:" + b.Message)
			})

			err := h.service(testsend.WithTelemetry(sink)).Execute(context.Background(), validRequest())
			assert.ErrorIs(t, err, testsend.ErrTenantNotFound)
			assert.Equal(t, testsend.KindTenantNotFound, testsend.KindOf(err))
			assert.Equal(t, []string{"tenant", "telemetry:stage failed"}, h.calls)
		})
	}
}

func TestService_Execute_StoreFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")

	h := newHarness()
	h.tenantErr = boom
	err := h.service().Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, testsend.ErrUnavailable)
	assert.True(t, testsend.KindOf(err).Retryable())

	h = newHarness()
	h.credErr = errors.Join(integration.ErrStoreFailure, boom)
	err = h.service().Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, testsend.ErrUnavailable)
	assert.Equal(t, []string{"tenant", "resolve:email"}, h.calls)
}

func TestService_Execute_RenderFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.renderFn = func(context.Context) (*render.Message, error) {
		return nil, errors.Join(render.ErrRenderFailed, errors.New(`map has no entry for key "lastName"`))
	}

	err := h.service().Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, testsend.ErrRenderFailure)
	assert.ErrorIs(t, err, render.ErrRenderFailed)
	assert.Equal(t, testsend.KindRenderFailure, testsend.KindOf(err))
	assert.Equal(t, []string{"tenant", "resolve:email", "render"}, h.calls)
}

// failingSource fails every template load with a backend error.
type failingSource struct{ err error }

func (f failingSource) Load(context.Context, string, string) (*render.Template, error) {
	return nil, f.err
}

func TestService_Execute_TemplateStoreFailureIsRenderFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	renderer := render.NewTemplateRenderer(failingSource{err: errors.New("mongo: connection refused")})
	svc := testsend.NewService(testsend.Config{}, h, h, renderer, h)

	err := svc.Execute(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, testsend.ErrRenderFailure)
	assert.Equal(t, testsend.KindRenderFailure, testsend.KindOf(err))
	assert.NotErrorIs(t, err, testsend.ErrUnavailable)
	assert.Empty(t, h.sent)
}

func TestService_Execute_ProviderErrorIsOpaque(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := newHarness()
	h.sendErr = errors.New("postmark error: 406 - inactive recipient secret-detail")

	err := h.service(testsend.WithLogger(log)).Execute(context.Background(), validRequest())
	require.Error(t, err)
	assert.Same(t, testsend.ErrProviderError, err)
	assert.NotContains(t, err.Error(), "secret-detail")
	assert.Contains(t, logs.String(), "secret-detail")
	assert.Contains(t, logs.String(), `"provider":"spy"`)
}

func TestService_Execute_LogsCarryTenantOnce(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithLevel(slog.LevelDebug),
		logger.WithOutput(&logs),
		logger.WithContextExtractors(tenant.LogExtractor),
	)

	h := newHarness()
	h.sendErr = errors.New("smtp: 554 rejected")

	err := h.service(testsend.WithLogger(log)).Execute(context.Background(), validRequest())
	require.ErrorIs(t, err, testsend.ErrProviderError)

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		assert.LessOrEqual(t, bytes.Count(line, []byte(`"tenant_id"`)), 1, string(line))
		if bytes.Contains(line, []byte("test send: provider error")) {
			found = true
			var entry map[string]any
			require.NoError(t, json.Unmarshal(line, &entry))
			assert.Equal(t, "t1", entry["tenant_id"])
			assert.Equal(t, "smtp: 554 rejected", entry["error"])
			assert.EqualValues(t, 1, entry["recipients"])
		}
	}
	assert.True(t, found)
}

func TestService_Execute_FactoryErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown provider is a configuration defect", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		h.cred.Provider = "carrier-pigeon"
		svc := testsend.NewService(testsend.Config{}, h, h, h, email.NewRegistry())

		err := svc.Execute(context.Background(), validRequest())
		assert.ErrorIs(t, err, testsend.ErrConfigurationDefect)
		assert.Equal(t, testsend.KindConfigurationDefect, testsend.KindOf(err))
		assert.False(t, testsend.KindOf(err).Retryable())
	})

	t.Run("broken credentials are a provider error", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		h.factoryErr = email.ErrInvalidConfig

		err := h.service().Execute(context.Background(), validRequest())
		assert.ErrorIs(t, err, testsend.ErrProviderError)
		assert.NotErrorIs(t, err, email.ErrInvalidConfig)
		assert.NotContains(t, h.calls, "send")
	})
}

func TestService_Execute_Recipients(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
		want []string
	}{
		{name: "single string", json: `"a@b.com"`, want: []string{"a@b.com"}},
		{name: "list", json: `["a@b.com", " c@d.com "]`, want: []string{"a@b.com", "c@d.com"}},
		{name: "list with blanks", json: `["", "a@b.com", "  "]`, want: []string{"a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := `{"tenantId":"t1","environmentId":"e1","template":{"id":"welcome"},"to":` + tt.json + `}`
			var req testsend.Request
			require.NoError(t, json.Unmarshal([]byte(raw), &req))

			h := newHarness()
			require.NoError(t, h.service().Execute(context.Background(), req))
			require.Len(t, h.sent, 1)
			assert.Equal(t, tt.want, h.sent[0].To)
		})
	}
}

func TestService_Execute_InvalidRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*testsend.Request)
	}{
		{name: "no tenant", modify: func(r *testsend.Request) { r.TenantID = " " }},
		{name: "no environment", modify: func(r *testsend.Request) { r.EnvironmentID = "" }},
		{name: "no template", modify: func(r *testsend.Request) { r.Template = render.Ref{} }},
		{name: "no recipients", modify: func(r *testsend.Request) { r.To = nil }},
		{name: "blank recipients", modify: func(r *testsend.Request) { r.To = testsend.Recipients{" ", ""} }},
		{name: "malformed recipient", modify: func(r *testsend.Request) { r.To = testsend.Recipients{"not-an-email"} }},
		{name: "malformed override", modify: func(r *testsend.Request) { r.SenderOverride = "nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validRequest()
			tt.modify(&req)

			h := newHarness()
			err := h.service().Execute(context.Background(), req)
			assert.ErrorIs(t, err, testsend.ErrInvalidRequest)
			assert.Equal(t, testsend.KindInvalidRequest, testsend.KindOf(err))
			assert.Empty(t, h.calls)
		})
	}

	t.Run("malformed payload sender is caught before dispatch", func(t *testing.T) {
		t.Parallel()

		req := validRequest()
		req.Payload["$sender_email"] = "broken"

		h := newHarness()
		err := h.service().Execute(context.Background(), req)
		assert.ErrorIs(t, err, testsend.ErrInvalidRequest)
		assert.Equal(t, []string{"tenant", "resolve:email", "render"}, h.calls)
	})
}

func TestService_Execute_SenderPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		override   string
		payload    string
		credential string
		want       string
	}{
		{name: "override wins", override: "c@c.com", payload: "a@a.com", credential: "b@b.com", want: "c@c.com"},
		{name: "payload beats credential", payload: "a@a.com", credential: "b@b.com", want: "a@a.com"},
		{name: "credential default", credential: "b@b.com", want: "b@b.com"},
		{name: "fallback", want: "fallback@notifykit.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			h.cred.Credentials.From = tt.credential

			req := validRequest()
			req.SenderOverride = tt.override
			delete(req.Payload, "$sender_email")
			if tt.payload != "" {
				req.Payload["$sender_email"] = tt.payload
			}

			svc := testsend.NewService(testsend.Config{FallbackSender: "fallback@notifykit.test"}, h, h, h, h)
			require.NoError(t, svc.Execute(context.Background(), req))
			require.Len(t, h.sent, 1)
			assert.Equal(t, tt.want, h.sent[0].From)
			assert.Equal(t, tt.want, h.factoryFrom)
		})
	}
}

func TestService_Execute_Cancellation(t *testing.T) {
	t.Parallel()

	t.Run("cancelled before start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := newHarness()
		err := h.service().Execute(ctx, validRequest())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, h.calls)
	})

	t.Run("cancelled during render", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := newHarness()
		h.renderFn = func(context.Context) (*render.Message, error) {
			cancel()
			return &render.Message{Subject: "s", Body: "<p>b</p>"}, nil
		}

		var crumbs []telemetry.Breadcrumb
		sink := telemetry.SinkFunc(func(_ context.Context, b telemetry.Breadcrumb) { crumbs = append(crumbs, b) })

		err := h.service(testsend.WithTelemetry(sink)).Execute(ctx, validRequest())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, testsend.KindCanceled, testsend.KindOf(err))
		assert.Equal(t, []string{"tenant", "resolve:email", "render"}, h.calls)
		for _, b := range crumbs {
			assert.NotEqual(t, "render", b.Data[telemetry.KeyStage], "render must not complete after cancellation")
		}
	})

	t.Run("renderer failing because of cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := newHarness()
		h.renderFn = func(ctx context.Context) (*render.Message, error) {
			cancel()
			return nil, errors.Join(render.ErrRenderFailed, ctx.Err())
		}

		err := h.service().Execute(ctx, validRequest())
		assert.Same(t, context.Canceled, err)
		assert.Empty(t, h.sent)
	})
}

func TestService_Execute_Telemetry(t *testing.T) {
	t.Parallel()

	t.Run("breadcrumbs per stage", func(t *testing.T) {
		t.Parallel()

		var crumbs []telemetry.Breadcrumb
		sink := telemetry.SinkFunc(func(_ context.Context, b telemetry.Breadcrumb) { crumbs = append(crumbs, b) })

		h := newHarness()
		require.NoError(t, h.service(testsend.WithTelemetry(sink)).Execute(context.Background(), validRequest()))

		require.Len(t, crumbs, 6)
		assert.Equal(t, "Sending Email", crumbs[0].Message)
		stages := make([]any, 0, 5)
		for _, b := range crumbs[1:] {
			assert.Equal(t, "ok", b.Data[telemetry.KeyOutcome])
			stages = append(stages, b.Data[telemetry.KeyStage])
		}
		assert.Equal(t, []any{"validate_tenant", "resolve_credential", "build_context", "render", "dispatch"}, stages)
	})

	t.Run("failure breadcrumb carries the kind", func(t *testing.T) {
		t.Parallel()

		var crumbs []telemetry.Breadcrumb
		sink := telemetry.SinkFunc(func(_ context.Context, b telemetry.Breadcrumb) { crumbs = append(crumbs, b) })

		h := newHarness()
		h.credErr = integration.ErrIntegrationMissing
		_ = h.service(testsend.WithTelemetry(sink)).Execute(context.Background(), validRequest())

		last := crumbs[len(crumbs)-1]
		assert.Equal(t, telemetry.LevelWarning, last.Level)
		assert.Equal(t, "resolve_credential", last.Data[telemetry.KeyStage])
		assert.Equal(t, string(testsend.KindIntegrationMissing), last.Data[telemetry.KeyOutcome])
	})

	t.Run("stages after a failure never run", func(t *testing.T) {
		t.Parallel()

		var crumbs []telemetry.Breadcrumb
		sink := telemetry.SinkFunc(func(_ context.Context, b telemetry.Breadcrumb) { crumbs = append(crumbs, b) })

		h := newHarness()
		h.renderFn = func(context.Context) (*render.Message, error) {
			return nil, render.ErrTemplateNotFound
		}
		err := h.service(testsend.WithTelemetry(sink)).Execute(context.Background(), validRequest())
		require.ErrorIs(t, err, testsend.ErrRenderFailure)

		got := make([]string, 0, len(crumbs))
		for _, b := range crumbs[1:] {
			got = append(got, b.Message+":"+b.Data[telemetry.KeyStage].(string))
		}
		assert.Equal(t, []string{
			"stage completed:validate_tenant",
			"stage completed:resolve_credential",
			"stage completed:build_context",
			"stage failed:render",
		}, got)
		assert.Equal(t, []string{"tenant", "resolve:email", "render"}, h.calls)
	})

	t.Run("panicking sink never affects dispatch", func(t *testing.T) {
		t.Parallel()

		sink := telemetry.SinkFunc(func(context.Context, telemetry.Breadcrumb) { panic("telemetry down") })
		log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

		h := newHarness()
		err := h.service(testsend.WithTelemetry(sink), testsend.WithLogger(log)).Execute(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Len(t, h.sent, 1)
	})
}

func TestService_Execute_WithRealComponents(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	tenants := tenant.NewMemoryStore(&tenant.Tenant{ID: tenantID, Name: "Acme", Color: "#ff0066", Active: true})

	creds := integration.NewMemoryStore(integration.CredentialSet{
		ID:            "int-1",
		TenantID:      tenantID.String(),
		EnvironmentID: "production",
		Channel:       integration.ChannelEmail,
		Provider:      email.ProviderDev,
		Credentials:   integration.Credentials{From: "team@acme.test"},
		Active:        true,
	})

	templates := render.NewMemorySource()
	templates.Add(tenantID.String(), render.Template{
		ID:      "welcome",
		Subject: "Welcome {{.subscriber.firstName}}",
		Body:    "<p>Hi {{.subscriber.firstName}}, you have {{.step.total_count}} events</p>",
		Layout:  true,
	})

	dir := t.TempDir()
	svc := testsend.NewService(
		testsend.Config{},
		tenants,
		integration.NewResolver(creds),
		render.NewTemplateRenderer(templates),
		email.DefaultRegistry(email.WithDevDirectory(dir)),
	)

	err := svc.Execute(context.Background(), testsend.Request{
		TenantID:      tenantID.String(),
		EnvironmentID: "production",
		To:            testsend.Recipients{"ann@example.com"},
		Template:      render.Ref{ID: "welcome"},
		Payload:       map[string]any{"subscriber.firstName": "Ann"},
	})
	require.NoError(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, f := range files {
		content, err := os.ReadFile(dir + "/" + f.Name())
		require.NoError(t, err)
		if json.Valid(content) {
			var meta map[string]any
			require.NoError(t, json.Unmarshal(content, &meta))
			assert.Equal(t, "Welcome Ann", meta["subject"])
			assert.Equal(t, "team@acme.test", meta["from"])
			continue
		}
		assert.Contains(t, string(content), "Hi Ann, you have 1 events")
		assert.Contains(t, string(content), "#ff0066")
	}
}
