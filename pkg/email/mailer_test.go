package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/integration"
)

func validMessage() email.Message {
	return email.Message{
		To:      []string{"a@b.com"},
		From:    "team@acme.test",
		Subject: "Test Subject",
		HTML:    "<p>Test body</p>",
	}
}

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*email.Message)
		wantErr bool
		errMsg  string
	}{
		{name: "valid message", modify: func(*email.Message) {}},
		{
			name:   "multiple recipients",
			modify: func(m *email.Message) { m.To = []string{"a@b.com", "test.user+tag@sub.example.com"} },
		},
		{
			name:    "no recipients",
			modify:  func(m *email.Message) { m.To = nil },
			wantErr: true,
			errMsg:  "To is required",
		},
		{
			name:    "invalid recipient",
			modify:  func(m *email.Message) { m.To = []string{"a@b.com", "invalid-email"} },
			wantErr: true,
			errMsg:  "To must contain valid email addresses",
		},
		{
			name:    "invalid sender",
			modify:  func(m *email.Message) { m.From = "@acme.test" },
			wantErr: true,
			errMsg:  "From must be a valid email address",
		},
		{
			name:    "whitespace body",
			modify:  func(m *email.Message) { m.HTML = "   " },
			wantErr: true,
			errMsg:  "HTML is required",
		},
		{
			name:   "empty subject is allowed",
			modify: func(m *email.Message) { m.Subject = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := validMessage()
			tt.modify(&msg)

			err := msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, email.ErrInvalidParams)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_HandlerFor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()

		registry := email.NewRegistry()
		_, err := registry.HandlerFor(ctx, integration.CredentialSet{Provider: "carrier-pigeon"}, "team@acme.test")
		assert.ErrorIs(t, err, email.ErrUnknownProvider)
		assert.Contains(t, err.Error(), "carrier-pigeon")
	})

	t.Run("passes credentials and sender to the factory", func(t *testing.T) {
		t.Parallel()

		var (
			gotCreds integration.Credentials
			gotFrom  string
		)
		spy := email.SenderFunc(func(context.Context, email.Message) error { return nil })
		registry := email.NewRegistry(email.WithProvider("spy", func(_ context.Context, creds integration.Credentials, from string) (email.Sender, error) {
			gotCreds = creds
			gotFrom = from
			return spy, nil
		}))

		sender, err := registry.HandlerFor(ctx, integration.CredentialSet{
			Provider:    "spy",
			Credentials: integration.Credentials{APIKey: "k"},
		}, "team@acme.test")
		require.NoError(t, err)
		require.NotNil(t, sender)
		assert.Equal(t, "k", gotCreds.APIKey)
		assert.Equal(t, "team@acme.test", gotFrom)
	})

	t.Run("nil factories are ignored", func(t *testing.T) {
		t.Parallel()

		registry := email.NewRegistry(email.WithProvider("nil", nil), email.WithProvider("", email.DevFactory(t.TempDir())))
		assert.Empty(t, registry.Providers())
	})
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	registry := email.DefaultRegistry(email.WithDevDirectory(t.TempDir()))
	assert.Equal(t, []integration.ProviderID{
		email.ProviderDev,
		email.ProviderPostmark,
		email.ProviderS3,
		email.ProviderSMTP,
	}, registry.Providers())

	_, err := registry.HandlerFor(context.Background(), integration.CredentialSet{Provider: email.ProviderPostmark}, "team@acme.test")
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}
