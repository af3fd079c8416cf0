package integration_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/integration"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindActive(ctx context.Context, q integration.Query) (*integration.CredentialSet, error) {
	args := m.Called(ctx, q)
	set, _ := args.Get(0).(*integration.CredentialSet)
	return set, args.Error(1)
}

func emailQuery() integration.Query {
	return integration.Query{
		TenantID:      "t1",
		EnvironmentID: "e1",
		Channel:       integration.ChannelEmail,
		ActorID:       "u1",
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns the active set", func(t *testing.T) {
		t.Parallel()

		set := &integration.CredentialSet{
			ID:          "i1",
			Channel:     integration.ChannelEmail,
			Provider:    "postmark",
			Credentials: integration.Credentials{APIKey: "key", From: "no-reply@z.com"},
			Active:      true,
		}
		store := new(mockStore)
		store.On("FindActive", ctx, emailQuery()).Return(set, nil)

		got, err := integration.NewResolver(store).Resolve(ctx, emailQuery())
		require.NoError(t, err)
		assert.Equal(t, *set, got)
		store.AssertExpectations(t)
	})

	t.Run("not found becomes integration missing", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("FindActive", ctx, emailQuery()).Return(nil, integration.ErrCredentialNotFound)

		_, err := integration.NewResolver(store).Resolve(ctx, emailQuery())
		assert.ErrorIs(t, err, integration.ErrIntegrationMissing)
	})

	t.Run("inactive set is rejected", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("FindActive", ctx, emailQuery()).Return(&integration.CredentialSet{
			Channel: integration.ChannelEmail,
			Active:  false,
		}, nil)

		_, err := integration.NewResolver(store).Resolve(ctx, emailQuery())
		assert.ErrorIs(t, err, integration.ErrIntegrationMissing)
	})

	t.Run("channel mismatch is rejected", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("FindActive", ctx, emailQuery()).Return(&integration.CredentialSet{
			Channel: integration.ChannelSMS,
			Active:  true,
		}, nil)

		_, err := integration.NewResolver(store).Resolve(ctx, emailQuery())
		assert.ErrorIs(t, err, integration.ErrIntegrationMissing)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection refused")
		store := new(mockStore)
		store.On("FindActive", ctx, emailQuery()).Return(nil, boom)

		_, err := integration.NewResolver(store).Resolve(ctx, emailQuery())
		assert.ErrorIs(t, err, integration.ErrStoreFailure)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, integration.ErrIntegrationMissing)
	})

	t.Run("invalid query never reaches the store", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		_, err := integration.NewResolver(store).Resolve(ctx, integration.Query{TenantID: "t1"})
		assert.ErrorIs(t, err, integration.ErrInvalidQuery)
		store.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything)
	})
}

func TestMemoryStore_FindActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := integration.NewMemoryStore(
		integration.CredentialSet{ID: "inactive", TenantID: "t1", EnvironmentID: "e1", Channel: integration.ChannelEmail, Active: false},
		integration.CredentialSet{ID: "sms", TenantID: "t1", EnvironmentID: "e1", Channel: integration.ChannelSMS, Active: true},
		integration.CredentialSet{ID: "other-env", TenantID: "t1", EnvironmentID: "e2", Channel: integration.ChannelEmail, Active: true},
		integration.CredentialSet{ID: "first", TenantID: "t1", EnvironmentID: "e1", Channel: integration.ChannelEmail, Active: true},
		integration.CredentialSet{ID: "second", TenantID: "t1", EnvironmentID: "e1", Channel: integration.ChannelEmail, Active: true},
	)

	got, err := store.FindActive(ctx, emailQuery())
	require.NoError(t, err)
	assert.Equal(t, "first", got.ID)

	_, err = store.FindActive(ctx, integration.Query{TenantID: "t2", EnvironmentID: "e1", Channel: integration.ChannelEmail})
	assert.ErrorIs(t, err, integration.ErrCredentialNotFound)

	store.Add(integration.CredentialSet{ID: "t2", TenantID: "t2", EnvironmentID: "e1", Channel: integration.ChannelEmail, Active: true})
	got, err = store.FindActive(ctx, integration.Query{TenantID: "t2", EnvironmentID: "e1", Channel: integration.ChannelEmail})
	require.NoError(t, err)
	assert.Equal(t, "t2", got.ID)
}

func TestMemoryStore_ReturnsCopy(t *testing.T) {
	t.Parallel()

	store := integration.NewMemoryStore(integration.CredentialSet{
		ID: "i1", TenantID: "t1", EnvironmentID: "e1", Channel: integration.ChannelEmail, Active: true,
		Credentials: integration.Credentials{From: "a@b.com"},
	})

	got, err := store.FindActive(context.Background(), emailQuery())
	require.NoError(t, err)
	got.Credentials.From = "changed@b.com"

	again, err := store.FindActive(context.Background(), emailQuery())
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", again.Credentials.From)
}
