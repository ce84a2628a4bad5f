package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/facegate/internal/store"
	"github.com/facegate/facegate/pkg/models"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	reg := New(store.NewMemory())

	client, err := reg.Register(ctx, "My App", []string{"https://app.example.com/cb"}, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, client.ClientID)
	assert.NotEmpty(t, client.ClientSecret)
	assert.Equal(t, []string{"authorization_code", "refresh_token"}, client.GrantTypes)

	got, err := reg.Lookup(ctx, client.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "My App", got.Name)
}

func TestRegister_RequiresRedirectURI(t *testing.T) {
	ctx := context.Background()
	reg := New(store.NewMemory())

	_, err := reg.Register(ctx, "App", nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = reg.Register(ctx, "App", []string{""}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	reg := New(store.NewMemory())

	client, err := reg.Register(ctx, "App", []string{"https://a/cb"}, nil, nil)
	require.NoError(t, err)

	got, err := reg.Authenticate(ctx, client.ClientID, client.ClientSecret)
	require.NoError(t, err)
	assert.Equal(t, client.ClientID, got.ClientID)

	_, err = reg.Authenticate(ctx, client.ClientID, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = reg.Authenticate(ctx, "missing", "whatever")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateRedirectURI_ExactMatch(t *testing.T) {
	reg := New(store.NewMemory())
	client := &models.OAuthClient{
		RedirectURIs: []string{"https://app.example.com/cb"},
	}

	assert.NoError(t, reg.ValidateRedirectURI(client, "https://app.example.com/cb"))
	assert.ErrorIs(t, reg.ValidateRedirectURI(client, "https://app.example.com/cb/"), ErrRedirectMismatch)
	assert.ErrorIs(t, reg.ValidateRedirectURI(client, "https://evil.example.com/cb"), ErrRedirectMismatch)
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	reg := New(store.NewMemory())

	seed := &models.OAuthClient{
		ClientID:     "static-client",
		ClientSecret: "static-secret",
		RedirectURIs: []string{"https://a/cb"},
	}
	require.NoError(t, reg.Seed(ctx, seed))
	require.NoError(t, reg.Seed(ctx, seed))

	got, err := reg.Lookup(ctx, "static-client")
	require.NoError(t, err)
	assert.Equal(t, "static-secret", got.ClientSecret)
}
