// Package registry manages OAuth2 client records: dynamic registration,
// credential checks and redirect URI validation.
package registry

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/facegate/facegate/internal/store"
	"github.com/facegate/facegate/pkg/models"
)

var (
	// ErrInvalidMetadata indicates a registration request that cannot produce
	// a usable client, e.g. no redirect URIs.
	ErrInvalidMetadata = errors.New("invalid client metadata")

	// ErrUnauthorized indicates a failed client credential check.
	ErrUnauthorized = errors.New("client authentication failed")

	// ErrRedirectMismatch indicates a redirect URI outside the client's
	// registered set.
	ErrRedirectMismatch = errors.New("redirect_uri not registered for client")
)

// Registry provides client lookup and registration on top of the store.
type Registry struct {
	store store.Store
}

func New(s store.Store) *Registry {
	return &Registry{store: s}
}

// Register creates a new client with a generated client_id and secret.
// Missing grant types and scopes fall back to sensible defaults; missing
// redirect URIs are an error.
func (r *Registry) Register(ctx context.Context, name string, redirectURIs, grantTypes, scopes []string) (*models.OAuthClient, error) {
	if len(redirectURIs) == 0 {
		return nil, ErrInvalidMetadata
	}
	for _, uri := range redirectURIs {
		if uri == "" {
			return nil, ErrInvalidMetadata
		}
	}

	if len(grantTypes) == 0 {
		grantTypes = []string{"authorization_code", "refresh_token"}
	}
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client secret: %w", err)
	}

	client := &models.OAuthClient{
		ClientID:     uuid.New().String(),
		ClientSecret: secret,
		Name:         name,
		RedirectURIs: redirectURIs,
		GrantTypes:   grantTypes,
		Scopes:       scopes,
		CreatedAt:    time.Now().UTC(),
	}

	if err := r.store.PutClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to persist client: %w", err)
	}
	return client, nil
}

// Seed installs a statically configured client, replacing nothing if the
// client already exists.
func (r *Registry) Seed(ctx context.Context, client *models.OAuthClient) error {
	if client.ClientID == "" || len(client.RedirectURIs) == 0 {
		return ErrInvalidMetadata
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}
	err := r.store.PutClient(ctx, client)
	if errors.Is(err, store.ErrConflict) {
		return nil
	}
	return err
}

// Lookup fetches a client by ID.
func (r *Registry) Lookup(ctx context.Context, clientID string) (*models.OAuthClient, error) {
	return r.store.GetClient(ctx, clientID)
}

// Authenticate verifies the client_id and client_secret pair. The secret
// comparison is constant time.
func (r *Registry) Authenticate(ctx context.Context, clientID, clientSecret string) (*models.OAuthClient, error) {
	client, err := r.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(clientSecret)) != 1 {
		return nil, ErrUnauthorized
	}
	return client, nil
}

// ValidateRedirectURI checks the URI against the client's registered set
// using exact string comparison.
func (r *Registry) ValidateRedirectURI(client *models.OAuthClient, redirectURI string) error {
	for _, registered := range client.RedirectURIs {
		if registered == redirectURI {
			return nil
		}
	}
	return ErrRedirectMismatch
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
