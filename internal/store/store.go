// Package store persists the provider's credential records: users, face
// profiles, OAuth clients, authorization codes, and tokens. All reads treat
// expired records as absent; redemption primitives are atomic so concurrent
// requests racing on the same code or refresh token see exactly one success.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/facegate/facegate/pkg/models"
)

var (
	// ErrNotFound is returned when a record is absent or expired.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a record with the same key already exists.
	ErrConflict = errors.New("record already exists")
)

// Store is the credential store consumed by the protocol engine.
type Store interface {
	// Users
	PutUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	// Face profiles. ListFaceProfiles returns profiles in ascending UserID
	// order so matching decisions are deterministic across calls.
	PutFaceProfile(ctx context.Context, p *models.FaceProfile) error
	GetFaceProfile(ctx context.Context, userID string) (*models.FaceProfile, error)
	ListFaceProfiles(ctx context.Context) ([]models.FaceProfile, error)

	// OAuth clients
	PutClient(ctx context.Context, c *models.OAuthClient) error
	GetClient(ctx context.Context, clientID string) (*models.OAuthClient, error)

	// Authorization codes. ConsumeCode atomically fetches and deletes a
	// code; absent, expired, or already-consumed codes yield ErrNotFound.
	PutCode(ctx context.Context, c *models.AuthorizationCode) error
	ConsumeCode(ctx context.Context, code string) (*models.AuthorizationCode, error)

	// Tokens. ConsumeToken is the atomic redemption primitive for refresh
	// rotation; DeleteToken is idempotent for revocation.
	PutToken(ctx context.Context, t *models.Token) error
	GetToken(ctx context.Context, value string) (*models.Token, error)
	ConsumeToken(ctx context.Context, value string) (*models.Token, error)
	DeleteToken(ctx context.Context, value string) error

	// DeleteSubjectCredentials removes every token and authorization code
	// for a user. Used by back-channel logout.
	DeleteSubjectCredentials(ctx context.Context, userID string) error

	// Sweep removes records past their expiry. Purely an out-of-band
	// janitor: correctness never depends on it.
	Sweep(ctx context.Context, now time.Time) error

	Close() error
}
