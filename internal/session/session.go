// Package session manages short-lived browser sessions used to stage
// registration data between page loads. Sessions are keyed by a cookie and
// deleted as soon as the flow that created them finishes.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CookieName is the browser cookie carrying the session ID.
const CookieName = "fg_session"

// ErrNotFound indicates the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// PendingProfile holds registration form data captured before the face
// image is confirmed.
type PendingProfile struct {
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number"`
}

// Session is the ephemeral state of one browser flow.
type Session struct {
	ID        string          `json:"id"`
	Pending   *PendingProfile `json:"pending,omitempty"`
	UploadRef string          `json:"upload_ref,omitempty"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Backend stores sessions with a TTL.
type Backend interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

func newSession(ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.New().String(),
		ExpiresAt: time.Now().Add(ttl),
	}
}
