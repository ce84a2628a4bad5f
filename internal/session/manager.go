package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// Manager ties sessions to browser cookies and guarantees cleanup through
// the Scope type.
type Manager struct {
	backend Backend
	ttl     time.Duration
	secure  bool
}

func NewManager(backend Backend, ttl time.Duration, secureCookies bool) *Manager {
	return &Manager{backend: backend, ttl: ttl, secure: secureCookies}
}

// Destroy removes a session by ID regardless of any outstanding scope.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.backend.Delete(ctx, id)
}

// Scope is a handle on one session for the duration of a request. Callers
// must call Release when the flow ends; Release is idempotent and safe to
// defer on every exit path.
type Scope struct {
	Session *Session

	manager  *Manager
	released sync.Once
}

// Acquire resolves the session for the request, creating one (and setting
// the cookie) when none exists or the existing one has expired.
func (m *Manager) Acquire(w http.ResponseWriter, r *http.Request) (*Scope, error) {
	ctx := r.Context()

	if cookie, err := r.Cookie(CookieName); err == nil {
		s, err := m.backend.Get(ctx, cookie.Value)
		if err == nil && time.Now().Before(s.ExpiresAt) {
			return &Scope{Session: s, manager: m}, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	s := newSession(m.ttl)
	if err := m.backend.Put(ctx, s, m.ttl); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return &Scope{Session: s, manager: m}, nil
}

// Save persists the current session state.
func (sc *Scope) Save(ctx context.Context) error {
	return sc.manager.backend.Put(ctx, sc.Session, time.Until(sc.Session.ExpiresAt))
}

// Release deletes the session. Subsequent calls are no-ops.
func (sc *Scope) Release(ctx context.Context) {
	sc.released.Do(func() {
		sc.manager.backend.Delete(ctx, sc.Session.ID)
	})
}
