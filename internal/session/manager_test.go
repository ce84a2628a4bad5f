package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_CreatesSessionAndCookie(t *testing.T) {
	m := NewManager(NewMemoryBackend(), time.Minute, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	scope, err := m.Acquire(w, r)
	require.NoError(t, err)
	assert.NotEmpty(t, scope.Session.ID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, scope.Session.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAcquire_ReusesExistingSession(t *testing.T) {
	backend := NewMemoryBackend()
	m := NewManager(backend, time.Minute, false)

	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	first, err := m.Acquire(w1, r1)
	require.NoError(t, err)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(&http.Cookie{Name: CookieName, Value: first.Session.ID})
	second, err := m.Acquire(httptest.NewRecorder(), r2)
	require.NoError(t, err)

	assert.Equal(t, first.Session.ID, second.Session.ID)
}

func TestScope_ReleaseDeletes(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := NewManager(backend, time.Minute, false)

	scope, err := m.Acquire(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	scope.Release(ctx)
	// Idempotent.
	scope.Release(ctx)

	_, err = backend.Get(ctx, scope.Session.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScope_StagedPendingSurvivesSave(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := NewManager(backend, time.Minute, false)

	scope, err := m.Acquire(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	scope.Session.Pending = &PendingProfile{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, scope.Save(ctx))

	got, err := backend.Get(ctx, scope.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Pending)
	assert.Equal(t, "Alice", got.Pending.Name)
}

func TestMemoryBackend_TTL(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	s := newSession(-time.Second)
	require.NoError(t, backend.Put(ctx, s, time.Minute))

	_, err := backend.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
