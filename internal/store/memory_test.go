package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/facegate/pkg/models"
)

func newCode(ttl time.Duration) *models.AuthorizationCode {
	return &models.AuthorizationCode{
		Code:        uuid.New().String(),
		ClientID:    "client-1",
		UserID:      "user-1",
		RedirectURI: "https://app.example.com/callback",
		Scope:       "openid",
		ExpiresAt:   time.Now().Add(ttl),
		CreatedAt:   time.Now(),
	}
}

func newToken(refresh bool, ttl time.Duration) *models.Token {
	return &models.Token{
		Value:     uuid.New().String(),
		UserID:    "user-1",
		ClientID:  "client-1",
		Scope:     "openid",
		Refresh:   refresh,
		ExpiresAt: time.Now().Add(ttl),
		IssuedAt:  time.Now(),
	}
}

func TestMemory_ConsumeCode_SingleUse(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	code := newCode(time.Minute)
	require.NoError(t, m.PutCode(ctx, code))

	got, err := m.ConsumeCode(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, code.UserID, got.UserID)

	_, err = m.ConsumeCode(ctx, code.Code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ConsumeCode_ConcurrentRedemption(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	code := newCode(time.Minute)
	require.NoError(t, m.PutCode(ctx, code))

	const attempts = 32
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.ConsumeCode(ctx, code.Code); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	assert.Len(t, successes, 1, "exactly one concurrent redemption may succeed")
}

func TestMemory_ConsumeCode_ExpiredIsGone(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	code := newCode(-time.Second)
	require.NoError(t, m.PutCode(ctx, code))

	_, err := m.ConsumeCode(ctx, code.Code)
	assert.ErrorIs(t, err, ErrNotFound)

	// The expired code was deleted on the failed consume, not left behind.
	_, err = m.ConsumeCode(ctx, code.Code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tok := newToken(false, time.Hour)
	require.NoError(t, m.PutToken(ctx, tok))

	got, err := m.GetToken(ctx, tok.Value)
	require.NoError(t, err)
	assert.Equal(t, tok.UserID, got.UserID)

	// Idempotent delete.
	require.NoError(t, m.DeleteToken(ctx, tok.Value))
	require.NoError(t, m.DeleteToken(ctx, tok.Value))

	_, err = m.GetToken(ctx, tok.Value)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_GetToken_ExpiredIsAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tok := newToken(false, -time.Second)
	require.NoError(t, m.PutToken(ctx, tok))

	_, err := m.GetToken(ctx, tok.Value)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ConsumeToken_SingleUse(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tok := newToken(true, time.Hour)
	require.NoError(t, m.PutToken(ctx, tok))

	_, err := m.ConsumeToken(ctx, tok.Value)
	require.NoError(t, err)
	_, err = m.ConsumeToken(ctx, tok.Value)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_DeleteSubjectCredentials(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	keep := newToken(false, time.Hour)
	keep.UserID = "other-user"
	require.NoError(t, m.PutToken(ctx, keep))

	gone := newToken(true, time.Hour)
	require.NoError(t, m.PutToken(ctx, gone))
	code := newCode(time.Minute)
	require.NoError(t, m.PutCode(ctx, code))

	require.NoError(t, m.DeleteSubjectCredentials(ctx, "user-1"))

	_, err := m.GetToken(ctx, gone.Value)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.ConsumeCode(ctx, code.Code)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetToken(ctx, keep.Value)
	assert.NoError(t, err)
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	live := newToken(false, time.Hour)
	dead := newToken(false, -time.Minute)
	require.NoError(t, m.PutToken(ctx, live))
	require.NoError(t, m.PutToken(ctx, dead))
	require.NoError(t, m.PutCode(ctx, newCode(-time.Minute)))

	require.NoError(t, m.Sweep(ctx, time.Now()))

	_, err := m.GetToken(ctx, live.Value)
	assert.NoError(t, err)
}

func TestMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := &models.User{
		ID:    uuid.New().String(),
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
	}
	require.NoError(t, m.PutUser(ctx, u))
	assert.ErrorIs(t, m.PutUser(ctx, u), ErrConflict)

	got, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	got.Email = gofakeit.Email()
	require.NoError(t, m.UpdateUser(ctx, got))
	again, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Email, again.Email)
}

func TestMemory_ListFaceProfiles_SortedByUserID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, id := range []string{"charlie", "alice", "bob"} {
		require.NoError(t, m.PutFaceProfile(ctx, &models.FaceProfile{
			UserID:     id,
			Descriptor: []float64{1, 2, 3},
		}))
	}

	profiles, err := m.ListFaceProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "alice", profiles[0].UserID)
	assert.Equal(t, "bob", profiles[1].UserID)
	assert.Equal(t, "charlie", profiles[2].UserID)
}
