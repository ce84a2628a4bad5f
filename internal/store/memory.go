package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/facegate/facegate/pkg/models"
)

// Memory is an in-process Store backed by mutex-guarded maps. It is the
// default for local development and the test suite.
type Memory struct {
	users    map[string]*models.User
	profiles map[string]*models.FaceProfile
	clients  map[string]*models.OAuthClient
	codes    map[string]*models.AuthorizationCode
	tokens   map[string]*models.Token
	mu       sync.RWMutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*models.User),
		profiles: make(map[string]*models.FaceProfile),
		clients:  make(map[string]*models.OAuthClient),
		codes:    make(map[string]*models.AuthorizationCode),
		tokens:   make(map[string]*models.Token),
	}
}

func (m *Memory) PutUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; exists {
		return ErrConflict
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, exists := m.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; !exists {
		return ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) PutFaceProfile(_ context.Context, p *models.FaceProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[p.UserID]; exists {
		return ErrConflict
	}
	cp := *p
	cp.Descriptor = append([]float64(nil), p.Descriptor...)
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *Memory) GetFaceProfile(_ context.Context, userID string) (*models.FaceProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, exists := m.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Descriptor = append([]float64(nil), p.Descriptor...)
	return &cp, nil
}

func (m *Memory) ListFaceProfiles(_ context.Context) ([]models.FaceProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.FaceProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		cp := *p
		cp.Descriptor = append([]float64(nil), p.Descriptor...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) PutClient(_ context.Context, c *models.OAuthClient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.clients[c.ClientID]; exists {
		return ErrConflict
	}
	cp := *c
	m.clients[c.ClientID] = &cp
	return nil
}

func (m *Memory) GetClient(_ context.Context, clientID string) (*models.OAuthClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, exists := m.clients[clientID]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) PutCode(_ context.Context, c *models.AuthorizationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.codes[c.Code]; exists {
		return ErrConflict
	}
	cp := *c
	m.codes[c.Code] = &cp
	return nil
}

func (m *Memory) ConsumeCode(_ context.Context, code string) (*models.AuthorizationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, exists := m.codes[code]
	if !exists {
		return nil, ErrNotFound
	}
	// Delete before the expiry check: a replayed expired code must stay gone.
	delete(m.codes, code)
	if c.ExpiresAt.Before(time.Now()) {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) PutToken(_ context.Context, t *models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tokens[t.Value]; exists {
		return ErrConflict
	}
	cp := *t
	m.tokens[t.Value] = &cp
	return nil
}

func (m *Memory) GetToken(_ context.Context, value string) (*models.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, exists := m.tokens[value]
	if !exists || t.ExpiresAt.Before(time.Now()) {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) ConsumeToken(_ context.Context, value string) (*models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, exists := m.tokens[value]
	if !exists {
		return nil, ErrNotFound
	}
	delete(m.tokens, value)
	if t.ExpiresAt.Before(time.Now()) {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) DeleteToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, value)
	return nil
}

func (m *Memory) DeleteSubjectCredentials(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for value, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, value)
		}
	}
	for code, c := range m.codes {
		if c.UserID == userID {
			delete(m.codes, code)
		}
	}
	return nil
}

func (m *Memory) Sweep(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, c := range m.codes {
		if c.ExpiresAt.Before(now) {
			delete(m.codes, code)
		}
	}
	for value, t := range m.tokens {
		if t.ExpiresAt.Before(now) {
			delete(m.tokens, value)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
