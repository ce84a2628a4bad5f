package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in process memory. Suitable for single
// instance deployments and tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]*Session)}
}

func (b *MemoryBackend) Get(ctx context.Context, id string) (*Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sessions[id]
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, ErrNotFound
	}
	cp := *s
	if s.Pending != nil {
		p := *s.Pending
		cp.Pending = &p
	}
	return &cp, nil
}

func (b *MemoryBackend) Put(ctx context.Context, s *Session, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *s
	if s.Pending != nil {
		p := *s.Pending
		cp.Pending = &p
	}
	b.sessions[s.ID] = &cp
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, id)
	return nil
}
