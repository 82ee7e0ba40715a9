package tokens

import (
	"context"
	"sync"
	"time"
)

// Tokens is the single record a Manager keeps: the current bearer pair and
// the access token's absolute expiry.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Store persists the token record. Implementations back it with whatever
// the platform offers (secure OS storage, an encrypted file); Load returns
// (nil, nil) when no record exists.
type Store interface {
	Load(ctx context.Context) (*Tokens, error)
	Save(ctx context.Context, t *Tokens) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local Store for tests and short-lived tools.
type MemoryStore struct {
	mu     sync.Mutex
	tokens *Tokens
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the current record, or nil when empty.
func (s *MemoryStore) Load(ctx context.Context) (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil, nil
	}
	t := *s.tokens
	return &t, nil
}

// Save replaces the current record.
func (s *MemoryStore) Save(ctx context.Context, t *Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	s.tokens = &copied
	return nil
}

// Clear drops the current record.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	return nil
}
