package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ravil-k/authkit/internal"
	"github.com/ravil-k/authkit/kv"
)

const defaultKeyPrefix = "auth_session:"

var (
	// ErrNotFound is returned for sessions that are absent, expired or
	// corrupt. The three cases are deliberately indistinguishable.
	ErrNotFound = errors.New("session not found")
	// ErrStoreUnavailable wraps backend failures of the key-value store.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Config tunes a Store. Zero values fall back to a 24-hour TTL, the
// "auth_session:" key prefix and a silent logger.
type Config struct {
	KeyPrefix string
	TTL       time.Duration
	Logger    *slog.Logger
}

// Store keeps onboarding sessions in a key-value store.
type Store struct {
	store  kv.Store
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore wires a Store over the given key-value store.
func NewStore(store kv.Store, cfg Config) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		store:  store,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}
}

// Create opens a session for the given email address and returns its id —
// never the record itself. The id is 32 random bytes as 64 lowercase hex
// characters.
func (s *Store) Create(ctx context.Context, email string) (string, error) {
	id, err := internal.NewSessionToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UnixMilli()
	record := Session{
		Email:     internal.NormalizeEmail(email),
		CreatedAt: now,
		ExpiresAt: now + s.ttl.Milliseconds(),
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	if err := s.store.SetWithExpiry(ctx, s.prefix+id, s.ttl, string(encoded)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}

// Get returns the session for id. Malformed ids are rejected before any
// store round-trip; absent, corrupt and expired records all return
// ErrNotFound, deleting the key in the latter two cases.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	id, ok := normalizeID(id)
	if !ok {
		return nil, ErrNotFound
	}

	key := s.prefix + id
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	record, err := s.decode(ctx, key, raw)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Update applies transform to the current session record and writes it
// back, preserving the store's remaining TTL so updates never extend the
// session's absolute lifetime. When the TTL has already reached zero
// between the read and the write, the write is silently skipped: the
// session is dying and a best-effort state advance is all that is owed.
func (s *Store) Update(ctx context.Context, id string, transform func(*Session)) error {
	id, ok := normalizeID(id)
	if !ok {
		return ErrNotFound
	}

	key := s.prefix + id
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	record, err := s.decode(ctx, key, raw)
	if err != nil {
		return err
	}

	ttl, err := s.store.TTL(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	transform(record)

	if ttl <= 0 {
		return nil
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.store.SetWithExpiry(ctx, key, time.Duration(ttl)*time.Second, string(encoded)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the session. Idempotent; malformed and absent ids are
// no-ops.
func (s *Store) Delete(ctx context.Context, id string) error {
	id, ok := normalizeID(id)
	if !ok {
		return nil
	}
	if _, err := s.store.Delete(ctx, s.prefix+id); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// decode validates the raw record and enforces the embedded expiry.
// Corrupt and expired records are deleted and reported as ErrNotFound.
func (s *Store) decode(ctx context.Context, key, raw string) (*Session, error) {
	var record Session
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.Email == "" || record.ExpiresAt == 0 {
		s.deleteQuiet(ctx, key)
		s.logger.Warn("deleted corrupt session record")
		return nil, ErrNotFound
	}

	if time.Now().UnixMilli() > record.ExpiresAt {
		s.deleteQuiet(ctx, key)
		return nil, ErrNotFound
	}

	return &record, nil
}

func (s *Store) deleteQuiet(ctx context.Context, key string) {
	if _, err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("session cleanup delete failed", "err", err)
	}
}

// normalizeID lowercases and trims the id and checks the exact shape: 64
// hex characters. Anything else is rejected without touching the store.
func normalizeID(id string) (string, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if len(id) != 64 {
		return "", false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", false
		}
	}
	return id, true
}
