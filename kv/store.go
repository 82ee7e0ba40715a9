package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TTL sentinel values, following the Redis convention.
const (
	// TTLNoExpiry is reported for keys that exist without an expiry.
	TTLNoExpiry int64 = -1
	// TTLMissing is reported for keys that do not exist.
	TTLMissing int64 = -2
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// ErrUnavailable wraps transport or backend failures of the underlying store.
var ErrUnavailable = errors.New("kv: store unavailable")

// Store is the ephemeral key-value contract consumed by the OTP engine and
// the onboarding session store. Keys are UTF-8 strings; values are opaque
// (the callers store JSON-serialized records).
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// SetWithExpiry stores value under key with the given time-to-live.
	SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error

	// Delete removes key and reports how many keys were removed (0 or 1).
	Delete(ctx context.Context, key string) (int64, error)

	// Increment atomically increments the integer stored under key,
	// creating it at 1 when absent, and returns the new value.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets a time-to-live on an existing key. Returns false when the
	// key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL reports the remaining lifetime of key in whole seconds, or one of
	// TTLNoExpiry / TTLMissing.
	TTL(ctx context.Context, key string) (int64, error)
}

type prefixStore struct {
	inner  Store
	prefix string
}

// WithPrefix returns a Store that namespaces every key under the given
// prefix without changing semantics. A trailing ":" is appended when the
// prefix does not already end with one.
func WithPrefix(inner Store, prefix string) Store {
	if prefix == "" {
		return inner
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &prefixStore{inner: inner, prefix: prefix}
}

func (p *prefixStore) key(key string) string { return p.prefix + key }

func (p *prefixStore) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.key(key))
}

func (p *prefixStore) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error {
	return p.inner.SetWithExpiry(ctx, p.key(key), ttl, value)
}

func (p *prefixStore) Delete(ctx context.Context, key string) (int64, error) {
	return p.inner.Delete(ctx, p.key(key))
}

func (p *prefixStore) Increment(ctx context.Context, key string) (int64, error) {
	return p.inner.Increment(ctx, p.key(key))
}

func (p *prefixStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return p.inner.Expire(ctx, p.key(key), ttl)
}

func (p *prefixStore) TTL(ctx context.Context, key string) (int64, error) {
	return p.inner.TTL(ctx, p.key(key))
}
