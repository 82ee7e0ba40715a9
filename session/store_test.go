package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ravil-k/authkit/kv"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(kv.NewRedisStore(rdb), Config{TTL: ttl}), mr
}

// countingStore records how many operations reach the underlying store.
type countingStore struct {
	inner kv.Store
	calls int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, error) {
	c.calls++
	return c.inner.Get(ctx, key)
}

func (c *countingStore) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error {
	c.calls++
	return c.inner.SetWithExpiry(ctx, key, ttl, value)
}

func (c *countingStore) Delete(ctx context.Context, key string) (int64, error) {
	c.calls++
	return c.inner.Delete(ctx, key)
}

func (c *countingStore) Increment(ctx context.Context, key string) (int64, error) {
	c.calls++
	return c.inner.Increment(ctx, key)
}

func (c *countingStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.calls++
	return c.inner.Expire(ctx, key, ttl)
}

func (c *countingStore) TTL(ctx context.Context, key string) (int64, error) {
	c.calls++
	return c.inner.TTL(ctx, key)
}

func TestCreateAndGetRoundtrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, "  User@Example.COM ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(id) != 64 {
		t.Fatalf("expected 64-char id, got %d", len(id))
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", got.Email)
	}
	if got.EmailVerified || got.PhoneVerified {
		t.Fatal("fresh session must start unverified")
	}
	if got.ExpiresAt-got.CreatedAt != time.Hour.Milliseconds() {
		t.Fatalf("unexpected embedded lifetime: %d", got.ExpiresAt-got.CreatedAt)
	}
}

func TestMalformedIDNeverTouchesStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &countingStore{inner: kv.NewRedisStore(rdb)}
	store := NewStore(counter, Config{})
	ctx := context.Background()

	bad := []string{
		"",
		"not-a-session-id",
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
		strings.Repeat("g", 64),
	}
	for _, id := range bad {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("id %q: expected ErrNotFound, got %v", id, err)
		}
		if err := store.Update(ctx, id, func(*Session) {}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("id %q: expected ErrNotFound from update, got %v", id, err)
		}
		if err := store.Delete(ctx, id); err != nil {
			t.Fatalf("id %q: delete must be a no-op, got %v", id, err)
		}
	}

	if counter.calls != 0 {
		t.Fatalf("expected zero store calls for malformed ids, got %d", counter.calls)
	}
}

func TestGetAcceptsUppercaseAndWhitespace(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := store.Get(ctx, "  "+strings.ToUpper(id)+" "); err != nil {
		t.Fatalf("expected shape-normalized lookup to succeed, got %v", err)
	}
}

func TestCorruptedRecordDeletedAndNotFound(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	id := strings.Repeat("ab", 32)
	key := defaultKeyPrefix + id
	if err := mr.Set(key, "{not json"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("corrupt key must be deleted")
	}
}

func TestEmbeddedExpiryTreatedAsNotFound(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	id := strings.Repeat("cd", 32)
	key := defaultKeyPrefix + id
	stale := Session{
		Email:     "a@b.c",
		CreatedAt: time.Now().Add(-2 * time.Hour).UnixMilli(),
		ExpiresAt: time.Now().Add(-time.Hour).UnixMilli(),
	}
	encoded, _ := json.Marshal(stale)
	// Store TTL still generous: only the embedded expiry has passed.
	if err := mr.Set(key, string(encoded)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	mr.SetTTL(key, time.Hour)

	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("lazily expired key must be deleted")
	}
}

func TestUpdatePreservesRemainingTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	key := defaultKeyPrefix + id

	mr.FastForward(30 * time.Minute)

	if err := store.Update(ctx, id, func(s *Session) {
		s.EmailVerified = true
		s.PhoneNumber = "+15550109999"
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if ttl := mr.TTL(key); ttl > 30*time.Minute {
		t.Fatalf("update must not extend the ttl, got %v", ttl)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.EmailVerified || got.PhoneNumber != "+15550109999" {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestUpdateSkippedOnceTTLGone(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	key := defaultKeyPrefix + id

	// Session record readable but at the very end of its life.
	mr.SetTTL(key, 0)

	if err := store.Update(ctx, id, func(s *Session) { s.EmailVerified = true }); err != nil {
		t.Fatalf("update on dying session must not error, got %v", err)
	}

	raw, err := mr.Get(key)
	if err != nil {
		t.Fatalf("raw get failed: %v", err)
	}
	var record Session
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if record.EmailVerified {
		t.Fatal("write must be skipped when no ttl remains")
	}
}

func TestUpdatePendingOAuthSubState(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	raw := json.RawMessage(`{"given_name":"Ada"}`)
	if err := store.Update(ctx, id, func(s *Session) {
		s.PendingOAuth = &PendingOAuth{
			Provider:      "google",
			Subject:       "sub-123",
			Email:         "a@b.c",
			EmailVerified: true,
			RawData:       raw,
		}
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.PendingOAuth == nil || got.PendingOAuth.Subject != "sub-123" {
		t.Fatalf("pending oauth not persisted: %+v", got.PendingOAuth)
	}

	if err := store.Update(ctx, id, func(s *Session) { s.PendingOAuth = nil }); err != nil {
		t.Fatalf("clearing update failed: %v", err)
	}
	got, err = store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.PendingOAuth != nil {
		t.Fatal("pending oauth must be clearable")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.Delete(ctx, id); err != nil {
			t.Fatalf("delete %d failed: %v", i, err)
		}
	}

	if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func ExampleStore_Update() {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewStore(kv.NewRedisStore(rdb), Config{TTL: time.Hour})
	ctx := context.Background()

	id, _ := store.Create(ctx, "new@example.com")
	_ = store.Update(ctx, id, func(s *Session) { s.EmailVerified = true })

	s, _ := store.Get(ctx, id)
	fmt.Println(s.EmailVerified)
	// Output: true
}
