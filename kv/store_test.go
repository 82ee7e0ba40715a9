package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisStore(rdb), mr
}

func TestRedisStoreGetSetDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SetWithExpiry(ctx, "k", time.Minute, "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected v, got %q", got)
	}

	n, err := store.Delete(ctx, "k")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}

	n, err = store.Delete(ctx, "k")
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 deleted, got %d", n)
	}
}

func TestRedisStoreTTLConventions(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	ttl, err := store.TTL(ctx, "absent")
	if err != nil {
		t.Fatalf("ttl failed: %v", err)
	}
	if ttl != TTLMissing {
		t.Fatalf("expected TTLMissing, got %d", ttl)
	}

	if _, err := store.Increment(ctx, "counter"); err != nil {
		t.Fatalf("incr failed: %v", err)
	}
	ttl, err = store.TTL(ctx, "counter")
	if err != nil {
		t.Fatalf("ttl failed: %v", err)
	}
	if ttl != TTLNoExpiry {
		t.Fatalf("expected TTLNoExpiry, got %d", ttl)
	}

	if err := store.SetWithExpiry(ctx, "k", 90*time.Second, "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	ttl, err = store.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("ttl failed: %v", err)
	}
	if ttl <= 0 || ttl > 90 {
		t.Fatalf("expected ttl in (0,90], got %d", ttl)
	}

	mr.FastForward(91 * time.Second)
	ttl, err = store.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("ttl failed: %v", err)
	}
	if ttl != TTLMissing {
		t.Fatalf("expected TTLMissing after expiry, got %d", ttl)
	}
}

func TestRedisStoreIncrementAndExpire(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Increment(ctx, "counter")
		if err != nil {
			t.Fatalf("incr failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}

	ok, err := store.Expire(ctx, "counter", time.Minute)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if !ok {
		t.Fatal("expected expire to apply on existing key")
	}

	ok, err = store.Expire(ctx, "absent", time.Minute)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if ok {
		t.Fatal("expected expire to report false for absent key")
	}
}

func TestWithPrefixNamespacesKeys(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	tenantA := WithPrefix(store, "tenant-a")
	tenantB := WithPrefix(store, "tenant-b:")

	if err := tenantA.SetWithExpiry(ctx, "k", time.Minute, "a"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := tenantB.SetWithExpiry(ctx, "k", time.Minute, "b"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := tenantA.Get(ctx, "k")
	if err != nil || got != "a" {
		t.Fatalf("expected a, got %q err %v", got, err)
	}
	got, err = tenantB.Get(ctx, "k")
	if err != nil || got != "b" {
		t.Fatalf("expected b, got %q err %v", got, err)
	}

	if !mr.Exists("tenant-a:k") || !mr.Exists("tenant-b:k") {
		t.Fatal("expected prefixed raw keys in the store")
	}

	if WithPrefix(store, "") != Store(store) {
		t.Fatal("empty prefix should return the inner store unchanged")
	}
}
