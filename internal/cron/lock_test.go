package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestSweepLockExclusiveUntilReleased(t *testing.T) {
	store := newMemoryStore()
	first, err := NewRedisSweepLock(store, "sr:lock:sweep:test", "worker-a", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisSweepLock: %v", err)
	}
	second, _ := NewRedisSweepLock(store, "sr:lock:sweep:test", "worker-b", time.Minute)
	ctx := context.Background()

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second worker must not sweep while the lock is held")
	}
	holder, err := second.Holder(ctx)
	if err != nil || holder != "worker-a" {
		t.Fatalf("expected worker-a to hold the lock, got %q err=%v", holder, err)
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release without ownership: %v", err)
	}
	if _, held := store.values["sr:lock:sweep:test"]; !held {
		t.Fatal("non-owner release removed the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if holder, _ := second.Holder(ctx); holder != "" {
		t.Fatalf("expected free lock, held by %q", holder)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("lock should be free after release")
	}
}

func TestSweepLockReportsExpiryDuringSweep(t *testing.T) {
	store := newMemoryStore()
	lock, _ := NewRedisSweepLock(store, "sr:lock:sweep:test", "worker-a", time.Minute)
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire failed")
	}

	// ttl elapsed and another worker took over
	store.values["sr:lock:sweep:test"] = "worker-b/other"

	if err := lock.Release(ctx); !errors.Is(err, ErrSweepLockLost) {
		t.Fatalf("expected ErrSweepLockLost, got %v", err)
	}
	if store.values["sr:lock:sweep:test"] != "worker-b/other" {
		t.Fatal("release must not delete another worker's lock")
	}
}

func TestNewRedisSweepLockValidates(t *testing.T) {
	if _, err := NewRedisSweepLock(nil, "k", "w", time.Second); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisSweepLock(newMemoryStore(), " ", "w", time.Second); err == nil {
		t.Fatal("expected error for empty key")
	}
	lock, err := NewRedisSweepLock(newMemoryStore(), "k", "", 0)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if lock.ttl != defaultSweepLockTTL || lock.worker != "cron-worker" {
		t.Fatalf("unexpected defaults ttl=%v worker=%q", lock.ttl, lock.worker)
	}
}
