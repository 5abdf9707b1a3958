package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSweepLockTTL = 30 * time.Minute

// ErrSweepLockLost means the lock expired during a sweep and may now belong to
// another worker.
var ErrSweepLockLost = errors.New("sweep lock expired before release")

// SweepLock keeps two cron workers from sweeping batches and the outbox at once.
type SweepLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
	// Holder names the worker currently holding the lock, or "" when free.
	Holder(ctx context.Context) (string, error)
}

type sweepLockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
}

// RedisSweepLock stores "<worker>/<token>" under key for the duration of a sweep.
type RedisSweepLock struct {
	store  sweepLockStore
	key    string
	worker string
	ttl    time.Duration
	token  string
}

func NewRedisSweepLock(store sweepLockStore, key, worker string, ttl time.Duration) (*RedisSweepLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for sweep lock")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("sweep lock key is required")
	}
	worker = strings.TrimSpace(worker)
	if worker == "" {
		worker = "cron-worker"
	}
	if ttl <= 0 {
		ttl = defaultSweepLockTTL
	}
	return &RedisSweepLock{store: store, key: key, worker: worker, ttl: ttl}, nil
}

func (l *RedisSweepLock) Acquire(ctx context.Context) (bool, error) {
	token := l.worker + "/" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire sweep lock %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

func (l *RedisSweepLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	removed, err := l.store.CompareAndDelete(ctx, l.key, token)
	if err != nil {
		return fmt.Errorf("release sweep lock %s: %w", l.key, err)
	}
	if !removed {
		return ErrSweepLockLost
	}
	return nil
}

func (l *RedisSweepLock) Holder(ctx context.Context) (string, error) {
	value, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("read sweep lock %s: %w", l.key, err)
	}
	worker, _, _ := strings.Cut(value, "/")
	return worker, nil
}
