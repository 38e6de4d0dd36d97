// Package lock serializes import runs per company.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"gstfiling/internal/domain"
)

// RedisLocker holds a redislock lease for the duration of a run, so two
// processes cannot import the same company at once.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker creates a RedisLocker.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{locker: redislock.New(client), ttl: ttl}
}

// Lock implements port.RunLocker. It fails fast with ErrRunInProgress when
// another holder owns the key.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	lk, err := l.locker.Obtain(ctx, "import:"+key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtaining run lock: %w", err)
	}
	return func(ctx context.Context) error {
		if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}

// LocalLocker is the in-process fallback used when Redis is not configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

// Lock implements port.RunLocker.
func (l *LocalLocker) Lock(_ context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, key)
	}
	l.held[key] = true

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
