package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/lock"
)

func TestLocalLocker(t *testing.T) {
	l := lock.NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "c1")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	other, err := l.Lock(ctx, "c2")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx))

	again, err := l.Lock(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

// Runs only against a live server: GSTFILE_TEST_REDIS_ADDR=localhost:6379.
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("GSTFILE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GSTFILE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()

	l := lock.NewRedisLocker(client, 5*time.Second)
	unlock, err := l.Lock(ctx, "lock-test")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "lock-test")
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	require.NoError(t, unlock(ctx))
	unlock, err = l.Lock(ctx, "lock-test")
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
