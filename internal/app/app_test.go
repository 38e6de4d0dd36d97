package app_test

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/app"
	"gstfiling/internal/config"
	"gstfiling/internal/lock"
	"gstfiling/internal/report/cache"
)

func testApp(t *testing.T, cc config.CacheConfig, withRedis bool) *app.App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a := &app.App{
		Config: &config.Config{
			Cache:  cc,
			Redis:  config.RedisConfig{LockTTL: time.Minute},
			Import: config.ImportConfig{Concurrency: 2, TDSPercent: 2},
		},
		Logger: logger,
	}
	if withRedis {
		// Never dialed: the client connects lazily.
		rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
		t.Cleanup(func() { _ = rdb.Close() })
		a.Redis = rdb
	}
	return a
}

func TestApp_Cache(t *testing.T) {
	a := testApp(t, config.CacheConfig{Enabled: false, Backend: "file"}, false)
	assert.Nil(t, a.Cache())

	a = testApp(t, config.CacheConfig{Enabled: true, Backend: "file", Dir: t.TempDir()}, false)
	assert.IsType(t, &cache.FileCache{}, a.Cache())

	a = testApp(t, config.CacheConfig{Enabled: true, Backend: "redis"}, true)
	assert.IsType(t, &cache.RedisCache{}, a.Cache())
}

func TestApp_Locker(t *testing.T) {
	assert.IsType(t, &lock.LocalLocker{}, testApp(t, config.CacheConfig{}, false).Locker())
	assert.IsType(t, &lock.RedisLocker{}, testApp(t, config.CacheConfig{}, true).Locker())
}

func TestApp_LoaderAndRunner(t *testing.T) {
	a := testApp(t, config.CacheConfig{Enabled: true, Backend: "file", Dir: t.TempDir()}, false)

	l := a.Loader(true)
	require.NotNil(t, l)
	assert.True(t, l.Bypass)
	assert.NotNil(t, a.Runner(l))
}

func TestApp_ObjectStorageDisabled(t *testing.T) {
	a := testApp(t, config.CacheConfig{}, false)
	s, err := a.ObjectStorage()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestApp_CloseWithoutConnections(t *testing.T) {
	a := testApp(t, config.CacheConfig{}, false)
	assert.NoError(t, a.Close())
}
