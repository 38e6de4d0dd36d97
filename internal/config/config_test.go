package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10, cfg.Import.Concurrency)
	assert.Equal(t, 2.0, cfg.Import.TDSPercent)
	assert.Equal(t, 30*time.Minute, cfg.Redis.LockTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 620008, cfg.EInvoice.BuyerPin)
	assert.Equal(t, 28, cfg.EInvoice.RedateDays)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GSTFILE_DB_HOST", "db.internal")
	t.Setenv("GSTFILE_IMPORT_CONCURRENCY", "3")
	t.Setenv("GSTFILE_IMPORT_TDS_PERCENT", "1.5")
	t.Setenv("GSTFILE_FILING_UPLOAD", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 3, cfg.Import.Concurrency)
	assert.Equal(t, 1.5, cfg.Import.TDSPercent)
	assert.True(t, cfg.Filing.Upload)
}

func TestLoad_RedisBackendRequiresAddr(t *testing.T) {
	t.Setenv("GSTFILE_CACHE_BACKEND", "redis")

	cfg, err := config.Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("GSTFILE_CACHE_BACKEND", "s3")

	_, err := config.Load()
	assert.ErrorContains(t, err, "unsupported cache backend")
}

func TestLoad_ConcurrencyFloor(t *testing.T) {
	t.Setenv("GSTFILE_IMPORT_CONCURRENCY", "0")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Import.Concurrency)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=require", c.DSN())
}
