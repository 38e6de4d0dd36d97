// Package app wires the shared infrastructure of the batch commands from
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"gstfiling/internal/config"
	"gstfiling/internal/fetcher/portaljson"
	"gstfiling/internal/fetcher/xlsx"
	"gstfiling/internal/importer"
	"gstfiling/internal/lock"
	"gstfiling/internal/logging"
	"gstfiling/internal/port"
	"gstfiling/internal/report"
	"gstfiling/internal/report/cache"
	"gstfiling/internal/repository/postgres"
	s3storage "gstfiling/internal/storage/s3"
)

// App holds the open connections of one command run.
type App struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *sqlx.DB
	// Redis is nil when no address is configured.
	Redis redis.UniversalClient
}

// Open connects to PostgreSQL and, when configured, Redis.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Logger: logging.New(cfg.Log)}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.DB = db

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = db.Close()
			return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Redis.Addr, err)
		}
		a.Redis = rdb
	}
	return a, nil
}

// Close releases every connection.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// Cache returns the configured raw report cache, or nil when caching is off.
func (a *App) Cache() port.ReportCache {
	if !a.Config.Cache.Enabled {
		return nil
	}
	if a.Config.Cache.Backend == "redis" && a.Redis != nil {
		return cache.NewRedisCache(a.Redis)
	}
	return cache.NewFileCache(a.Config.Cache.Dir)
}

// Locker serializes runs across processes through Redis when available and
// within this process otherwise.
func (a *App) Locker() port.RunLocker {
	if a.Redis != nil {
		return lock.NewRedisLocker(a.Redis, a.Config.Redis.LockTTL)
	}
	return lock.NewLocalLocker()
}

// Loader reads ERP exports and portal downloads from the configured source
// folders. bypass skips cached fetches.
func (a *App) Loader(bypass bool) *report.Loader {
	erp := xlsx.New(a.Config.Sources.ERPDir)
	portal := report.NewPortalFetcher(portaljson.New(afero.NewOsFs(), a.Config.Sources.PortalDir))
	l := report.NewLoader(erp, portal, a.Cache(), postgres.NewReportStore(a.DB), a.Logger)
	l.Bypass = bypass
	return l
}

// Runner builds the import runner over loader.
func (a *App) Runner(loader importer.Refresher) *importer.Runner {
	env := &importer.Env{
		Reports:    postgres.NewReportReader(a.DB),
		Logger:     a.Logger,
		TDSPercent: a.Config.Import.TDSPercent,
	}
	return importer.NewRunner(loader, postgres.NewLedgerRepo(a.DB), env, a.Locker(), a.Logger, a.Config.Import.Concurrency)
}

// ObjectStorage returns the S3 client when uploads are enabled, nil
// otherwise.
func (a *App) ObjectStorage() (port.ObjectStorage, error) {
	if !a.Config.Filing.Upload {
		return nil, nil
	}
	return s3storage.NewS3Client(&a.Config.S3)
}
