package report

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

// Loader fetches, caches, normalizes and stores report kinds.
type Loader struct {
	erp    port.ReportFetcher
	portal port.ReportFetcher
	cache  port.ReportCache
	store  port.ReportStore
	logger logrus.FieldLogger

	// Bypass forces a re-fetch and overwrites any cached entry.
	Bypass bool
}

// NewLoader creates a Loader. cache may be nil to disable caching.
func NewLoader(erp, portal port.ReportFetcher, cache port.ReportCache, store port.ReportStore, logger logrus.FieldLogger) *Loader {
	return &Loader{erp: erp, portal: portal, cache: cache, store: store, logger: logger}
}

// Load returns the normalized table of one report kind.
func (l *Loader) Load(ctx context.Context, spec *Spec, args domain.ReportArgs) (*domain.Table, error) {
	if args.Scope != spec.Scope {
		return nil, fmt.Errorf("report %s expects %s arguments, got %s", spec.Kind, spec.Scope, args.Scope)
	}
	raw, err := l.fetch(ctx, spec, args)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, spec)
}

// Refresh loads a report kind and replaces its stored rows for owner.
func (l *Loader) Refresh(ctx context.Context, spec *Spec, owner string, args domain.ReportArgs) (int, error) {
	t, err := l.Load(ctx, spec, args)
	if err != nil {
		return 0, err
	}
	n, err := l.store.Refresh(ctx, spec.Target, owner, args, t)
	if err != nil {
		return 0, fmt.Errorf("storing %s: %w", spec.Kind, err)
	}
	l.logger.WithFields(logrus.Fields{
		"report": spec.Kind,
		"owner":  owner,
		"args":   args.String(),
		"rows":   n,
	}).Info("report refreshed")
	return n, nil
}

func (l *Loader) fetch(ctx context.Context, spec *Spec, args domain.ReportArgs) (*domain.Table, error) {
	useCache := spec.Cache && l.cache != nil
	key := args.Key()

	if useCache && !l.Bypass {
		t, ok, err := l.cache.Get(ctx, spec.Kind, key)
		if err != nil {
			l.logger.WithError(err).WithField("report", spec.Kind).Warn("report cache read failed")
		} else if ok {
			l.logger.WithFields(logrus.Fields{"report": spec.Kind, "key": key}).Debug("report cache hit")
			return t, nil
		}
	}

	fetcher := l.erp
	if spec.Source == SourcePortal {
		fetcher = l.portal
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured for %s", domain.ErrFetchFailure, spec.Kind)
	}
	t, err := fetcher.Fetch(ctx, spec.Kind, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrFetchFailure, spec.Kind, key, err)
	}

	if useCache {
		if err := l.cache.Put(ctx, spec.Kind, key, t); err != nil {
			l.logger.WithError(err).WithField("report", spec.Kind).Warn("report cache write failed")
		}
	}
	return t, nil
}
