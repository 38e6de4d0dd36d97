package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gstfiling/internal/domain"
	"gstfiling/internal/logging"
	"gstfiling/internal/port"
	"gstfiling/internal/report"
)

// Refresher refreshes one report kind for an owner. *report.Loader
// implements it.
type Refresher interface {
	Refresh(ctx context.Context, spec *report.Spec, owner string, args domain.ReportArgs) (int, error)
}

// Request is one import run for a company.
type Request struct {
	Company *domain.Company
	From    time.Time
	To      time.Time
	// Period, when set, tags the company's filed voucher types in range.
	Period  string
	Imports []Import
	// SkipRefresh imports from the stored reports as they are.
	SkipRefresh bool
}

// ReportOutcome is the refresh result of one report kind.
type ReportOutcome struct {
	Kind string
	Rows int
	Err  error
}

// RunResult is what a run reports back.
type RunResult struct {
	RunID     string
	CompanyID string
	Reports   []ReportOutcome
	Imports   []Outcome
	Tagged    int64
}

// Failures collects every matching failure of the run.
func (r *RunResult) Failures() []domain.MatchingFailure {
	var out []domain.MatchingFailure
	for _, o := range r.Imports {
		out = append(out, o.Failures...)
	}
	return out
}

// Runner refreshes the reports an import run needs, then applies the
// imports one by one in a single ledger transaction.
type Runner struct {
	refresher   Refresher
	ledger      port.LedgerRepository
	env         *Env
	locker      port.RunLocker
	logger      logrus.FieldLogger
	concurrency int
}

// NewRunner creates a Runner. concurrency bounds parallel report refreshes.
// env.Ledger is set per run to the open transaction.
func NewRunner(refresher Refresher, ledger port.LedgerRepository, env *Env, locker port.RunLocker, logger logrus.FieldLogger, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{refresher: refresher, ledger: ledger, env: env, locker: locker, logger: logger, concurrency: concurrency}
}

// Run executes req. Report refresh failures are logged and leave the stored
// report as it was. The imports and the period tag share one transaction:
// any failure rolls back every ledger write of the run.
func (r *Runner) Run(ctx context.Context, req Request) (*RunResult, error) {
	if req.Company == nil {
		return nil, errors.New("import run needs a company")
	}
	if req.To.Before(req.From) {
		return nil, fmt.Errorf("import range ends before it starts: %s > %s", req.From.Format("2006-01-02"), req.To.Format("2006-01-02"))
	}
	imports := req.Imports
	if len(imports) == 0 {
		imports = Default()
	}

	unlock, err := r.locker.Lock(ctx, req.Company.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.WithError(err).WithField("company", req.Company.ID).Warn("releasing run lock failed")
		}
	}()

	res := &RunResult{RunID: uuid.NewString(), CompanyID: req.Company.ID}
	log := r.logger.WithFields(logrus.Fields{"run_id": res.RunID, "company": req.Company.ID})
	env := *r.env
	env.Logger = log

	if !req.SkipRefresh {
		res.Reports = r.refresh(ctx, log, req, imports)
	}

	var (
		outcomes []Outcome
		tagged   int64
	)
	err = r.ledger.InTx(ctx, func(tx port.LedgerTx) error {
		env.Ledger = tx
		for _, imp := range imports {
			args := argsFor(imp.Scope(), req)
			start := time.Now()
			out, err := imp.Run(ctx, &env, req.Company, args)
			if err != nil {
				logging.LogError(log, "importer", "Run", imp.Name(), err)
				return fmt.Errorf("import %s: %w", imp.Name(), err)
			}
			log.WithFields(logrus.Fields{
				"import":   imp.Name(),
				"vouchers": out.Vouchers,
				"lines":    out.Lines,
				"masters":  out.Masters,
				"dropped":  out.Dropped,
				"failures": len(out.Failures),
				"elapsed":  time.Since(start).String(),
			}).Info("import applied")
			outcomes = append(outcomes, *out)
		}

		if req.Period != "" {
			n, err := tx.TagPeriod(ctx, req.Company.ID, req.Company.VoucherTypes(), req.From, req.To, req.Period)
			if err != nil {
				return fmt.Errorf("tagging period %s: %w", req.Period, err)
			}
			tagged = n
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTransactionFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrTransactionFailure, err)
		}
		log.WithError(err).Error("import run rolled back")
		return res, err
	}

	res.Imports = outcomes
	res.Tagged = tagged
	if req.Period != "" {
		log.WithFields(logrus.Fields{"period": req.Period, "vouchers": tagged}).Info("vouchers tagged")
	}
	return res, nil
}

// refresh fans out one task per distinct report kind and waits for all of
// them. Task errors are recorded, never returned, so siblings keep running.
func (r *Runner) refresh(ctx context.Context, log logrus.FieldLogger, req Request, imports []Import) []ReportOutcome {
	seen := make(map[string]bool)
	var kinds []string
	for _, imp := range imports {
		for _, k := range imp.Reports() {
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}

	var (
		mu       sync.Mutex
		outcomes = make([]ReportOutcome, 0, len(kinds))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, kind := range kinds {
		g.Go(func() error {
			out := ReportOutcome{Kind: kind}
			spec, ok := report.Lookup(kind)
			if !ok {
				out.Err = fmt.Errorf("unknown report kind %q", kind)
			} else {
				out.Rows, out.Err = r.refresher.Refresh(gctx, spec, req.Company.ID, argsFor(spec.Scope, req))
			}
			if out.Err != nil {
				logging.LogError(log.WithField("report", kind), "importer", "refresh", kind, out.Err)
			}
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Kind < outcomes[j].Kind })
	return outcomes
}

func argsFor(scope domain.ScopeKind, req Request) domain.ReportArgs {
	switch scope {
	case domain.ScopeDateRange:
		return domain.DateRangeArgs(req.From, req.To)
	case domain.ScopeMonth:
		return domain.MonthArgs(int(req.From.Month()), req.From.Year())
	default:
		return domain.EmptyArgs()
	}
}
