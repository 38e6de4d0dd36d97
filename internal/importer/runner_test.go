package importer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/importer"
	"gstfiling/internal/report"
	"gstfiling/internal/repository/postgres"
	"gstfiling/mocks"
)

type fakeRefresher struct {
	mu     sync.Mutex
	calls  map[string]domain.ReportArgs
	fail   map[string]error
	active int32
	peak   int32
	done   atomic.Int32
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{calls: map[string]domain.ReportArgs{}, fail: map[string]error{}}
}

func (f *fakeRefresher) Refresh(_ context.Context, spec *report.Spec, _ string, args domain.ReportArgs) (int, error) {
	n := atomic.AddInt32(&f.active, 1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	defer func() {
		atomic.AddInt32(&f.active, -1)
		f.done.Add(1)
	}()

	f.mu.Lock()
	f.calls[spec.Kind] = args
	err := f.fail[spec.Kind]
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return 3, nil
}

// stubImport records how many refreshes had finished when it ran.
type stubImport struct {
	name    string
	scope   domain.ScopeKind
	reports []string
	err     error
	seen    *fakeRefresher
	ranWith *int32
}

func (s stubImport) Name() string            { return s.name }
func (s stubImport) Scope() domain.ScopeKind { return s.scope }
func (s stubImport) Reports() []string       { return s.reports }

func (s stubImport) Run(_ context.Context, _ *importer.Env, _ *domain.Company, _ domain.ReportArgs) (*importer.Outcome, error) {
	if s.ranWith != nil {
		*s.ranWith = s.seen.done.Load()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &importer.Outcome{Name: s.name, Vouchers: 1}, nil
}

func noopUnlock(context.Context) error { return nil }

func newRunner(t *testing.T, refresher importer.Refresher, ledger *mocks.MockLedgerRepo, locker *mocks.MockRunLocker) *importer.Runner {
	t.Helper()
	logger, _ := test.NewNullLogger()
	env := &importer.Env{Reports: new(mocks.MockReportReader), Logger: logger, TDSPercent: 2}
	return importer.NewRunner(refresher, ledger, env, locker, logger, 2)
}

func okLocker() *mocks.MockRunLocker {
	l := new(mocks.MockRunLocker)
	l.On("Lock", mock.Anything, "c1").Return(noopUnlock, nil)
	return l
}

func TestRunner_RefreshFailureDoesNotAbort(t *testing.T) {
	ref := newFakeRefresher()
	ref.fail[report.KindGSTR1] = domain.ErrFetchFailure
	var ran int32
	imports := []importer.Import{
		stubImport{name: "a", scope: domain.ScopeDateRange, reports: []string{report.KindSalesRegister, report.KindGSTR1}, seen: ref, ranWith: &ran},
		stubImport{name: "b", scope: domain.ScopeNone, reports: []string{report.KindStockRate, report.KindParty, report.KindSalesRegister}, seen: ref},
	}

	r := newRunner(t, ref, new(mocks.MockLedgerRepo), okLocker())
	res, err := r.Run(context.Background(), importer.Request{Company: company, From: sepFrom, To: sepTo, Imports: imports})
	require.NoError(t, err)

	require.Len(t, res.Reports, 4)
	kinds := make([]string, 0, len(res.Reports))
	for _, o := range res.Reports {
		kinds = append(kinds, o.Kind)
		if o.Kind == report.KindGSTR1 {
			assert.ErrorIs(t, o.Err, domain.ErrFetchFailure)
		} else {
			assert.NoError(t, o.Err)
			assert.Equal(t, 3, o.Rows)
		}
	}
	assert.IsNonDecreasing(t, kinds)
	assert.Equal(t, int32(4), ran, "imports start only after every refresh finished")
	assert.Len(t, res.Imports, 2)
	assert.NotEmpty(t, res.RunID)
	assert.LessOrEqual(t, ref.peak, int32(2))
}

func TestRunner_ArgsFollowReportScope(t *testing.T) {
	ref := newFakeRefresher()
	imports := []importer.Import{
		stubImport{name: "a", scope: domain.ScopeDateRange, reports: []string{report.KindSalesRegister, report.KindStockRate, report.KindPortal}},
	}
	r := newRunner(t, ref, new(mocks.MockLedgerRepo), okLocker())
	_, err := r.Run(context.Background(), importer.Request{Company: company, From: sepFrom, To: sepTo, Imports: imports})
	require.NoError(t, err)

	assert.Equal(t, domain.DateRangeArgs(sepFrom, sepTo), ref.calls[report.KindSalesRegister])
	assert.Equal(t, domain.EmptyArgs(), ref.calls[report.KindStockRate])
	assert.Equal(t, domain.MonthArgs(9, 2025), ref.calls[report.KindPortal])
}

func TestRunner_ImportFailureAborts(t *testing.T) {
	ref := newFakeRefresher()
	var secondRan int32 = -1
	imports := []importer.Import{
		stubImport{name: "a", scope: domain.ScopeNone, err: errors.New("duplicate key")},
		stubImport{name: "b", scope: domain.ScopeNone, seen: ref, ranWith: &secondRan},
	}
	ledger := new(mocks.MockLedgerRepo)
	r := newRunner(t, ref, ledger, okLocker())
	res, err := r.Run(context.Background(), importer.Request{Company: company, From: sepFrom, To: sepTo, Imports: imports})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionFailure)
	assert.Contains(t, err.Error(), "import a")
	assert.Empty(t, res.Imports)
	assert.Equal(t, int32(-1), secondRan)
	assert.Equal(t, 1, ledger.Rollbacks)
	assert.Zero(t, ledger.Commits)
}

func TestRunner_OneTransactionPerRun(t *testing.T) {
	ledger := new(mocks.MockLedgerRepo)
	ledger.On("TagPeriod", mock.Anything, "c1", company.VoucherTypes(), sepFrom, sepTo, "092025").Return(int64(3), nil)
	imports := []importer.Import{stubImport{name: "a"}, stubImport{name: "b"}}

	r := newRunner(t, newFakeRefresher(), ledger, okLocker())
	res, err := r.Run(context.Background(), importer.Request{
		Company: company, From: sepFrom, To: sepTo, Period: "092025", Imports: imports, SkipRefresh: true,
	})
	require.NoError(t, err)
	assert.Len(t, res.Imports, 2)
	assert.Equal(t, 1, ledger.Commits)
	assert.Zero(t, ledger.Rollbacks)
}

func TestRunner_TagFailureRollsBackImports(t *testing.T) {
	ledger := new(mocks.MockLedgerRepo)
	ledger.On("TagPeriod", mock.Anything, "c1", company.VoucherTypes(), sepFrom, sepTo, "092025").Return(int64(0), errors.New("deadlock detected"))

	r := newRunner(t, newFakeRefresher(), ledger, okLocker())
	res, err := r.Run(context.Background(), importer.Request{
		Company: company, From: sepFrom, To: sepTo, Period: "092025", Imports: []importer.Import{stubImport{name: "a"}}, SkipRefresh: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionFailure)
	assert.Empty(t, res.Imports)
	assert.Zero(t, res.Tagged)
	assert.Equal(t, 1, ledger.Rollbacks)
	assert.Zero(t, ledger.Commits)
}

// A failing second import must undo the first import's ledger writes: the
// sales replacement below runs in the same transaction and is never
// committed.
func TestRunner_FailedImportRollsBackEarlierWrites(t *testing.T) {
	sqlDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db := sqlx.NewDb(sqlDB, "pgx")

	reports := new(mocks.MockReportReader)
	reports.On("SalesRegister", mock.Anything, "c1", sepFrom, sepTo).Return([]domain.SalesRegisterRow{}, nil)
	reports.On("GSTR1", mock.Anything, "c1", sepFrom, sepTo).Return([]domain.GSTR1Row{}, nil)
	reports.On("Damages", mock.Anything, "c1", sepFrom, sepTo).Return([]domain.DamageRow{
		{Inum: "D1", Type: "damage", ReturnFrom: "market", Date: sep1, PartyID: "P1", StockID: "SKU1", Qty: 1, Amt: 118},
	}, nil)

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`DELETE FROM sales WHERE company_id = \$1`).WillReturnResult(sqlmock.NewResult(0, 7))
	dbMock.ExpectQuery(`SELECT name, COALESCE\(rt, 0\) AS rt FROM stock`).WillReturnError(errors.New("boom"))
	dbMock.ExpectRollback()

	logger, _ := test.NewNullLogger()
	env := &importer.Env{Reports: reports, Logger: logger, TDSPercent: 2}
	r := importer.NewRunner(newFakeRefresher(), postgres.NewLedgerRepo(db), env, okLocker(), logger, 2)
	res, err := r.Run(context.Background(), importer.Request{
		Company:     company,
		From:        sepFrom,
		To:          sepTo,
		Imports:     []importer.Import{importer.SalesImport{}, importer.MarketReturnImport{}},
		SkipRefresh: true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionFailure)
	assert.Contains(t, err.Error(), "import market_return")
	assert.Empty(t, res.Imports)
	assert.NoError(t, dbMock.ExpectationsWereMet(), "no commit may happen between imports")
}

func TestRunner_LockBusy(t *testing.T) {
	locker := new(mocks.MockRunLocker)
	locker.On("Lock", mock.Anything, "c1").Return(nil, domain.ErrRunInProgress)

	r := newRunner(t, newFakeRefresher(), new(mocks.MockLedgerRepo), locker)
	_, err := r.Run(context.Background(), importer.Request{Company: company, From: sepFrom, To: sepTo, Imports: []importer.Import{stubImport{name: "a"}}})
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
}

func TestRunner_ReleasesLock(t *testing.T) {
	var released bool
	locker := new(mocks.MockRunLocker)
	locker.On("Lock", mock.Anything, "c1").Return(func(context.Context) error { released = true; return nil }, nil)

	r := newRunner(t, newFakeRefresher(), new(mocks.MockLedgerRepo), locker)
	_, err := r.Run(context.Background(), importer.Request{Company: company, From: sepFrom, To: sepTo, Imports: []importer.Import{stubImport{name: "a", err: errors.New("boom")}}})
	require.Error(t, err)
	assert.True(t, released)
}

func TestRunner_TagsPeriod(t *testing.T) {
	ledger := new(mocks.MockLedgerRepo)
	ledger.On("TagPeriod", mock.Anything, "c1", company.VoucherTypes(), sepFrom, sepTo, "092025").Return(int64(12), nil)

	r := newRunner(t, newFakeRefresher(), ledger, okLocker())
	res, err := r.Run(context.Background(), importer.Request{
		Company:     company,
		From:        sepFrom,
		To:          sepTo,
		Period:      "092025",
		Imports:     []importer.Import{stubImport{name: "a"}},
		SkipRefresh: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Tagged)
	assert.Empty(t, res.Reports)
	ledger.AssertExpectations(t)
}

func TestRunner_RejectsInvertedRange(t *testing.T) {
	r := newRunner(t, newFakeRefresher(), new(mocks.MockLedgerRepo), new(mocks.MockRunLocker))
	_, err := r.Run(context.Background(), importer.Request{Company: company, From: sepTo, To: sepFrom})
	assert.Error(t, err)
}
