package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

// MockReportReader is a mock implementation of port.ReportReader.
type MockReportReader struct {
	mock.Mock
}

func (m *MockReportReader) SalesRegister(ctx context.Context, companyID string, from, to time.Time) ([]domain.SalesRegisterRow, error) {
	a := m.Called(ctx, companyID, from, to)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.SalesRegisterRow), a.Error(1)
}

func (m *MockReportReader) GSTR1(ctx context.Context, companyID string, from, to time.Time) ([]domain.GSTR1Row, error) {
	a := m.Called(ctx, companyID, from, to)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.GSTR1Row), a.Error(1)
}

func (m *MockReportReader) Damages(ctx context.Context, companyID string, from, to time.Time) ([]domain.DamageRow, error) {
	a := m.Called(ctx, companyID, from, to)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.DamageRow), a.Error(1)
}

func (m *MockReportReader) StockRates(ctx context.Context, companyID string) ([]domain.StockRateRow, error) {
	a := m.Called(ctx, companyID)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.StockRateRow), a.Error(1)
}

func (m *MockReportReader) Parties(ctx context.Context, companyID string) ([]domain.PartyRow, error) {
	a := m.Called(ctx, companyID)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.PartyRow), a.Error(1)
}

// MockLedgerRepo is a mock implementation of port.LedgerRepository and
// port.LedgerTx. InTx runs fn against the mock itself and counts whether the
// transaction would have been committed or rolled back.
type MockLedgerRepo struct {
	mock.Mock
	Commits   int
	Rollbacks int
}

func (m *MockLedgerRepo) InTx(ctx context.Context, fn func(port.LedgerTx) error) error {
	if err := fn(m); err != nil {
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

func (m *MockLedgerRepo) ReplaceVouchers(ctx context.Context, companyID string, from, to time.Time, types []domain.VoucherType, batch *domain.LedgerBatch) error {
	return m.Called(ctx, companyID, from, to, types, batch).Error(0)
}

func (m *MockLedgerRepo) UpsertMasters(ctx context.Context, companyID string, batch *domain.LedgerBatch) error {
	return m.Called(ctx, companyID, batch).Error(0)
}

func (m *MockLedgerRepo) ExistingVouchers(ctx context.Context, companyID string, inums []string, from, to time.Time, types []domain.VoucherType) (map[string]bool, error) {
	a := m.Called(ctx, companyID, inums, from, to, types)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(map[string]bool), a.Error(1)
}

func (m *MockLedgerRepo) StockRates(ctx context.Context, companyID string) (map[string]float64, error) {
	a := m.Called(ctx, companyID)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(map[string]float64), a.Error(1)
}

func (m *MockLedgerRepo) LatestPartyCtins(ctx context.Context, companyID string) (map[string]string, error) {
	a := m.Called(ctx, companyID)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(map[string]string), a.Error(1)
}

func (m *MockLedgerRepo) TagPeriod(ctx context.Context, companyID string, types []domain.VoucherType, from, to time.Time, period string) (int64, error) {
	a := m.Called(ctx, companyID, types, from, to, period)
	return a.Get(0).(int64), a.Error(1)
}

// MockCompanyRepo is a mock implementation of port.CompanyRepository.
type MockCompanyRepo struct {
	mock.Mock
}

func (m *MockCompanyRepo) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	a := m.Called(ctx, id)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(*domain.Company), a.Error(1)
}

func (m *MockCompanyRepo) ListByGSTIN(ctx context.Context, gstin string) ([]domain.Company, error) {
	a := m.Called(ctx, gstin)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.Company), a.Error(1)
}

// MockFilingRepo is a mock implementation of port.FilingRepository.
type MockFilingRepo struct {
	mock.Mock
}

func (m *MockFilingRepo) FilingLines(ctx context.Context, companyIDs []string, period string) ([]domain.FilingLine, error) {
	a := m.Called(ctx, companyIDs, period)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.FilingLine), a.Error(1)
}

func (m *MockFilingRepo) PortalInvoices(ctx context.Context, gstin, period string) ([]domain.PortalInvoice, error) {
	a := m.Called(ctx, gstin, period)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.PortalInvoice), a.Error(1)
}

func (m *MockFilingRepo) HSNDescriptions(ctx context.Context) (map[string]string, error) {
	a := m.Called(ctx)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(map[string]string), a.Error(1)
}

func (m *MockFilingRepo) SetIRN(ctx context.Context, companyIDs []string, inum, irn string) (int64, error) {
	a := m.Called(ctx, companyIDs, inum, irn)
	return a.Get(0).(int64), a.Error(1)
}

var (
	_ port.LedgerRepository = (*MockLedgerRepo)(nil)
	_ port.LedgerTx         = (*MockLedgerRepo)(nil)
)

// MockRunLocker is a mock implementation of port.RunLocker.
type MockRunLocker struct {
	mock.Mock
}

func (m *MockRunLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	a := m.Called(ctx, key)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(func(context.Context) error), a.Error(1)
}
