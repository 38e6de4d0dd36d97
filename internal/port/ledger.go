package port

import (
	"context"
	"time"

	"gstfiling/internal/domain"
)

// ReportReader reads stored report rows for the import engine.
type ReportReader interface {
	SalesRegister(ctx context.Context, companyID string, from, to time.Time) ([]domain.SalesRegisterRow, error)
	GSTR1(ctx context.Context, companyID string, from, to time.Time) ([]domain.GSTR1Row, error)
	Damages(ctx context.Context, companyID string, from, to time.Time) ([]domain.DamageRow, error)
	StockRates(ctx context.Context, companyID string) ([]domain.StockRateRow, error)
	Parties(ctx context.Context, companyID string) ([]domain.PartyRow, error)
}

// LedgerRepository opens the transaction an import run writes the ledger in.
type LedgerRepository interface {
	// InTx runs fn in one transaction, committed only when fn returns nil.
	// Every write made through the LedgerTx is rolled back otherwise.
	InTx(ctx context.Context, fn func(LedgerTx) error) error
}

// LedgerTx reads and writes the canonical ledger inside a run transaction.
// Reads see the writes made earlier in the same run.
type LedgerTx interface {
	// ReplaceVouchers deletes the company's vouchers of the given types dated
	// within [from, to] (children cascade) and inserts the batch.
	ReplaceVouchers(ctx context.Context, companyID string, from, to time.Time, types []domain.VoucherType, batch *domain.LedgerBatch) error
	// UpsertMasters inserts or overwrites stock and party rows by natural key.
	UpsertMasters(ctx context.Context, companyID string, batch *domain.LedgerBatch) error
	// ExistingVouchers returns which of inums are taken by vouchers that a
	// ReplaceVouchers over (from, to, types) would keep.
	ExistingVouchers(ctx context.Context, companyID string, inums []string, from, to time.Time, types []domain.VoucherType) (map[string]bool, error)
	// StockRates returns the current rate per stock code.
	StockRates(ctx context.Context, companyID string) (map[string]float64, error)
	// LatestPartyCtins returns the GSTIN on each party's most recent voucher.
	LatestPartyCtins(ctx context.Context, companyID string) (map[string]string, error)
	// TagPeriod stamps gst_period on vouchers of the given types in range.
	TagPeriod(ctx context.Context, companyID string, types []domain.VoucherType, from, to time.Time, period string) (int64, error)
}

// CompanyRepository looks up tenants.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	ListByGSTIN(ctx context.Context, gstin string) ([]domain.Company, error)
}

// FilingRepository reads the joined ledger and the filed portal invoices.
type FilingRepository interface {
	FilingLines(ctx context.Context, companyIDs []string, period string) ([]domain.FilingLine, error)
	PortalInvoices(ctx context.Context, gstin, period string) ([]domain.PortalInvoice, error)
	HSNDescriptions(ctx context.Context) (map[string]string, error)
	SetIRN(ctx context.Context, companyIDs []string, inum, irn string) (int64, error)
}

// RunLocker serializes import runs per key (company).
type RunLocker interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// HSNRepository maintains the HSN/SAC master the return descriptions come from.
type HSNRepository interface {
	ReplaceAll(ctx context.Context, entries []domain.HSNEntry) (int, error)
}
