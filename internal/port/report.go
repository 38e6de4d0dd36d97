package port

import (
	"context"

	"gstfiling/internal/domain"
)

// ReportFetcher supplies raw tabular data for a report kind. Implementations
// wrap the ERP scraping client or the tax portal client.
type ReportFetcher interface {
	Fetch(ctx context.Context, kind string, args domain.ReportArgs) (*domain.Table, error)
}

// PortalClient queries invoices already filed on the GST portal.
type PortalClient interface {
	GetFiledInvoices(ctx context.Context, period string, typ domain.GSTType) ([]domain.Row, error)
}

// ReportCache persists raw fetch results keyed by report kind and argument key.
// Entries never expire.
type ReportCache interface {
	Get(ctx context.Context, kind, key string) (*domain.Table, bool, error)
	Put(ctx context.Context, kind, key string, table *domain.Table) error
}

// StoreMode selects how a refresh replaces existing report rows.
type StoreMode int

const (
	// StoreReplaceRange deletes the owner's rows dated within the argument range.
	StoreReplaceRange StoreMode = iota
	// StoreReplaceAll deletes every row of the owner.
	StoreReplaceAll
	// StoreReplacePeriod deletes the owner's rows of the argument period.
	StoreReplacePeriod
)

// StoreTarget describes the destination table of a report kind.
type StoreTarget struct {
	Table       string
	OwnerColumn string
	Columns     []string
	Mode        StoreMode
}

// ReportStore persists normalized report rows as replace-on-refresh tables.
type ReportStore interface {
	Refresh(ctx context.Context, target StoreTarget, owner string, args domain.ReportArgs, table *domain.Table) (int, error)
}
