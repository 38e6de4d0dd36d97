package report

import (
	"context"
	"fmt"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

var portalColumns = []string{"inum", "ctin", "idt", "invcamt", "invsamt", "val", "invtxval", "irn", "irngendate", "srctyp"}

// PortalFetcher adapts a PortalClient to the ReportFetcher contract for the
// gstr1_portal kind. Credit notes are renamed to the invoice columns and their
// amounts negated.
type PortalFetcher struct {
	client port.PortalClient
}

// NewPortalFetcher creates a PortalFetcher.
func NewPortalFetcher(client port.PortalClient) *PortalFetcher {
	return &PortalFetcher{client: client}
}

// Fetch implements port.ReportFetcher.
func (f *PortalFetcher) Fetch(ctx context.Context, kind string, args domain.ReportArgs) (*domain.Table, error) {
	if kind != KindPortal {
		return nil, fmt.Errorf("portal fetcher cannot serve %q", kind)
	}
	if args.Scope != domain.ScopeMonth {
		return nil, fmt.Errorf("portal fetch needs a month, got %s", args.Scope)
	}
	period := args.Period()

	t := &domain.Table{Columns: append(append([]string(nil), portalColumns...), "type", "period")}

	b2b, err := f.client.GetFiledInvoices(ctx, period, domain.GSTTypeB2B)
	if err != nil {
		return nil, fmt.Errorf("getting b2b invoices: %w", err)
	}
	for _, r := range b2b {
		row := pick(r, portalColumns)
		row["type"] = string(domain.GSTTypeB2B)
		row["period"] = period
		t.Rows = append(t.Rows, row)
	}

	cdnr, err := f.client.GetFiledInvoices(ctx, period, domain.GSTTypeCDNR)
	if err != nil {
		return nil, fmt.Errorf("getting cdnr notes: %w", err)
	}
	for _, r := range cdnr {
		row := pick(r, portalColumns)
		row["inum"] = r["nt_num"]
		row["idt"] = r["nt_dt"]
		for _, c := range []string{"invtxval", "invcamt", "invsamt"} {
			if v, ok := domain.ToFloat(r[c]); ok {
				row[c] = -v
			}
		}
		row["type"] = string(domain.GSTTypeCDNR)
		row["period"] = period
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func pick(r domain.Row, cols []string) domain.Row {
	out := make(domain.Row, len(cols)+2)
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}
