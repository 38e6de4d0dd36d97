// Package workbook writes the reconciliation workbook of a return period.
package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gstfiling/internal/csvexport"
	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
	"gstfiling/internal/reconcile"
)

// Sheet names in workbook order.
const (
	SheetSummary  = "Summary"
	SheetEinvoice = "Einvoice"
	SheetZeroRate = "Zero Rate"
	SheetDetailed = "Detailed"
)

// Data is what the workbook shows.
type Data struct {
	Summary  *filing.Summary
	Recon    *reconcile.Result
	Invoices []reconcile.Invoice
}

// sheet appends rows to one worksheet.
type sheet struct {
	f    *excelize.File
	name string
	row  int
}

func (s *sheet) write(values ...any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(s.name, cell, &values)
}

// table writes a titled table followed by a blank row.
func (s *sheet) table(title string, header []any, rows [][]any) error {
	if err := s.write(title); err != nil {
		return err
	}
	if err := s.write(header...); err != nil {
		return err
	}
	for _, r := range rows {
		if err := s.write(r...); err != nil {
			return err
		}
	}
	s.row++
	return nil
}

// New builds the workbook in memory.
func New(d Data) (*excelize.File, error) {
	if d.Summary == nil || d.Recon == nil {
		return nil, fmt.Errorf("workbook needs a summary and a reconciliation result")
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetEinvoice, SheetZeroRate, SheetDetailed} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	steps := []struct {
		name string
		fn   func(*sheet, Data) error
	}{
		{SheetSummary, writeSummary},
		{SheetEinvoice, writeEinvoice},
		{SheetZeroRate, writeZeroRate},
		{SheetDetailed, writeDetailed},
	}
	for _, st := range steps {
		if err := st.fn(&sheet{f: f, name: st.name}, d); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("writing sheet %s: %w", st.name, err)
		}
	}
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, d Data) error {
	f, err := New(d)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeSummary(s *sheet, d Data) error {
	var gst [][]any
	for _, g := range d.Summary.GSTTypes {
		gst = append(gst, []any{string(g.GSTType), g.Txval, g.Cgst, g.ZeroRate, g.Net})
	}
	if err := s.table("GST Type", []any{"GST Type", "Taxable Value", "CGST", "Zero Rated", "Net Taxable Value"}, gst); err != nil {
		return err
	}

	var inv [][]any
	for _, t := range d.Summary.InvoiceTypes {
		inv = append(inv, []any{t.CompanyID, string(t.GSTType), string(t.Type), t.Count, t.Txval, t.Cgst})
	}
	if err := s.table("Invoice Type", []any{"Company", "GST Type", "Invoice Type", "Count", "Taxable Value", "CGST"}, inv); err != nil {
		return err
	}

	var rates [][]any
	for _, r := range d.Summary.Rates {
		rates = append(rates, []any{r.Rt, r.Txval, r.Cgst})
	}
	if err := s.table("Rate", []any{"Rate", "Taxable Value", "CGST"}, rates); err != nil {
		return err
	}

	var docs [][]any
	for _, c := range d.Summary.Documents {
		docs = append(docs, []any{c.Category, c.From, c.To, c.TotNum, c.Cancel, c.NetIssue})
	}
	return s.table("Documents", []any{"Category", "From", "To", "Total", "Cancelled", "Net Issued"}, docs)
}

var invoiceHeader = []any{"Company", "Invoice Number", "Date", "GST Type", "GSTIN", "Taxable Value", "CGST"}

func invoiceRow(inv *reconcile.Invoice) []any {
	return []any{inv.CompanyID, inv.Inum, inv.Date.Format("02-01-2006"), string(inv.GSTType), inv.Ctin, inv.Txval, inv.Tax}
}

func writeEinvoice(s *sheet, d Data) error {
	var missing [][]any
	for i := range d.Recon.Missing {
		missing = append(missing, invoiceRow(&d.Recon.Missing[i]))
	}
	if err := s.table("Missing on portal", invoiceHeader, missing); err != nil {
		return err
	}

	var extra [][]any
	for _, p := range d.Recon.Extra {
		extra = append(extra, []any{p.Inum, p.Date.Format("02-01-2006"), string(p.Type), p.Ctin, p.Txval, p.Cgst, domain.Deref(p.SrcType)})
	}
	if err := s.table("Extra on portal", []any{"Invoice Number", "Date", "GST Type", "GSTIN", "Taxable Value", "CGST", "Source"}, extra); err != nil {
		return err
	}

	var mismatched [][]any
	for _, m := range d.Recon.Mismatched {
		mismatched = append(mismatched, []any{
			m.Ledger.CompanyID, m.Ledger.Inum, string(m.Ledger.GSTType), m.Ledger.Ctin,
			m.Ledger.Txval, m.Portal.Txval, m.TxvalDiff, m.Ledger.Tax, m.Portal.Cgst, m.TaxDiff,
		})
	}
	return s.table("Mismatched", []any{
		"Company", "Invoice Number", "GST Type", "GSTIN",
		"Taxable Value", "Portal Taxable Value", "Taxable Difference", "CGST", "Portal CGST", "CGST Difference",
	}, mismatched)
}

func writeZeroRate(s *sheet, d Data) error {
	var rows [][]any
	for _, c := range d.Recon.ZeroRate {
		rows = append(rows, []any{
			c.Invoice.CompanyID, c.Invoice.Inum, string(c.Invoice.GSTType), c.Invoice.Txval, c.Invoice.ZeroRate,
			c.PortalTxval, c.OnPortal, c.Confirmed,
		})
	}
	if err := s.table("Zero rated invoices", []any{
		"Company", "Invoice Number", "GST Type", "Taxable Value", "Zero Rated", "Portal Taxable Value", "On Portal", "Confirmed",
	}, rows); err != nil {
		return err
	}
	return s.write("Confirmed total", d.Recon.ZeroRateTotal())
}

func writeDetailed(s *sheet, d Data) error {
	header := make([]any, len(csvexport.Columns))
	for i, c := range csvexport.Columns {
		header[i] = c
	}
	if err := s.write(header...); err != nil {
		return err
	}
	statuses := d.Recon.Statuses(d.Invoices)
	for i := range d.Invoices {
		inv := &d.Invoices[i]
		row := csvexport.Row(inv, statuses[inv.Inum])
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		// Keep amounts numeric so the sheet can be summed.
		values[7], values[8], values[9], values[10], values[11] = inv.Amt, inv.Txval, inv.Tax, inv.Tax, inv.ZeroRate
		if err := s.write(values...); err != nil {
			return err
		}
	}
	return nil
}
