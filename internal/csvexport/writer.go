package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gstfiling/internal/reconcile"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns is the header row of the detailed invoice listing.
var Columns = []string{
	"Company",
	"Invoice Number",
	"Invoice Date",
	"Invoice Type",
	"GST Type",
	"Party Name",
	"GSTIN",
	"Amount",
	"Taxable Value",
	"CGST",
	"SGST",
	"Zero Rated",
	"IRN",
	"Status",
}

// Writer wraps csv.Writer for exporting the detailed listing as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteInvoices writes one row per invoice. statuses maps invoice numbers to
// their reconciliation status; a missing entry leaves the column empty.
func (w *Writer) WriteInvoices(invs []reconcile.Invoice, statuses map[string]string) error {
	for i := range invs {
		if err := w.csv.Write(Row(&invs[i], statuses[invs[i].Inum])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// Row converts an invoice to a row matching Columns. The workbook's Detailed
// sheet uses the same layout.
func Row(inv *reconcile.Invoice, status string) []string {
	row := make([]string, len(Columns))
	row[0] = inv.CompanyID
	row[1] = inv.Inum
	row[2] = inv.Date.Format("02-01-2006")
	row[3] = string(inv.Type)
	row[4] = string(inv.GSTType)
	row[5] = inv.PartyName
	row[6] = inv.Ctin
	row[7] = formatMoney(inv.Amt)
	row[8] = formatMoney(inv.Txval)
	row[9] = formatMoney(inv.Tax)
	row[10] = formatMoney(inv.Tax)
	row[11] = formatMoney(inv.ZeroRate)
	row[12] = inv.Irn
	row[13] = status
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use as a file name. Replaces
// non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns the listing's file name.
// Format: detailed_{gstin}_{period}.csv
func BuildFilename(gstin, period string) string {
	return fmt.Sprintf("detailed_%s_%s.csv", SanitizeFilename(gstin), SanitizeFilename(period))
}
