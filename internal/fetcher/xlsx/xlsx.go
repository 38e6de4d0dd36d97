// Package xlsx serves ERP reports from spreadsheet exports laid out as
// <dir>/<kind>/<args key>.xlsx.
package xlsx

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gstfiling/internal/domain"
)

// Fetcher implements port.ReportFetcher over a directory of exports.
type Fetcher struct {
	dir string
}

// New creates a Fetcher rooted at dir.
func New(dir string) *Fetcher {
	return &Fetcher{dir: dir}
}

// Path returns the export file of a report kind and argument set.
func (f *Fetcher) Path(kind string, args domain.ReportArgs) string {
	return filepath.Join(f.dir, kind, args.Key()+".xlsx")
}

// Fetch reads the first sheet of the export. The first row is the header;
// cells are returned as raw text with blanks as nil, so dates arrive as
// day serials.
func (f *Fetcher) Fetch(ctx context.Context, kind string, args domain.ReportArgs) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := f.Path(kind, args)
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %q is empty", path, sheet)
	}
	return toTable(rows), nil
}

func toTable(rows [][]string) *domain.Table {
	header := make([]string, len(rows[0]))
	seen := make(map[string]int)
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h]++
			h = h + "." + strconv.Itoa(n)
		} else {
			seen[h] = 1
		}
		header[i] = h
	}

	records := make([][]any, 0, len(rows)-1)
	for _, r := range rows[1:] {
		rec := make([]any, len(header))
		empty := true
		for i := range header {
			if i < len(r) && strings.TrimSpace(r[i]) != "" {
				rec[i] = r[i]
				empty = false
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return domain.NewTable(header, records)
}
