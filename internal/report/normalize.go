package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gstfiling/internal/domain"
)

// autoDateLayouts are tried in order when a kind does not pin a layout.
var autoDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	time.RFC3339,
}

// Normalize applies the rules of spec to raw in a fixed order: drop trailing
// rows, rename columns, parse dates, drop null rows, then the custom
// transform. The raw table is not modified.
func Normalize(raw *domain.Table, spec *Spec) (*domain.Table, error) {
	t := cloneTable(raw)

	// 1. Trailing totals/footers
	if n := spec.IgnoreLastRows; n > 0 {
		if n >= len(t.Rows) {
			t.Rows = nil
		} else {
			t.Rows = t.Rows[:len(t.Rows)-n]
		}
	}

	// 2. Rename
	if len(spec.ColumnMap) > 0 {
		renameColumns(t, spec.ColumnMap)
	}

	// 3. Dates
	if spec.ParseDate {
		if !t.HasColumn("date") {
			return nil, &domain.SchemaMismatchError{Table: spec.Target.Table, Missing: []string{"date"}}
		}
		if err := parseDateColumn(t, "date", spec.DateLayout); err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Kind, err)
		}
	}

	// 4. Null filtering
	if len(spec.DropNull) > 0 {
		if missing := t.MissingColumns(spec.DropNull); len(missing) > 0 {
			return nil, &domain.SchemaMismatchError{Table: spec.Target.Table, Missing: missing}
		}
		t.Rows = dropNullRows(t.Rows, spec.DropNull)
	}

	// 5. Kind-specific rules
	if spec.Transform != nil {
		var err error
		if t, err = spec.Transform(t); err != nil {
			return nil, fmt.Errorf("%s transform: %w", spec.Kind, err)
		}
	}

	if missing := t.MissingColumns(spec.RequiredColumns()); len(missing) > 0 {
		return nil, &domain.SchemaMismatchError{Table: spec.Target.Table, Missing: missing}
	}
	return t, nil
}

func cloneTable(raw *domain.Table) *domain.Table {
	t := &domain.Table{
		Columns: append([]string(nil), raw.Columns...),
		Rows:    make([]domain.Row, len(raw.Rows)),
	}
	for i, r := range raw.Rows {
		row := make(domain.Row, len(r))
		for k, v := range r {
			row[k] = v
		}
		t.Rows[i] = row
	}
	return t
}

func renameColumns(t *domain.Table, mapping map[string]string) {
	for i, c := range t.Columns {
		if to, ok := mapping[c]; ok {
			t.Columns[i] = to
		}
	}
	for _, row := range t.Rows {
		for from, to := range mapping {
			if v, ok := row[from]; ok {
				delete(row, from)
				row[to] = v
			}
		}
	}
}

func parseDateColumn(t *domain.Table, col, layout string) error {
	for i, row := range t.Rows {
		if row.IsNull(col) {
			row[col] = nil
			continue
		}
		d, err := ParseDate(row[col], layout)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		row[col] = d
	}
	return nil
}

// ParseDate converts a cell to a date. A non-empty layout is tried first;
// auto-detection is the fallback so cached tables (which store dates as
// RFC 3339 text) still parse.
func ParseDate(v any, layout string) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return truncateDay(x), nil
	case string:
		s := strings.TrimSpace(x)
		if layout != "" {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
		for _, l := range autoDateLayouts {
			if d, err := time.Parse(l, s); err == nil {
				return truncateDay(d), nil
			}
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return excelSerial(serial)
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	case float64:
		return excelSerial(x)
	}
	return time.Time{}, fmt.Errorf("unsupported date value %v (%T)", v, v)
}

// excelSerial converts a spreadsheet day number, which is how raw xlsx cells
// carry dates.
func excelSerial(v float64) (time.Time, error) {
	if v < 1 || v > maxExcelSerial {
		return time.Time{}, fmt.Errorf("date serial %v out of range", v)
	}
	d, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return time.Time{}, err
	}
	return truncateDay(d), nil
}

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dropNullRows(rows []domain.Row, cols []string) []domain.Row {
	out := rows[:0]
	for _, row := range rows {
		keep := true
		for _, c := range cols {
			if row.IsNull(c) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}
