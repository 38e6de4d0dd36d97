package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Row is a single record of a tabular report keyed by column name. Missing
// keys and nil values are both treated as null.
type Row map[string]any

// Table is a raw or normalized tabular report.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable builds a table from a header and positional records.
func NewTable(columns []string, records [][]any) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	for _, rec := range records {
		row := make(Row, len(columns))
		for i, c := range columns {
			if i < len(rec) {
				row[c] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the column is declared.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn declares a column if it is not already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// MissingColumns returns every wanted column the table does not declare.
func (t *Table) MissingColumns(want []string) []string {
	var missing []string
	for _, c := range want {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// IsNull reports whether v is a null cell. NaN floats and blank strings count
// as null, which is how spreadsheet exports encode empty cells.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return math.IsNaN(x)
	case *string:
		return x == nil
	}
	return false
}

// IsNull reports whether the column is null in this row.
func (r Row) IsNull(col string) bool {
	return IsNull(r[col])
}

// String returns the cell as trimmed text, "" for null.
func (r Row) String(col string) string {
	v := r[col]
	if IsNull(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02")
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Float returns the cell as a number, 0 for null or unparseable values.
func (r Row) Float(col string) float64 {
	f, _ := ToFloat(r[col])
	return f
}

// Int returns the cell truncated to an integer.
func (r Row) Int(col string) int {
	return int(r.Float(col))
}

// ToFloat coerces a cell to float64.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Time returns the cell as a date, zero time if it is not one.
func (r Row) Time(col string) time.Time {
	if t, ok := r[col].(time.Time); ok {
		return t
	}
	return time.Time{}
}
