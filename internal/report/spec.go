// Package report turns raw ERP and portal tables into rows for the report
// tables. Each report kind is a Spec record consumed by the generic Normalize.
package report

import (
	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

// Source tells the loader which fetcher serves a report kind.
type Source int

const (
	SourceERP Source = iota
	SourcePortal
)

// Transform is the kind-specific step run after the generic rules.
type Transform func(t *domain.Table) (*domain.Table, error)

// Spec is the rule set of one report kind.
type Spec struct {
	Kind   string
	Scope  domain.ScopeKind
	Source Source
	Target port.StoreTarget

	// ColumnMap renames source columns to destination names.
	ColumnMap map[string]string
	// IgnoreLastRows drops source footer rows such as grand totals.
	IgnoreLastRows int
	// ParseDate converts the "date" column. An empty DateLayout auto-detects.
	ParseDate  bool
	DateLayout string
	// DropNull removes rows that are null in any of these columns.
	DropNull  []string
	Transform Transform
	// Cache enables the raw fetch cache for this kind.
	Cache bool
}

// RequiredColumns returns the columns a normalized table must carry, which is
// every destination column except the owner key added by the store.
func (s *Spec) RequiredColumns() []string {
	out := make([]string, 0, len(s.Target.Columns))
	for _, c := range s.Target.Columns {
		if c != s.Target.OwnerColumn {
			out = append(out, c)
		}
	}
	return out
}
