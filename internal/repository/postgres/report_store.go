package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

type reportStore struct {
	db *sqlx.DB
}

// NewReportStore creates a new PostgreSQL-backed ReportStore.
func NewReportStore(db *sqlx.DB) port.ReportStore {
	return &reportStore{db: db}
}

// Refresh validates the table against the destination columns, then deletes
// the owner's scope and inserts the new rows in one transaction.
func (s *reportStore) Refresh(ctx context.Context, target port.StoreTarget, owner string, args domain.ReportArgs, table *domain.Table) (int, error) {
	var data []string
	for _, c := range target.Columns {
		if c != target.OwnerColumn {
			data = append(data, c)
		}
	}
	if missing := table.MissingColumns(data); len(missing) > 0 {
		return 0, &domain.SchemaMismatchError{Table: target.Table, Missing: missing}
	}

	del, delArgs, err := deleteScope(target, owner, args)
	if err != nil {
		return 0, err
	}

	cols := append([]string{target.OwnerColumn}, data...)
	rows := make([][]any, len(table.Rows))
	for i, r := range table.Rows {
		row := make([]any, len(cols))
		row[0] = owner
		for j, c := range data {
			row[j+1] = cellValue(r[c])
		}
		rows[i] = row
	}

	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
			return fmt.Errorf("delete scope: %w", err)
		}
		return bulkInsert(ctx, tx, target.Table, cols, rows, "")
	})
	if err != nil {
		return 0, fmt.Errorf("reportStore.Refresh %s: %w", target.Table, err)
	}
	return len(rows), nil
}

func deleteScope(target port.StoreTarget, owner string, args domain.ReportArgs) (string, []any, error) {
	base := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", quoteIdent(target.Table), quoteIdent(target.OwnerColumn))
	switch target.Mode {
	case port.StoreReplaceRange:
		if args.Scope != domain.ScopeDateRange {
			return "", nil, fmt.Errorf("%s: replace-range needs date-range arguments, got %s", target.Table, args.Scope)
		}
		return base + " AND date BETWEEN $2 AND $3", []any{owner, args.From, args.To}, nil
	case port.StoreReplacePeriod:
		if args.Scope != domain.ScopeMonth {
			return "", nil, fmt.Errorf("%s: replace-period needs month arguments, got %s", target.Table, args.Scope)
		}
		return base + " AND period = $2", []any{owner, args.Period()}, nil
	case port.StoreReplaceAll:
		return base, []any{owner}, nil
	}
	return "", nil, fmt.Errorf("%s: unknown store mode %d", target.Table, target.Mode)
}
