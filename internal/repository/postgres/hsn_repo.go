package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

// HSNDescriptions returns the description of every active HSN code. Codes
// listed under several rates keep the description of the lowest rate.
func (r *filingRepo) HSNDescriptions(ctx context.Context) (map[string]string, error) {
	var entries []domain.HSNEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT code, description, gst_rate
		 FROM hsn_codes
		 WHERE effective_to IS NULL OR effective_to >= CURRENT_DATE
		 ORDER BY code, gst_rate`)
	if err != nil {
		return nil, fmt.Errorf("filingRepo.HSNDescriptions: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, ok := out[e.Code]; !ok {
			out[e.Code] = e.Description
		}
	}
	return out, nil
}

type hsnRepo struct {
	db *sqlx.DB
}

// NewHSNRepo creates a new HSNRepository backed by PostgreSQL.
func NewHSNRepo(db *sqlx.DB) port.HSNRepository {
	return &hsnRepo{db: db}
}

var hsnColumns = []string{"code", "description", "gst_rate", "effective_from"}

// hsnEffectiveFrom is the GST rollout date every seeded code is valid from.
var hsnEffectiveFrom = time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC)

// ReplaceAll swaps the whole master in one transaction.
func (r *hsnRepo) ReplaceAll(ctx context.Context, entries []domain.HSNEntry) (int, error) {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.Code, e.Description, e.GSTRate, hsnEffectiveFrom}
	}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hsn_codes`); err != nil {
			return fmt.Errorf("clearing hsn_codes: %w", err)
		}
		return bulkInsert(ctx, tx, "hsn_codes", hsnColumns, rows, "")
	})
	if err != nil {
		return 0, fmt.Errorf("hsnRepo.ReplaceAll: %w: %w", domain.ErrTransactionFailure, err)
	}
	return len(entries), nil
}
