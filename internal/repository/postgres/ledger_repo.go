package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

var (
	voucherColumns   = []string{"company_id", "inum", "type", "date", "party_id", "amt", "ctin", "discount", "roundoff", "tds", "tcs"}
	inventoryColumns = []string{"company_id", "bill_id", "stock_id", "qty", "txval", "rt"}
	discountColumns  = []string{"company_id", "bill_id", "sub_type", "amt"}
	stockColumns     = []string{"company_id", "name", "hsn", "desc", "rt"}
	partyColumns     = []string{"company_id", "code", "master_code", "name", "addr", "beat", "ctin", "phone"}
)

const stockUpsert = `ON CONFLICT (company_id, name) DO UPDATE SET
	hsn = EXCLUDED.hsn, rt = EXCLUDED.rt, "desc" = COALESCE(EXCLUDED."desc", stock."desc")`

const partyUpsert = `ON CONFLICT (company_id, code) DO UPDATE SET
	master_code = EXCLUDED.master_code, name = EXCLUDED.name, addr = EXCLUDED.addr,
	beat = EXCLUDED.beat, ctin = EXCLUDED.ctin, phone = EXCLUDED.phone`

type ledgerRepo struct {
	db *sqlx.DB
}

// NewLedgerRepo creates a new PostgreSQL-backed LedgerRepository.
func NewLedgerRepo(db *sqlx.DB) port.LedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) InTx(ctx context.Context, fn func(port.LedgerTx) error) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&ledgerTx{tx: tx})
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransactionFailure, err)
	}
	return nil
}

// ledgerTx is the ledger seen through one open transaction.
type ledgerTx struct {
	tx *sqlx.Tx
}

func (t *ledgerTx) ReplaceVouchers(ctx context.Context, companyID string, from, to time.Time, types []domain.VoucherType, batch *domain.LedgerBatch) error {
	q, args, err := sqlx.In(
		`DELETE FROM sales WHERE company_id = ? AND date BETWEEN ? AND ? AND type IN (?)`,
		companyID, from, to, typeStrings(types))
	if err != nil {
		return fmt.Errorf("ledgerTx.ReplaceVouchers: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, t.tx.Rebind(q), args...); err != nil {
		return fmt.Errorf("ledgerTx.ReplaceVouchers: company %s: delete vouchers: %w", companyID, err)
	}
	if err := insertLedger(ctx, t.tx, batch); err != nil {
		return fmt.Errorf("ledgerTx.ReplaceVouchers: company %s: %w", companyID, err)
	}
	if err := upsertMasters(ctx, t.tx, batch); err != nil {
		return fmt.Errorf("ledgerTx.ReplaceVouchers: company %s: %w", companyID, err)
	}
	return nil
}

func (t *ledgerTx) UpsertMasters(ctx context.Context, companyID string, batch *domain.LedgerBatch) error {
	if err := upsertMasters(ctx, t.tx, batch); err != nil {
		return fmt.Errorf("ledgerTx.UpsertMasters: company %s: %w", companyID, err)
	}
	return nil
}

func (t *ledgerTx) ExistingVouchers(ctx context.Context, companyID string, inums []string, from, to time.Time, types []domain.VoucherType) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(inums) == 0 {
		return out, nil
	}
	if len(types) == 0 {
		types = []domain.VoucherType{""}
	}
	q, args, err := sqlx.In(
		`SELECT inum FROM sales
		 WHERE company_id = ? AND inum IN (?)
		   AND NOT (date BETWEEN ? AND ? AND type IN (?))`,
		companyID, inums, from, to, typeStrings(types))
	if err != nil {
		return nil, fmt.Errorf("ledgerTx.ExistingVouchers: %w", err)
	}
	var found []string
	if err := t.tx.SelectContext(ctx, &found, t.tx.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("ledgerTx.ExistingVouchers: %w", err)
	}
	for _, inum := range found {
		out[inum] = true
	}
	return out, nil
}

func insertLedger(ctx context.Context, tx *sqlx.Tx, batch *domain.LedgerBatch) error {
	vouchers := make([][]any, len(batch.Vouchers))
	for i, v := range batch.Vouchers {
		vouchers[i] = []any{v.CompanyID, v.Inum, string(v.Type), v.Date, v.PartyID, v.Amt, v.Ctin, v.Discount, v.Roundoff, v.Tds, v.Tcs}
	}
	if err := bulkInsert(ctx, tx, "sales", voucherColumns, vouchers, ""); err != nil {
		return err
	}

	lines := make([][]any, len(batch.Lines))
	for i, l := range batch.Lines {
		lines[i] = []any{l.CompanyID, l.BillID, l.StockID, l.Qty, l.Txval, l.Rt}
	}
	if err := bulkInsert(ctx, tx, "inventory", inventoryColumns, lines, ""); err != nil {
		return err
	}

	discounts := make([][]any, len(batch.Discounts))
	for i, d := range batch.Discounts {
		discounts[i] = []any{d.CompanyID, d.BillID, d.SubType, d.Amt}
	}
	return bulkInsert(ctx, tx, "discount", discountColumns, discounts, "")
}

func upsertMasters(ctx context.Context, tx *sqlx.Tx, batch *domain.LedgerBatch) error {
	stocks := make([][]any, len(batch.Stocks))
	for i, s := range batch.Stocks {
		stocks[i] = []any{s.CompanyID, s.Name, s.HSN, s.Desc, s.Rt}
	}
	if err := bulkInsert(ctx, tx, "stock", stockColumns, stocks, stockUpsert); err != nil {
		return err
	}

	parties := make([][]any, len(batch.Parties))
	for i, p := range batch.Parties {
		parties[i] = []any{p.CompanyID, p.Code, p.MasterCode, p.Name, p.Addr, p.Beat, p.Ctin, p.Phone}
	}
	return bulkInsert(ctx, tx, "party", partyColumns, parties, partyUpsert)
}

func (t *ledgerTx) StockRates(ctx context.Context, companyID string) (map[string]float64, error) {
	var rows []struct {
		Name string  `db:"name"`
		Rt   float64 `db:"rt"`
	}
	err := t.tx.SelectContext(ctx, &rows,
		"SELECT name, COALESCE(rt, 0) AS rt FROM stock WHERE company_id = $1", companyID)
	if err != nil {
		return nil, fmt.Errorf("ledgerTx.StockRates: %w", err)
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Rt
	}
	return out, nil
}

func (t *ledgerTx) LatestPartyCtins(ctx context.Context, companyID string) (map[string]string, error) {
	var rows []struct {
		PartyID string  `db:"party_id"`
		Ctin    *string `db:"ctin"`
	}
	err := t.tx.SelectContext(ctx, &rows,
		`SELECT DISTINCT ON (party_id) party_id, ctin
		 FROM sales
		 WHERE company_id = $1 AND party_id IS NOT NULL
		 ORDER BY party_id, date DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("ledgerTx.LatestPartyCtins: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Ctin != nil && *row.Ctin != "" {
			out[row.PartyID] = *row.Ctin
		}
	}
	return out, nil
}

func (t *ledgerTx) TagPeriod(ctx context.Context, companyID string, types []domain.VoucherType, from, to time.Time, period string) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(
		`UPDATE sales SET gst_period = ? WHERE company_id = ? AND date BETWEEN ? AND ? AND type IN (?)`,
		period, companyID, from, to, typeStrings(types))
	if err != nil {
		return 0, fmt.Errorf("ledgerTx.TagPeriod: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("ledgerTx.TagPeriod: %w", err)
	}
	return res.RowsAffected()
}
