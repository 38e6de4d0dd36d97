package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

type reportReader struct {
	db *sqlx.DB
}

// NewReportReader creates a new PostgreSQL-backed ReportReader.
func NewReportReader(db *sqlx.DB) port.ReportReader {
	return &reportReader{db: db}
}

func (r *reportReader) SalesRegister(ctx context.Context, companyID string, from, to time.Time) ([]domain.SalesRegisterRow, error) {
	var rows []domain.SalesRegisterRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT company_id, inum, date, COALESCE(party_id, '') AS party_id, party_name, type,
			COALESCE(amt, 0) AS amt, ctin, COALESCE(tcs, 0) AS tcs, COALESCE(tds, 0) AS tds,
			COALESCE(tax, 0) AS tax, COALESCE(schdisc, 0) AS schdisc, COALESCE(cashdisc, 0) AS cashdisc,
			COALESCE(btpr, 0) AS btpr, COALESCE(outpyt, 0) AS outpyt, COALESCE(ushop, 0) AS ushop,
			COALESCE(pecom, 0) AS pecom, COALESCE(roundoff, 0) AS roundoff,
			COALESCE(other_discount, 0) AS other_discount
		 FROM salesregister_report
		 WHERE company_id = $1 AND date BETWEEN $2 AND $3
		 ORDER BY date, inum`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reportReader.SalesRegister: %w", err)
	}
	return rows, nil
}

func (r *reportReader) GSTR1(ctx context.Context, companyID string, from, to time.Time) ([]domain.GSTR1Row, error) {
	var rows []domain.GSTR1Row
	err := r.db.SelectContext(ctx, &rows,
		`SELECT company_id, inum, date, COALESCE(txval, 0) AS txval, COALESCE(stock_id, '') AS stock_id,
			COALESCE(qty, 0)::int AS qty, COALESCE(rt, 0) AS rt, type, COALESCE(hsn, '') AS hsn, "desc",
			credit_note_no, original_invoice_no, COALESCE(party_id, '') AS party_id, party_name, ctin,
			COALESCE(cgst, 0) AS cgst, COALESCE(sgst, 0) AS sgst, COALESCE(inv_amt, 0) AS inv_amt
		 FROM ikea_gstr1_report
		 WHERE company_id = $1 AND date BETWEEN $2 AND $3
		 ORDER BY date, inum`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reportReader.GSTR1: %w", err)
	}
	return rows, nil
}

func (r *reportReader) Damages(ctx context.Context, companyID string, from, to time.Time) ([]domain.DamageRow, error) {
	var rows []domain.DamageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT company_id, inum, type, return_from, date, COALESCE(party_id, '') AS party_id, party_name,
			COALESCE(stock_id, '') AS stock_id, "desc", COALESCE(qty, 0)::int AS qty,
			COALESCE(amt, 0) AS amt, plg, credit_note_no, original_invoice_no
		 FROM dmgsht_report
		 WHERE company_id = $1 AND date BETWEEN $2 AND $3
		 ORDER BY date, inum`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reportReader.Damages: %w", err)
	}
	return rows, nil
}

func (r *reportReader) StockRates(ctx context.Context, companyID string) ([]domain.StockRateRow, error) {
	var rows []domain.StockRateRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT company_id, stock_id, COALESCE(hsn, '') AS hsn, COALESCE(rt, 0) AS rt
		 FROM stockhsnrate_report
		 WHERE company_id = $1
		 ORDER BY stock_id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("reportReader.StockRates: %w", err)
	}
	return rows, nil
}

func (r *reportReader) Parties(ctx context.Context, companyID string) ([]domain.PartyRow, error) {
	var rows []domain.PartyRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT company_id, code, master_code, name, addr, beat, ctin, phone
		 FROM party_report
		 WHERE company_id = $1
		 ORDER BY code`, companyID)
	if err != nil {
		return nil, fmt.Errorf("reportReader.Parties: %w", err)
	}
	return rows, nil
}
