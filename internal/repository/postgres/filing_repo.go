package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

type filingRepo struct {
	db *sqlx.DB
}

// NewFilingRepo creates a new PostgreSQL-backed FilingRepository.
func NewFilingRepo(db *sqlx.DB) port.FilingRepository {
	return &filingRepo{db: db}
}

func (r *filingRepo) FilingLines(ctx context.Context, companyIDs []string, period string) ([]domain.FilingLine, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(
		`SELECT s.company_id, s.inum, s.date, s.type, COALESCE(s.ctin, '') AS ctin,
			COALESCE(p.name, '') AS party_name, COALESCE(p.addr, '') AS party_addr,
			s.amt, COALESCE(s.irn, '') AS irn,
			COALESCE(i.stock_id, '') AS stock_id, COALESCE(st.hsn, '') AS hsn,
			COALESCE(st."desc", '') AS "desc", COALESCE(i.qty, 0) AS qty,
			COALESCE(i.txval, 0) AS txval, COALESCE(i.rt, 0) AS rt
		 FROM sales s
		 LEFT JOIN inventory i ON i.company_id = s.company_id AND i.bill_id = s.inum
		 LEFT JOIN stock st ON st.company_id = i.company_id AND st.name = i.stock_id
		 LEFT JOIN party p ON p.company_id = s.company_id AND p.code = s.party_id
		 WHERE s.company_id IN (?) AND s.gst_period = ?
		 ORDER BY s.inum, i.stock_id`, companyIDs, period)
	if err != nil {
		return nil, fmt.Errorf("filingRepo.FilingLines: %w", err)
	}
	var lines []domain.FilingLine
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("filingRepo.FilingLines: %w", err)
	}
	return lines, nil
}

func (r *filingRepo) PortalInvoices(ctx context.Context, gstin, period string) ([]domain.PortalInvoice, error) {
	var rows []domain.PortalInvoice
	err := r.db.SelectContext(ctx, &rows,
		`SELECT gstin, period, date, inum, type, COALESCE(ctin, '') AS ctin,
			COALESCE(amt, 0) AS amt, COALESCE(txval, 0) AS txval,
			COALESCE(cgst, 0) AS cgst, COALESCE(sgst, 0) AS sgst, irn, irn_date, srctype
		 FROM gstr1_portal
		 WHERE gstin = $1 AND period = $2
		 ORDER BY inum`, gstin, period)
	if err != nil {
		return nil, fmt.Errorf("filingRepo.PortalInvoices: %w", err)
	}
	return rows, nil
}

func (r *filingRepo) SetIRN(ctx context.Context, companyIDs []string, inum, irn string) (int64, error) {
	q, args, err := sqlx.In(`UPDATE sales SET irn = ? WHERE company_id IN (?) AND inum = ?`, irn, companyIDs, inum)
	if err != nil {
		return 0, fmt.Errorf("filingRepo.SetIRN: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("filingRepo.SetIRN: %w", err)
	}
	return res.RowsAffected()
}
