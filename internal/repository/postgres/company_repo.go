package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

type companyRepo struct {
	db *sqlx.DB
}

// NewCompanyRepo creates a new PostgreSQL-backed CompanyRepository.
func NewCompanyRepo(db *sqlx.DB) port.CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var c domain.Company
	err := r.db.GetContext(ctx, &c,
		"SELECT id, group_id, gstin, gst_types FROM companies WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("companyRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *companyRepo) ListByGSTIN(ctx context.Context, gstin string) ([]domain.Company, error) {
	var cs []domain.Company
	err := r.db.SelectContext(ctx, &cs,
		"SELECT id, group_id, gstin, gst_types FROM companies WHERE gstin = $1 ORDER BY id", gstin)
	if err != nil {
		return nil, fmt.Errorf("companyRepo.ListByGSTIN: %w", err)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("gstin %s: %w", gstin, domain.ErrNotFound)
	}
	return cs, nil
}
