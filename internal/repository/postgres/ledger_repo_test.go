package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
	"gstfiling/internal/repository/postgres"
)

func testBatch() *domain.LedgerBatch {
	d := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	return &domain.LedgerBatch{
		Vouchers:  []domain.Voucher{{CompanyID: "c1", Inum: "A001", Type: domain.VoucherSales, Date: d, Amt: -118}},
		Lines:     []domain.InventoryLine{{CompanyID: "c1", BillID: "A001", StockID: "SKU1", Qty: 2, Txval: 100, Rt: 9}},
		Discounts: []domain.DiscountLine{{CompanyID: "c1", BillID: "A001", SubType: "btpr", Amt: 3}},
		Stocks:    []domain.Stock{{CompanyID: "c1", Name: "SKU1", HSN: domain.StrPtr("3401"), Rt: 9}},
	}
}

var (
	sepFrom = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	sepTo   = time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
)

func TestLedgerRepo_ReplaceVouchers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sales WHERE company_id = \$1 AND date BETWEEN \$2 AND \$3 AND type IN \(\$4, \$5\)`).
		WithArgs("c1", sepFrom, sepTo, "sales", "salesreturn").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(`INSERT INTO "sales"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "inventory"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "discount"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "stock" .* ON CONFLICT \(company_id, name\) DO UPDATE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx port.LedgerTx) error {
		return tx.ReplaceVouchers(context.Background(), "c1", sepFrom, sepTo,
			[]domain.VoucherType{domain.VoucherSales, domain.VoucherSalesReturn}, testBatch())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ReplaceVouchers_RollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sales`).WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(`INSERT INTO "sales"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "inventory"`).WillReturnError(errors.New("violates foreign key constraint"))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx port.LedgerTx) error {
		return tx.ReplaceVouchers(context.Background(), "c1", sepFrom, sepFrom,
			[]domain.VoucherType{domain.VoucherSales}, testBatch())
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionFailure)
	assert.Contains(t, err.Error(), "foreign key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_InTx_RollsBackEveryWrite(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewLedgerRepo(db)

	batch := &domain.LedgerBatch{Parties: []domain.Party{{CompanyID: "c1", Code: "P1"}}}
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "party"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM sales`).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx port.LedgerTx) error {
		if err := tx.UpsertMasters(context.Background(), "c1", batch); err != nil {
			return err
		}
		if err := tx.ReplaceVouchers(context.Background(), "c1", sepFrom, sepTo,
			[]domain.VoucherType{domain.VoucherDamage}, &domain.LedgerBatch{}); err != nil {
			return err
		}
		return errors.New("later step failed")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_UpsertMasters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewLedgerRepo(db)

	batch := &domain.LedgerBatch{Parties: []domain.Party{{CompanyID: "c1", Code: "P1", Name: domain.StrPtr("Shop")}}}
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "party" .* ON CONFLICT \(company_id, code\) DO UPDATE`).
		WithArgs("c1", "P1", nil, domain.StrPtr("Shop"), nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.InTx(context.Background(), func(tx port.LedgerTx) error {
		return tx.UpsertMasters(context.Background(), "c1", batch)
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ExistingVouchers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT inum FROM sales\s+WHERE company_id = \$1 AND inum IN \(\$2, \$3\)\s+AND NOT \(date BETWEEN \$4 AND \$5 AND type IN \(\$6\)\)`).
		WithArgs("c1", "A000", "A007", sepFrom, sepTo, "salesreturn").
		WillReturnRows(sqlmock.NewRows([]string{"inum"}).AddRow("A000"))
	mock.ExpectCommit()

	var got map[string]bool
	require.NoError(t, repo.InTx(context.Background(), func(tx port.LedgerTx) error {
		var err error
		got, err = tx.ExistingVouchers(context.Background(), "c1", []string{"A000", "A007"}, sepFrom, sepTo,
			[]domain.VoucherType{domain.VoucherSalesReturn})
		if err != nil {
			return err
		}
		empty, err := tx.ExistingVouchers(context.Background(), "c1", nil, sepFrom, sepTo, nil)
		assert.Empty(t, empty)
		return err
	}))
	assert.Equal(t, map[string]bool{"A000": true}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_LookupsReadThroughTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT DISTINCT ON \(party_id\) party_id, ctin`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"party_id", "ctin"}).
			AddRow("P1", "33AAAA").
			AddRow("P2", nil))
	mock.ExpectQuery(`SELECT name, COALESCE\(rt, 0\) AS rt FROM stock`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rt"}).AddRow("SKU1", 9.0).AddRow("SKU2", 2.5))
	mock.ExpectCommit()

	var (
		ctins map[string]string
		rates map[string]float64
	)
	require.NoError(t, repo.InTx(context.Background(), func(tx port.LedgerTx) error {
		var err error
		if ctins, err = tx.LatestPartyCtins(context.Background(), "c1"); err != nil {
			return err
		}
		rates, err = tx.StockRates(context.Background(), "c1")
		return err
	}))
	assert.Equal(t, map[string]string{"P1": "33AAAA"}, ctins)
	assert.Equal(t, map[string]float64{"SKU1": 9, "SKU2": 2.5}, rates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_TagPeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE sales SET gst_period = \$1 WHERE company_id = \$2 AND date BETWEEN \$3 AND \$4 AND type IN \(\$5\)`).
		WithArgs("092025", "c1", sepFrom, sepTo, "sales").
		WillReturnResult(sqlmock.NewResult(0, 42))
	mock.ExpectCommit()

	require.NoError(t, repo.InTx(context.Background(), func(tx port.LedgerTx) error {
		n, err := tx.TagPeriod(context.Background(), "c1", []domain.VoucherType{domain.VoucherSales}, sepFrom, sepTo, "092025")
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)

		n, err = tx.TagPeriod(context.Background(), "c1", nil, sepFrom, sepTo, "092025")
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
