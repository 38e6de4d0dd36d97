package reconcile_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/reconcile"
)

var sep5 = time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)

func b2b(inum string, txval, tax float64) reconcile.Invoice {
	return reconcile.Invoice{CompanyID: "A", Inum: inum, Date: sep5, Type: domain.VoucherSales, GSTType: domain.GSTTypeB2B, Ctin: "33AAAA", Txval: txval, Tax: tax}
}

func portalRow(inum string, txval, cgst float64) domain.PortalInvoice {
	return domain.PortalInvoice{GSTIN: "33SELLER", Period: "092025", Inum: inum, Type: domain.GSTTypeB2B, Ctin: "33AAAA", Txval: txval, Cgst: cgst, Sgst: cgst}
}

func TestInvoices_SignsAndZeroRate(t *testing.T) {
	lines := []domain.FilingLine{
		{CompanyID: "A", Inum: "S1", Type: domain.VoucherSales, Ctin: "33AAAA", Txval: 100, Rt: 9},
		{CompanyID: "A", Inum: "S1", Type: domain.VoucherSales, Ctin: "33AAAA", Txval: 40, Rt: 0},
		{CompanyID: "A", Inum: "CN1", Type: domain.VoucherSalesReturn, Ctin: "33AAAA", Txval: -50, Rt: 9},
		{CompanyID: "A", Inum: "D1", Type: domain.VoucherDamage, Txval: 20, Rt: 2.5},
	}
	invs := reconcile.Invoices(lines)
	require.Len(t, invs, 3)

	assert.Equal(t, "CN1", invs[0].Inum)
	assert.Equal(t, domain.GSTTypeCDNR, invs[0].GSTType)
	assert.Equal(t, -50.0, invs[0].Txval)
	assert.Equal(t, -4.5, invs[0].Tax)

	assert.Equal(t, "D1", invs[1].Inum)
	assert.Equal(t, domain.GSTTypeB2C, invs[1].GSTType)
	assert.Equal(t, -20.0, invs[1].Txval)

	assert.Equal(t, "S1", invs[2].Inum)
	assert.Equal(t, 140.0, invs[2].Txval)
	assert.Equal(t, 9.0, invs[2].Tax)
	assert.Equal(t, 40.0, invs[2].ZeroRate)
}

func TestReconcile_TaxableTolerance(t *testing.T) {
	tests := []struct {
		name     string
		ledger   float64
		portal   float64
		mismatch bool
	}{
		{"exact", 500, 500, false},
		{"diff 1.00 accepted", 501, 500, false},
		{"diff 1.01 flagged", 501.01, 500, true},
		{"diff 1.01 below flagged", 500, 501.01, true},
		{"representation noise", 500.01, 499.01, false},
		{"diff 1.004 flagged", 500, 498.996, true},
		{"diff 1.001 below flagged", 500, 501.001, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reconcile.Reconcile(
				[]reconcile.Invoice{b2b("INV1", tt.ledger, 25)},
				[]domain.PortalInvoice{portalRow("INV1", tt.portal, 25)},
			)
			assert.Empty(t, res.Missing)
			assert.Empty(t, res.Extra)
			if tt.mismatch {
				require.Len(t, res.Mismatched, 1)
				assert.Equal(t, "INV1", res.Mismatched[0].Ledger.Inum)
			} else {
				assert.Empty(t, res.Mismatched)
			}
		})
	}
}

func TestReconcile_TaxTolerance(t *testing.T) {
	res := reconcile.Reconcile(
		[]reconcile.Invoice{b2b("I1", 500, 25.5), b2b("I2", 500, 25.51)},
		[]domain.PortalInvoice{portalRow("I1", 500, 25), portalRow("I2", 500, 25)},
	)
	require.Len(t, res.Mismatched, 1)
	assert.Equal(t, "I2", res.Mismatched[0].Ledger.Inum)
	assert.Equal(t, 0.51, res.Mismatched[0].TaxDiff)
}

func TestReconcile_MissingAndExtra(t *testing.T) {
	ledger := []reconcile.Invoice{b2b("INV1", 500, 25), b2b("INV2", 100, 5)}
	portal := []domain.PortalInvoice{portalRow("INV2", 100, 5), portalRow("INV9", 10, 0.5)}

	res := reconcile.Reconcile(ledger, portal)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "INV1", res.Missing[0].Inum)
	require.Len(t, res.Extra, 1)
	assert.Equal(t, "INV9", res.Extra[0].Inum)
	assert.Empty(t, res.Mismatched)
	assert.Len(t, res.Refile(), 1)
}

func TestReconcile_IgnoresB2CAndZeroTax(t *testing.T) {
	b2c := b2b("R1", 100, 5)
	b2c.GSTType = domain.GSTTypeB2C
	b2c.Ctin = ""
	zeroTax := b2b("Z1", 100, 0)

	res := reconcile.Reconcile([]reconcile.Invoice{b2c, zeroTax}, []domain.PortalInvoice{portalRow("Z2", 100, 0)})
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Extra)
	assert.Empty(t, res.Mismatched)
}

func TestReconcile_ZeroRateCarveOut(t *testing.T) {
	// The portal holds only the taxed part of each invoice.
	withZero := b2b("I1", 540, 45)
	withZero.ZeroRate = 40
	unexplained := b2b("I2", 540, 45)
	unexplained.ZeroRate = 10
	fullyZero := b2b("I3", 70, 0)
	fullyZero.ZeroRate = 70
	credit := reconcile.Invoice{Inum: "C1", Type: domain.VoucherSalesReturn, GSTType: domain.GSTTypeCDNR, Ctin: "33AAAA", Txval: -60, Tax: -4.5, ZeroRate: -10}
	creditPortal := portalRow("C1", -50, -4.5)
	creditPortal.Type = domain.GSTTypeCDNR

	res := reconcile.Reconcile(
		[]reconcile.Invoice{withZero, unexplained, fullyZero, credit},
		[]domain.PortalInvoice{portalRow("I1", 500, 45), portalRow("I2", 500, 45), creditPortal},
	)

	require.Len(t, res.Mismatched, 1)
	assert.Equal(t, "I2", res.Mismatched[0].Ledger.Inum)
	assert.Equal(t, 40.0, res.Mismatched[0].TxvalDiff)

	require.Len(t, res.ZeroRate, 4)
	flags := map[string]bool{}
	for _, c := range res.ZeroRate {
		flags[c.Invoice.Inum] = c.Confirmed
	}
	assert.Equal(t, map[string]bool{"C1": true, "I1": true, "I2": false, "I3": true}, flags)
	assert.Equal(t, 110.0, res.ZeroRateTotals[domain.GSTTypeB2B])
	assert.Equal(t, -10.0, res.ZeroRateTotals[domain.GSTTypeCDNR])
	assert.Equal(t, 100.0, res.ZeroRateTotal())
}

func TestReconcile_Idempotent(t *testing.T) {
	ledger := []reconcile.Invoice{b2b("A1", 100, 5), b2b("A2", 200, 10), b2b("A3", 300, 15), b2b("A4", 50, 2.5)}
	portal := []domain.PortalInvoice{portalRow("A2", 210, 10), portalRow("A3", 300, 15), portalRow("B1", 1, 0.05), portalRow("B2", 2, 0.1)}

	first := reconcile.Reconcile(ledger, portal)
	second := reconcile.Reconcile(ledger, portal)
	assert.Equal(t, first, second)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		l := append([]reconcile.Invoice(nil), ledger...)
		p := append([]domain.PortalInvoice(nil), portal...)
		rng.Shuffle(len(l), func(a, b int) { l[a], l[b] = l[b], l[a] })
		rng.Shuffle(len(p), func(a, b int) { p[a], p[b] = p[b], p[a] })
		assert.Equal(t, first, reconcile.Reconcile(l, p))
	}
}

func TestResult_Statuses(t *testing.T) {
	consumer := b2b("R1", 10, 1)
	consumer.GSTType = domain.GSTTypeB2C
	ledger := []reconcile.Invoice{b2b("I1", 100, 5), b2b("I2", 100, 5), b2b("I3", 100, 5), b2b("Z1", 10, 0), consumer}
	portal := []domain.PortalInvoice{portalRow("I1", 100, 5), portalRow("I2", 150, 5)}

	res := reconcile.Reconcile(ledger, portal)
	assert.Equal(t, map[string]string{
		"I1": reconcile.StatusFiled,
		"I2": reconcile.StatusMismatch,
		"I3": reconcile.StatusMissing,
		"Z1": reconcile.StatusUncompared,
		"R1": reconcile.StatusConsumer,
	}, res.Statuses(ledger))
}
