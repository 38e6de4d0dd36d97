package filing_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
	"gstfiling/internal/reconcile"
)

var sep5 = time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)

func line(inum string, typ domain.VoucherType, ctin, hsn string, txval, rt float64) domain.FilingLine {
	return domain.FilingLine{CompanyID: "A", Inum: inum, Date: sep5, Type: typ, Ctin: ctin, HSN: hsn, Qty: 1, Txval: txval, Rt: rt, Amt: -txval * (1 + 2*rt/100)}
}

func build(t *testing.T, lines []domain.FilingLine, portal []domain.PortalInvoice) *filing.Document {
	t.Helper()
	recon := reconcile.Reconcile(reconcile.Invoices(lines), portal)
	doc, err := filing.Build(filing.Input{
		GSTIN:   "33SELLER1234Z5",
		Period:  "092025",
		Version: "GST3.2.1",
		Lines:   lines,
		Recon:   recon,
	})
	require.NoError(t, err)
	return doc
}

func TestBuild_MissingInvoiceIsFiledUnderCtin(t *testing.T) {
	lines := []domain.FilingLine{line("INV1", domain.VoucherSales, "33BBBB", "3401", 500, 2.5)}

	recon := reconcile.Reconcile(reconcile.Invoices(lines), nil)
	require.Len(t, recon.Missing, 1)
	assert.Equal(t, "INV1", recon.Missing[0].Inum)
	assert.Equal(t, 500.0, recon.Missing[0].Txval)
	assert.Equal(t, 12.5, recon.Missing[0].Tax)

	doc := build(t, lines, nil)
	require.Len(t, doc.B2B, 1)
	assert.Equal(t, "33BBBB", doc.B2B[0].Ctin)
	require.Len(t, doc.B2B[0].Inv, 1)
	inv := doc.B2B[0].Inv[0]
	assert.Equal(t, "INV1", inv.Inum)
	assert.Equal(t, "05-09-2025", inv.Idt)
	assert.Equal(t, 525.0, inv.Val)
	assert.Equal(t, "33", inv.Pos)
	require.Len(t, inv.Itms, 1)
	assert.Equal(t, filing.Item{Num: 501, ItmDet: filing.ItemDetail{Txval: 500, Rt: 5, Camt: 12.5, Samt: 12.5}}, inv.Itms[0])

	assert.Empty(t, doc.CDNR)
	assert.Nil(t, doc.Nil)
	assert.Equal(t, "092025", doc.FP)
	assert.Equal(t, "hash", doc.Hash)
}

func TestBuild_FiledInvoicesAreNotRepeated(t *testing.T) {
	lines := []domain.FilingLine{
		line("INV1", domain.VoucherSales, "33BBBB", "3401", 500, 2.5),
		line("INV2", domain.VoucherSales, "33BBBB", "3401", 100, 9),
		line("INV2", domain.VoucherSales, "33BBBB", "0902", 40, 0),
	}
	lines = append(lines, domain.FilingLine{CompanyID: "A", Inum: "CN1", Date: sep5, Type: domain.VoucherSalesReturn, Ctin: "33CCCC", HSN: "3401", Qty: 1, Txval: -50, Rt: 9, Amt: 59})
	portal := []domain.PortalInvoice{{Inum: "INV1", Type: domain.GSTTypeB2B, Ctin: "33BBBB", Txval: 500, Cgst: 12.5}}

	doc := build(t, lines, portal)
	require.Len(t, doc.B2B, 1)
	require.Len(t, doc.B2B[0].Inv, 1)
	inv := doc.B2B[0].Inv[0]
	assert.Equal(t, "INV2", inv.Inum)
	require.Len(t, inv.Itms, 1, "zero-rated items are left to the nil block")
	assert.Equal(t, 18.0, inv.Itms[0].ItmDet.Rt)

	require.Len(t, doc.CDNR, 1)
	assert.Equal(t, "33CCCC", doc.CDNR[0].Ctin)
	nt := doc.CDNR[0].Nt[0]
	assert.Equal(t, "CN1", nt.NtNum)
	assert.Equal(t, "C", nt.Ntty)
	assert.Equal(t, 59.0, nt.Val)
	assert.Equal(t, 50.0, nt.Itms[0].ItmDet.Txval)
	assert.Equal(t, 4.5, nt.Itms[0].ItmDet.Camt)
}

func TestBuild_B2CSNetsReturns(t *testing.T) {
	lines := []domain.FilingLine{
		line("R1", domain.VoucherSales, "", "3401", 200, 9),
		line("D1", domain.VoucherDamage, "", "3401", 20, 9),
		line("R2", domain.VoucherSales, "", "0902", 70, 0),
		line("R3", domain.VoucherSales, "", "1905", 100, 2.5),
	}
	doc := build(t, lines, nil)

	require.Len(t, doc.B2CS, 2)
	assert.Equal(t, filing.B2CS{SplyTy: "INTRA", Rt: 5, Typ: "OE", Pos: "33", Txval: 100, Camt: 2.5, Samt: 2.5}, doc.B2CS[0])
	assert.Equal(t, filing.B2CS{SplyTy: "INTRA", Rt: 18, Typ: "OE", Pos: "33", Txval: 180, Camt: 16.2, Samt: 16.2}, doc.B2CS[1])
	assert.Empty(t, doc.B2B)
	assert.Empty(t, doc.HSN.B2B)
	assert.Len(t, doc.HSN.B2C, 3)
}

func TestBuild_NilBlockThreshold(t *testing.T) {
	base := func(zero float64) []domain.FilingLine {
		return []domain.FilingLine{
			line("INV1", domain.VoucherSales, "33BBBB", "3401", 100, 9),
			line("INV1", domain.VoucherSales, "33BBBB", "0902", zero, 0),
			line("R1", domain.VoucherSales, "", "0902", 30, 0),
		}
	}
	portal := []domain.PortalInvoice{{Inum: "INV1", Type: domain.GSTTypeB2B, Ctin: "33BBBB", Txval: 100, Cgst: 9}}

	doc := build(t, base(0.8), portal)
	assert.Nil(t, doc.Nil)

	doc = build(t, base(40), portal)
	require.NotNil(t, doc.Nil)
	assert.Equal(t, []filing.NilSupply{
		{SplyTy: "INTRAB2B", NilAmt: 40},
		{SplyTy: "INTRAB2C", NilAmt: 30},
	}, doc.Nil.Inv)
}

func TestBuild_JSONShape(t *testing.T) {
	doc := build(t, []domain.FilingLine{line("INV1", domain.VoucherSales, "33BBBB", "3401", 500, 2.5)}, nil)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"gstin", "fp", "version", "hash", "b2b", "cdnr", "b2cs", "hsn", "doc_issue"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "nil")
	hsn := m["hsn"].(map[string]any)
	assert.Contains(t, hsn, "hsn_b2b")
	assert.Contains(t, hsn, "hsn_b2c")
}

func TestBuild_RejectsBadInput(t *testing.T) {
	recon := reconcile.Reconcile(nil, nil)
	_, err := filing.Build(filing.Input{GSTIN: "33SELLER", Period: "132025", Recon: recon})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = filing.Build(filing.Input{GSTIN: "3", Period: "092025", Recon: recon})
	assert.Error(t, err)

	_, err = filing.Build(filing.Input{GSTIN: "33SELLER", Period: "092025"})
	assert.Error(t, err)
}
