package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/report"
)

func TestKinds_Registry(t *testing.T) {
	assert.Equal(t, []string{"dmgsht", "gstr1_portal", "ikea_gstr1", "party", "salesregister", "stockhsnrate"}, report.Kinds())

	s, ok := report.Lookup(report.KindSalesRegister)
	require.True(t, ok)
	assert.Equal(t, domain.ScopeDateRange, s.Scope)
	assert.True(t, s.Cache)

	_, ok = report.Lookup("purchase")
	assert.False(t, ok)
	assert.Panics(t, func() { report.MustLookup("purchase") })
}

func TestSalesRegister_Normalize(t *testing.T) {
	cols := []string{
		"BillRefNo", "Party Name", "BillDate/Sales Return Date", "Party Code", "SchDisc", "CashDisc",
		"BTPR SchDisc", "OutPyt Adj", "Ushop Redemption", "Adjustments", "GSTIN Number", "RoundOff",
		"TCS Amt", "TDS-194R Per", "Tax Amt", "SRT Tax", "BillValue", "CR Adj", "DisFin Adj", "Reversed Payouts",
	}
	raw := domain.NewTable(cols, [][]any{
		{"A001", "Shop", "2025-09-01", "P1", 1.0, 2.0, -3.0, 0.0, 0.0, 0.0, "33AAAA", 0.2, 0.0, 0.0, 18.0, 0.0, 118.0, 0.0, -1.0, -0.5},
		{"A000", "Shop", "2025-09-01", "P1", 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, nil, 0.0, 0.0, 0.0, 0.0, 9.0, -59.0, 0.0, 0.0, 0.0},
		{"", "Grand Total", "", "", 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, nil, 0.0, 0.0, 0.0, 0.0, 0.0, 59.0, 0.0, 0.0, 0.0},
	})

	out, err := report.Normalize(raw, report.MustLookup(report.KindSalesRegister))
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)

	sale := out.Rows[0]
	assert.Equal(t, "sales", sale["type"])
	assert.InDelta(t, 118.0, sale["amt"], 1e-9)
	assert.InDelta(t, 18.0, sale["tax"], 1e-9)
	assert.InDelta(t, -1.5, sale["other_discount"], 1e-9)

	ret := out.Rows[1]
	assert.Equal(t, "salesreturn", ret["type"])
	assert.InDelta(t, -9.0, ret["tax"], 1e-9)
}

func TestGSTR1_Normalize(t *testing.T) {
	cols := []string{
		"Invoice No", "Invoice Date", "Invoice Value", "Outlet Code", "Outlet Name", "GSTIN of Recipient",
		"Amount - Central Tax", "Amount - State/UT Tax", "Taxable", "UQC", "Total Quantity", "Tax - Central Tax",
		"HSN", "HSN Description", "Debit/Credit No", "Original Invoice No", "Transactions",
	}
	raw := domain.NewTable(cols, [][]any{
		{"A001", "01/09/2025", 118.0, "P1", "Shop", "33AAAA", 9.0, 9.0, 100.0, "SKU1", 2.0, 9.0, "3401.11", "Soap", nil, nil, "SECONDARY BILLING"},
		{"A001", "02/09/2025", 59.0, nil, "HUL", "33BBBB", 4.5, 4.5, 50.0, "SKU1", 1.0, 9.0, 34011190.0, "Soap", "CN1", "A000", "CLAIMS SERVICE"},
	})

	out, err := report.Normalize(raw, report.MustLookup(report.KindGSTR1))
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "sales", out.Rows[0]["type"])
	assert.Equal(t, "340111", out.Rows[0]["hsn"])
	assert.Equal(t, "P1", out.Rows[0]["party_id"])
	assert.Equal(t, "claimservice", out.Rows[1]["type"])
	assert.Equal(t, "HUL", out.Rows[1]["party_id"])
	assert.Equal(t, "34011190", out.Rows[1]["hsn"])
}

func TestDamage_Normalize(t *testing.T) {
	cols := []string{
		"TRANS REF NO", "TRANS DATE", "RETAILER CODE", "RETAILER NAME", "PRODUCT CODE", "PRODUCT NAME",
		"QTY/FREE QTY", "TOTAL TUR VALUE", "TSO PLG", "CREDIT NOTE NO", "Original Bill No", "TRANSACTION TYPE",
	}
	raw := domain.NewTable(cols, [][]any{
		{"D1", "2025-09-03", "P1", "Shop", "SKU1", "Soap", 1.0, 118.0, nil, nil, nil, "MKT DMG"},
		{"D2", "2025-09-03", nil, nil, "SKU2", "Tea", 1.0, 50.0, nil, nil, nil, "RS SHT"},
	})

	out, err := report.Normalize(raw, report.MustLookup(report.KindDamage))
	require.NoError(t, err)
	assert.Equal(t, "market", out.Rows[0]["return_from"])
	assert.Equal(t, "damage", out.Rows[0]["type"])
	assert.Equal(t, "rs", out.Rows[1]["return_from"])
	assert.Equal(t, "shortage", out.Rows[1]["type"])
	assert.Equal(t, "HUL", out.Rows[1]["party_id"])
}

func TestStockRate_KeepsHighestRatePerStock(t *testing.T) {
	raw := domain.NewTable([]string{"prod_code", "HSN_NUMBER", "CGST_RATE"}, [][]any{
		{"SKU1", "3401.11", 9.0},
		{"SKU1", "3401.19", 2.5},
		{"SKU2", nil, 9.0},
		{"SKU3", "0902", 2.5},
	})

	out, err := report.Normalize(raw, report.MustLookup(report.KindStockRate))
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)

	byID := map[string]domain.Row{}
	for _, r := range out.Rows {
		byID[r.String("stock_id")] = r
	}
	assert.Equal(t, "340111", byID["SKU1"]["hsn"])
	assert.Equal(t, 9.0, byID["SKU1"]["rt"])
	assert.Equal(t, "0902", byID["SKU3"]["hsn"])
	assert.NotContains(t, byID, "SKU2")
}

func TestParty_Normalize(t *testing.T) {
	cols := []string{"Party Name", "Address", "Party Code", "Beat", "GSTIN Number", "Party Master Code"}
	raw := domain.NewTable(cols, [][]any{
		{"Shop", "12, Main Road, TRICHY PH : 98400 12345", "P1", "B1", "33AAAA", "M1"},
		{"Shop again", "elsewhere", "P1", "B1", nil, "M1"},
		{"Kiosk", "Bus stand, N.A", "P2", "B2", nil, "M2"},
		{"Nobody", "x", nil, "B3", nil, nil},
	})

	out, err := report.Normalize(raw, report.MustLookup(report.KindParty))
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "12, Main Road", out.Rows[0]["addr"])
	assert.Equal(t, "98400 12345", out.Rows[0]["phone"])
	assert.Equal(t, "Bus stand", out.Rows[1]["addr"])
	assert.Nil(t, out.Rows[1]["phone"])
}
