package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

// Report kinds.
const (
	KindSalesRegister = "salesregister"
	KindGSTR1         = "ikea_gstr1"
	KindDamage        = "dmgsht"
	KindStockRate     = "stockhsnrate"
	KindParty         = "party"
	KindPortal        = "gstr1_portal"
)

var specs = map[string]*Spec{
	KindSalesRegister: {
		Kind:  KindSalesRegister,
		Scope: domain.ScopeDateRange,
		Target: port.StoreTarget{
			Table:       "salesregister_report",
			OwnerColumn: "company_id",
			Mode:        port.StoreReplaceRange,
			Columns: []string{
				"company_id", "inum", "date", "party_id", "party_name", "type", "amt", "ctin",
				"tcs", "tds", "tax", "schdisc", "cashdisc", "btpr", "outpyt", "ushop", "pecom",
				"roundoff", "other_discount",
			},
		},
		ColumnMap: map[string]string{
			"BillRefNo":                  "inum",
			"Party Name":                 "party_name",
			"BillDate/Sales Return Date": "date",
			"Party Code":                 "party_id",
			"SchDisc":                    "schdisc",
			"CashDisc":                   "cashdisc",
			"BTPR SchDisc":               "btpr",
			"OutPyt Adj":                 "outpyt",
			"Ushop Redemption":           "ushop",
			"Adjustments":                "pecom",
			"GSTIN Number":               "ctin",
			"RoundOff":                   "roundoff",
			"TCS Amt":                    "tcs",
			"TDS-194R Per":               "tds",
		},
		IgnoreLastRows: 1,
		ParseDate:      true,
		Transform:      salesRegisterTransform,
		Cache:          true,
	},
	KindGSTR1: {
		Kind:  KindGSTR1,
		Scope: domain.ScopeDateRange,
		Target: port.StoreTarget{
			Table:       "ikea_gstr1_report",
			OwnerColumn: "company_id",
			Mode:        port.StoreReplaceRange,
			Columns: []string{
				"company_id", "inum", "date", "txval", "stock_id", "qty", "rt", "type", "hsn", "desc",
				"credit_note_no", "original_invoice_no", "party_id", "party_name", "ctin", "cgst",
				"sgst", "inv_amt",
			},
		},
		ColumnMap: map[string]string{
			"Invoice No":            "inum",
			"Invoice Date":          "date",
			"Invoice Value":         "inv_amt",
			"Outlet Code":           "party_id",
			"Outlet Name":           "party_name",
			"GSTIN of Recipient":    "ctin",
			"Amount - Central Tax":  "cgst",
			"Amount - State/UT Tax": "sgst",
			"Taxable":               "txval",
			"UQC":                   "stock_id",
			"Total Quantity":        "qty",
			"Tax - Central Tax":     "rt",
			"HSN":                   "hsn",
			"HSN Description":       "desc",
			"Debit/Credit No":       "credit_note_no",
			"Original Invoice No":   "original_invoice_no",
		},
		ParseDate:  true,
		DateLayout: "02/01/2006",
		Transform:  gstr1Transform,
		Cache:      true,
	},
	KindDamage: {
		Kind:  KindDamage,
		Scope: domain.ScopeDateRange,
		Target: port.StoreTarget{
			Table:       "dmgsht_report",
			OwnerColumn: "company_id",
			Mode:        port.StoreReplaceRange,
			Columns: []string{
				"company_id", "inum", "type", "return_from", "date", "party_id", "party_name",
				"stock_id", "desc", "qty", "amt", "plg", "credit_note_no", "original_invoice_no",
			},
		},
		ColumnMap: map[string]string{
			"TRANS REF NO":     "inum",
			"TRANS DATE":       "date",
			"RETAILER CODE":    "party_id",
			"RETAILER NAME":    "party_name",
			"PRODUCT CODE":     "stock_id",
			"PRODUCT NAME":     "desc",
			"QTY/FREE QTY":     "qty",
			"TOTAL TUR VALUE":  "amt",
			"TSO PLG":          "plg",
			"CREDIT NOTE NO":   "credit_note_no",
			"Original Bill No": "original_invoice_no",
		},
		ParseDate: true,
		Transform: damageTransform,
		Cache:     true,
	},
	KindStockRate: {
		Kind:  KindStockRate,
		Scope: domain.ScopeNone,
		Target: port.StoreTarget{
			Table:       "stockhsnrate_report",
			OwnerColumn: "company_id",
			Mode:        port.StoreReplaceAll,
			Columns:     []string{"company_id", "stock_id", "hsn", "rt"},
		},
		ColumnMap: map[string]string{"prod_code": "stock_id", "HSN_NUMBER": "hsn", "CGST_RATE": "rt"},
		DropNull:  []string{"hsn"},
		Transform: stockRateTransform,
	},
	KindParty: {
		Kind:  KindParty,
		Scope: domain.ScopeNone,
		Target: port.StoreTarget{
			Table:       "party_report",
			OwnerColumn: "company_id",
			Mode:        port.StoreReplaceAll,
			Columns:     []string{"company_id", "code", "master_code", "name", "addr", "beat", "ctin", "phone"},
		},
		ColumnMap: map[string]string{
			"Party Name":        "name",
			"Address":           "addr",
			"Party Code":        "code",
			"Beat":              "beat",
			"GSTIN Number":      "ctin",
			"Party Master Code": "master_code",
			"Phone":             "phone",
		},
		DropNull:  []string{"code"},
		Transform: partyTransform,
	},
	KindPortal: {
		Kind:   KindPortal,
		Scope:  domain.ScopeMonth,
		Source: SourcePortal,
		Target: port.StoreTarget{
			Table:       "gstr1_portal",
			OwnerColumn: "gstin",
			Mode:        port.StoreReplacePeriod,
			Columns: []string{
				"gstin", "period", "date", "inum", "type", "ctin", "amt", "txval", "cgst", "sgst",
				"irn", "irn_date", "srctype",
			},
		},
		ColumnMap: map[string]string{
			"idt":        "date",
			"invcamt":    "cgst",
			"invsamt":    "sgst",
			"val":        "amt",
			"invtxval":   "txval",
			"irngendate": "irn_date",
			"srctyp":     "srctype",
		},
		ParseDate: true,
		Transform: portalTransform,
	},
}

// Lookup returns the rule record of a report kind.
func Lookup(kind string) (*Spec, bool) {
	s, ok := specs[kind]
	return s, ok
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(kind string) *Spec {
	s, ok := specs[kind]
	if !ok {
		panic(fmt.Sprintf("report: unknown kind %q", kind))
	}
	return s
}

// Kinds lists all registered kinds in a stable order.
func Kinds() []string {
	out := make([]string, 0, len(specs))
	for k := range specs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func requireColumns(t *domain.Table, table string, cols ...string) error {
	if missing := t.MissingColumns(cols); len(missing) > 0 {
		return &domain.SchemaMismatchError{Table: table, Missing: missing}
	}
	return nil
}

func salesRegisterTransform(t *domain.Table) (*domain.Table, error) {
	err := requireColumns(t, "salesregister_report",
		"Tax Amt", "SRT Tax", "BillValue", "CR Adj", "DisFin Adj", "Reversed Payouts")
	if err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		row["tax"] = row.Float("Tax Amt") - row.Float("SRT Tax")
		amt := row.Float("BillValue") + row.Float("CR Adj")
		row["amt"] = amt
		row["other_discount"] = row.Float("DisFin Adj") + row.Float("Reversed Payouts")
		if amt < 0 {
			row["type"] = string(domain.VoucherSalesReturn)
		} else {
			row["type"] = string(domain.VoucherSales)
		}
	}
	t.AddColumn("tax")
	t.AddColumn("amt")
	t.AddColumn("other_discount")
	t.AddColumn("type")
	return t, nil
}

var gstr1Transactions = map[string]domain.VoucherType{
	"SECONDARY BILLING": domain.VoucherSales,
	"SALES RETURN":      domain.VoucherSalesReturn,
	"CLAIMS SERVICE":    domain.VoucherClaimService,
}

func gstr1Transform(t *domain.Table) (*domain.Table, error) {
	if err := requireColumns(t, "ikea_gstr1_report", "Transactions", "party_id", "hsn"); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		tr := row.String("Transactions")
		if vt, ok := gstr1Transactions[strings.ToUpper(tr)]; ok {
			row["type"] = string(vt)
		} else {
			row["type"] = tr
		}
		if row.IsNull("party_id") {
			row["party_id"] = domain.DefaultPartyID
		}
		row["hsn"] = cleanHSN(row["hsn"])
	}
	t.AddColumn("type")
	return t, nil
}

func damageTransform(t *domain.Table) (*domain.Table, error) {
	if err := requireColumns(t, "dmgsht_report", "TRANSACTION TYPE", "party_id"); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		tr := row.String("TRANSACTION TYPE")
		if strings.HasPrefix(tr, "RS") {
			row["return_from"] = string(domain.ReturnFromRS)
		} else {
			row["return_from"] = string(domain.ReturnFromMarket)
		}
		if strings.HasSuffix(tr, "DMG") {
			row["type"] = string(domain.VoucherDamage)
		} else {
			row["type"] = string(domain.VoucherShortage)
		}
		if row.IsNull("party_id") {
			row["party_id"] = domain.DefaultPartyID
		}
	}
	t.AddColumn("return_from")
	t.AddColumn("type")
	return t, nil
}

// stockRateTransform keeps one row per stock code, the one with the highest
// rate.
func stockRateTransform(t *domain.Table) (*domain.Table, error) {
	if err := requireColumns(t, "stockhsnrate_report", "stock_id", "rt"); err != nil {
		return nil, err
	}
	rows := append([]domain.Row(nil), t.Rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Float("rt") < rows[j].Float("rt") })

	last := make(map[string]int, len(rows))
	for i, row := range rows {
		last[row.String("stock_id")] = i
	}
	out := &domain.Table{Columns: []string{"stock_id", "hsn", "rt"}}
	for i, row := range rows {
		id := row.String("stock_id")
		if last[id] != i {
			continue
		}
		out.Rows = append(out.Rows, domain.Row{
			"stock_id": id,
			"hsn":      cleanHSN(row["hsn"]),
			"rt":       row.Float("rt"),
		})
	}
	return out, nil
}

func partyTransform(t *domain.Table) (*domain.Table, error) {
	if err := requireColumns(t, "party_report", "code", "addr"); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(t.Rows))
	rows := t.Rows[:0]
	for _, row := range t.Rows {
		code := row.String("code")
		if seen[code] {
			continue
		}
		seen[code] = true

		addr := row.String("addr")
		if parts := strings.SplitN(addr, "PH :", 2); len(parts) == 2 {
			row["phone"] = strings.TrimSpace(parts[1])
		} else {
			row["phone"] = nil
		}
		if !row.IsNull("addr") {
			row["addr"] = addressHead(addressHead(addressHead(addr, "TRICHY"), "PH :"), "N.A")
		}
		rows = append(rows, row)
	}
	t.Rows = rows
	t.AddColumn("phone")
	return t, nil
}

func addressHead(s, sep string) string {
	head, _, _ := strings.Cut(s, sep)
	return strings.Trim(head, " \t,")
}

func portalTransform(t *domain.Table) (*domain.Table, error) {
	if err := requireColumns(t, "gstr1_portal", "irn_date"); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if row.IsNull("irn_date") {
			row["irn_date"] = nil
			continue
		}
		d, err := ParseDate(row["irn_date"], "")
		if err != nil {
			return nil, fmt.Errorf("row %d irn_date: %w", i, err)
		}
		row["irn_date"] = d
	}
	return t, nil
}

// cleanHSN renders an HSN cell as digits only. Spreadsheet exports deliver
// HSN either as text ("3401.11") or as a number.
func cleanHSN(v any) any {
	if domain.IsNull(v) {
		return nil
	}
	var s string
	switch x := v.(type) {
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s = strings.TrimSpace(fmt.Sprint(x))
	}
	return strings.ReplaceAll(s, ".", "")
}
