// Package importer converts stored ERP reports into the sales ledger.
package importer

import (
	"sort"
	"time"

	"gstfiling/internal/domain"
	"gstfiling/internal/money"
)

// MatchCreditNotes recovers the credit-note number of each sales-return
// register entry. The register lists a return under the number of the
// invoice it reverses; the GSTR-1 detail lines carry the real credit-note
// number. Both sides are grouped by (date, original invoice) and paired in
// ascending amount order.
//
// register and lines must hold sales returns only. The returned copies have
// inum set to the credit note (or left unchanged when no note is left in the
// group), register roundoff negated, and line txval negated. Failures follow
// the order of the unmatched entries in the returned register.
func MatchCreditNotes(companyID string, register []domain.SalesRegisterRow, lines []domain.GSTR1Row) ([]domain.SalesRegisterRow, []domain.GSTR1Row, []domain.MatchingFailure) {
	type key struct {
		date time.Time
		inum string
	}

	details := append([]domain.GSTR1Row(nil), lines...)
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].InvAmt != details[j].InvAmt {
			return details[i].InvAmt < details[j].InvAmt
		}
		return domain.Deref(details[i].CreditNoteNo) < domain.Deref(details[j].CreditNoteNo)
	})

	notes := make(map[key][]string)
	for i := range details {
		d := &details[i]
		cn := domain.Deref(d.CreditNoteNo)
		k := key{d.Date, domain.Deref(d.OriginalInvoiceNo)}
		d.Inum = cn
		d.Txval = -d.Txval
		if !contains(notes[k], cn) {
			notes[k] = append(notes[k], cn)
		}
	}

	returns := append([]domain.SalesRegisterRow(nil), register...)
	sort.SliceStable(returns, func(i, j int) bool {
		if returns[i].Amt != returns[j].Amt {
			return returns[i].Amt < returns[j].Amt
		}
		return returns[i].PartyID < returns[j].PartyID
	})

	var failures []domain.MatchingFailure
	for i := range returns {
		r := &returns[i]
		r.Roundoff = -r.Roundoff
		k := key{r.Date, r.Inum}
		queue := notes[k]
		if len(queue) == 0 {
			failures = append(failures, domain.MatchingFailure{
				CompanyID:       companyID,
				Date:            r.Date.Format("2006-01-02"),
				OriginalInvoice: r.Inum,
				Amount:          r.Amt,
			})
			continue
		}
		r.Inum = queue[0]
		notes[k] = queue[1:]
	}
	return returns, details, failures
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ClaimService is one aggregated claim-service invoice. Amt is the gross
// claim net of TDS; Tds is the deducted amount, negative.
type ClaimService struct {
	Inum string
	Date time.Time
	Ctin *string
	Amt  float64
	Tds  float64
}

// AggregateClaimServices folds claim-service detail lines into one entry per
// invoice number, in order of first appearance. Rounding happens after
// summing, never per line.
func AggregateClaimServices(lines []domain.GSTR1Row, tdsPercent float64) []ClaimService {
	type acc struct {
		ClaimService
		amt, tds float64
	}
	var order []string
	byInum := make(map[string]*acc)
	for _, l := range lines {
		a, ok := byInum[l.Inum]
		if !ok {
			a = &acc{ClaimService: ClaimService{Inum: l.Inum, Date: l.Date, Ctin: l.Ctin}}
			byInum[l.Inum] = a
			order = append(order, l.Inum)
		}
		a.amt += l.Txval * (100 + 2*l.Rt - tdsPercent) / 100
		a.tds += l.Txval * tdsPercent / 100
	}

	out := make([]ClaimService, 0, len(order))
	for _, inum := range order {
		a := byInum[inum]
		a.Amt = money.Round3(a.amt)
		a.Tds = -money.Round3(a.tds)
		out = append(out, a.ClaimService)
	}
	return out
}

// MarketReturns is the ledger share of the damage/shortage report.
type MarketReturns struct {
	Vouchers []domain.Voucher
	Lines    []domain.InventoryLine
	// UnknownRates lists stock codes with no or zero rate, whose lines get a
	// zero taxable value.
	UnknownRates []string
}

// AllocateMarketReturns builds damage and shortage vouchers from market
// returns. The rate comes from the stock master, the GSTIN from the party's
// latest voucher, and the taxable value is backed out of the gross amount.
// Lines sharing an invoice number are summed into one voucher.
func AllocateMarketReturns(companyID string, rows []domain.DamageRow, rates map[string]float64, ctins map[string]string) MarketReturns {
	var out MarketReturns
	index := make(map[string]int)
	unknown := make(map[string]bool)

	for _, r := range rows {
		if r.ReturnFrom != string(domain.ReturnFromMarket) {
			continue
		}
		rt := rates[r.StockID]
		var txval float64
		if rt != 0 {
			txval = money.Round3(r.Amt * 100 / (100 + 2*rt))
		} else if !unknown[r.StockID] {
			unknown[r.StockID] = true
			out.UnknownRates = append(out.UnknownRates, r.StockID)
		}

		i, ok := index[r.Inum]
		if !ok {
			i = len(out.Vouchers)
			index[r.Inum] = i
			out.Vouchers = append(out.Vouchers, domain.Voucher{
				CompanyID: companyID,
				Inum:      r.Inum,
				Type:      domain.VoucherType(r.Type),
				Date:      r.Date,
				PartyID:   domain.StrPtr(r.PartyID),
				Ctin:      domain.StrPtr(ctins[r.PartyID]),
			})
		}
		out.Vouchers[i].Amt = money.Sum(out.Vouchers[i].Amt, r.Amt)

		out.Lines = append(out.Lines, domain.InventoryLine{
			CompanyID: companyID,
			BillID:    r.Inum,
			StockID:   r.StockID,
			Qty:       r.Qty,
			Txval:     txval,
			Rt:        rt,
		})
	}
	return out
}

// registerVoucher converts a register row into a voucher with the ledger
// sign convention: amounts and discounts negated.
func registerVoucher(companyID string, t domain.VoucherType, r *domain.SalesRegisterRow) domain.Voucher {
	return domain.Voucher{
		CompanyID: companyID,
		Inum:      r.Inum,
		Type:      t,
		Date:      r.Date,
		PartyID:   domain.StrPtr(r.PartyID),
		Amt:       -r.Amt,
		Ctin:      emptyToNil(r.Ctin),
		Discount:  -r.DiscountTotal(),
		Roundoff:  r.Roundoff,
		Tds:       r.Tds,
		Tcs:       r.Tcs,
	}
}

// registerDiscounts returns one negated discount line per non-zero sub type.
func registerDiscounts(companyID, billID string, r *domain.SalesRegisterRow) []domain.DiscountLine {
	var out []domain.DiscountLine
	for _, st := range domain.DiscountSubTypes {
		if v := r.DiscountBySubType(st); v != 0 {
			out = append(out, domain.DiscountLine{CompanyID: companyID, BillID: billID, SubType: st, Amt: -v})
		}
	}
	return out
}

func inventoryLine(companyID string, l *domain.GSTR1Row) domain.InventoryLine {
	return domain.InventoryLine{
		CompanyID: companyID,
		BillID:    l.Inum,
		StockID:   l.StockID,
		Qty:       l.Qty,
		Txval:     l.Txval,
		Rt:        l.Rt,
	}
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
