// Package reconcile diffs the sales ledger of a filing period against the
// invoices already filed on the tax portal.
package reconcile

import (
	"math"
	"sort"
	"time"

	"gstfiling/internal/domain"
	"gstfiling/internal/money"
)

// Tolerances of the portal comparison. A difference equal to the tolerance
// is accepted.
const (
	TxvalTolerance = 1.0
	TaxTolerance   = 0.5
)

// Invoice is one ledger voucher summed over its lines. Amounts carry the
// filing sign: positive for outward invoices, negative for credit notes.
type Invoice struct {
	CompanyID string
	Inum      string
	Date      time.Time
	Type      domain.VoucherType
	GSTType   domain.GSTType
	Ctin      string
	PartyName string
	Irn       string
	Amt       float64
	Txval     float64
	Tax       float64
	// ZeroRate is the taxable value of the invoice's zero-rated lines.
	ZeroRate float64
}

// Mismatch pairs a ledger invoice with the portal invoice it disagrees with.
type Mismatch struct {
	Ledger    Invoice
	Portal    domain.PortalInvoice
	TxvalDiff float64
	TaxDiff   float64
}

// ZeroRateCandidate is a registered invoice with a zero-rated component.
// Confirmed means the portal figures agree once the zero-rated value is set
// aside.
type ZeroRateCandidate struct {
	Invoice     Invoice
	PortalTxval float64
	PortalTax   float64
	OnPortal    bool
	Confirmed   bool
}

// Result is the full diff of a period.
type Result struct {
	Missing    []Invoice
	Extra      []domain.PortalInvoice
	Mismatched []Mismatch
	ZeroRate   []ZeroRateCandidate
	// ZeroRateTotals accumulates confirmed zero-rated taxable value per gst
	// type.
	ZeroRateTotals map[domain.GSTType]float64
}

// ZeroRateTotal is the confirmed zero-rated value over all gst types.
func (r *Result) ZeroRateTotal() float64 {
	var vals []float64
	for _, t := range []domain.GSTType{domain.GSTTypeB2B, domain.GSTTypeCDNR, domain.GSTTypeB2C} {
		vals = append(vals, r.ZeroRateTotals[t])
	}
	return money.Sum(vals...)
}

// Refile returns the invoices that have to be (re-)filed: missing and
// mismatched, ordered by invoice number.
func (r *Result) Refile() []Invoice {
	out := make([]Invoice, 0, len(r.Missing)+len(r.Mismatched))
	out = append(out, r.Missing...)
	for _, m := range r.Mismatched {
		out = append(out, m.Ledger)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Inum < out[j].Inum })
	return out
}

// SignedTxval returns the line's taxable value with the filing sign. Ledger
// lines of sales returns are stored negative while market returns are
// stored positive, so the sign is derived from the voucher type.
func SignedTxval(l *domain.FilingLine) float64 {
	v := math.Abs(l.Txval)
	if l.Type.IsOutward() {
		return v
	}
	return -v
}

// Invoices folds filing lines into one Invoice per invoice number, ordered
// by number.
func Invoices(lines []domain.FilingLine) []Invoice {
	byInum := make(map[string]*Invoice)
	var order []string
	for i := range lines {
		l := &lines[i]
		inv, ok := byInum[l.Inum]
		if !ok {
			inv = &Invoice{
				CompanyID: l.CompanyID,
				Inum:      l.Inum,
				Date:      l.Date,
				Type:      l.Type,
				GSTType:   l.GSTType(),
				Ctin:      l.Ctin,
				PartyName: l.PartyName,
				Irn:       l.Irn,
				Amt:       l.Amt,
			}
			byInum[l.Inum] = inv
			order = append(order, l.Inum)
		}
		txval := SignedTxval(l)
		inv.Txval += txval
		inv.Tax += txval * l.Rt / 100
		if l.Rt == 0 {
			inv.ZeroRate += txval
		}
	}
	sort.Strings(order)

	out := make([]Invoice, 0, len(order))
	for _, inum := range order {
		inv := byInum[inum]
		inv.Txval = money.Round2(inv.Txval)
		inv.Tax = money.Round2(inv.Tax)
		inv.ZeroRate = money.Round2(inv.ZeroRate)
		out = append(out, *inv)
	}
	return out
}

func registered(t domain.GSTType) bool {
	return t == domain.GSTTypeB2B || t == domain.GSTTypeCDNR
}

// Reconcile diffs ledger invoices against portal invoices. It is a pure
// function: equal inputs give equal outputs, with every list sorted by
// invoice number.
func Reconcile(ledger []Invoice, portal []domain.PortalInvoice) *Result {
	res := &Result{ZeroRateTotals: make(map[domain.GSTType]float64)}

	portalByInum := make(map[string]domain.PortalInvoice, len(portal))
	for _, p := range portal {
		if prev, ok := portalByInum[p.Inum]; ok {
			prev.Txval = money.Sum(prev.Txval, p.Txval)
			prev.Cgst = money.Sum(prev.Cgst, p.Cgst)
			prev.Sgst = money.Sum(prev.Sgst, p.Sgst)
			prev.Amt = money.Sum(prev.Amt, p.Amt)
			portalByInum[p.Inum] = prev
			continue
		}
		portalByInum[p.Inum] = p
	}

	ledgerJoined := make(map[string]bool)
	for _, inv := range ledger {
		if !registered(inv.GSTType) {
			continue
		}
		p, onPortal := portalByInum[inv.Inum]

		if inv.ZeroRate != 0 {
			res.addZeroRate(inv, p, onPortal)
		}
		if inv.Tax == 0 {
			continue
		}
		ledgerJoined[inv.Inum] = true
		if !onPortal || p.Cgst == 0 {
			res.Missing = append(res.Missing, inv)
			continue
		}
		txvalOff := !money.Within(inv.Txval, p.Txval, TxvalTolerance) &&
			!money.Within(inv.Txval-inv.ZeroRate, p.Txval, TxvalTolerance)
		if txvalOff || !money.Within(inv.Tax, p.Cgst, TaxTolerance) {
			res.Mismatched = append(res.Mismatched, Mismatch{
				Ledger:    inv,
				Portal:    p,
				TxvalDiff: money.Round2(money.Diff(inv.Txval, p.Txval)),
				TaxDiff:   money.Round2(money.Diff(inv.Tax, p.Cgst)),
			})
		}
	}

	for _, p := range portalByInum {
		if p.Cgst == 0 || ledgerJoined[p.Inum] {
			continue
		}
		res.Extra = append(res.Extra, p)
	}

	sort.SliceStable(res.Missing, func(i, j int) bool { return res.Missing[i].Inum < res.Missing[j].Inum })
	sort.Slice(res.Extra, func(i, j int) bool { return res.Extra[i].Inum < res.Extra[j].Inum })
	sort.SliceStable(res.Mismatched, func(i, j int) bool { return res.Mismatched[i].Ledger.Inum < res.Mismatched[j].Ledger.Inum })
	sort.SliceStable(res.ZeroRate, func(i, j int) bool { return res.ZeroRate[i].Invoice.Inum < res.ZeroRate[j].Invoice.Inum })
	return res
}

// addZeroRate compares the non-zero-rated part of inv with the portal. An
// invoice absent from the portal is compared against zero, so a fully
// zero-rated invoice that was never filed is still confirmed.
func (r *Result) addZeroRate(inv Invoice, p domain.PortalInvoice, onPortal bool) {
	c := ZeroRateCandidate{Invoice: inv, OnPortal: onPortal}
	if onPortal {
		c.PortalTxval = p.Txval
		c.PortalTax = p.Cgst
	}
	c.Confirmed = money.Within(inv.Txval-inv.ZeroRate, c.PortalTxval, TxvalTolerance) &&
		money.Within(inv.Tax, c.PortalTax, TaxTolerance)
	if c.Confirmed {
		r.ZeroRateTotals[inv.GSTType] = money.Sum(r.ZeroRateTotals[inv.GSTType], inv.ZeroRate)
	}
	r.ZeroRate = append(r.ZeroRate, c)
}

// Invoice statuses shown in the detailed listing.
const (
	StatusFiled      = "filed"
	StatusMissing    = "missing"
	StatusMismatch   = "mismatch"
	StatusConsumer   = "b2c"
	StatusUncompared = "no tax"
)

// Statuses returns the comparison status of every invoice in ledger.
func (r *Result) Statuses(ledger []Invoice) map[string]string {
	out := make(map[string]string, len(ledger))
	for _, inv := range ledger {
		switch {
		case !registered(inv.GSTType):
			out[inv.Inum] = StatusConsumer
		case inv.Tax == 0:
			out[inv.Inum] = StatusUncompared
		default:
			out[inv.Inum] = StatusFiled
		}
	}
	for _, inv := range r.Missing {
		out[inv.Inum] = StatusMissing
	}
	for _, m := range r.Mismatched {
		out[m.Ledger.Inum] = StatusMismatch
	}
	return out
}
