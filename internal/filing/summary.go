package filing

import (
	"sort"

	"gstfiling/internal/domain"
	"gstfiling/internal/money"
	"gstfiling/internal/reconcile"
)

// GSTTypeTotal is a gst-type bucket net of its confirmed zero-rated value.
type GSTTypeTotal struct {
	GSTType  domain.GSTType
	Txval    float64
	Cgst     float64
	ZeroRate float64
	Net      float64
}

// InvoiceTypeTotal totals one voucher type of one company.
type InvoiceTypeTotal struct {
	CompanyID string
	GSTType   domain.GSTType
	Type      domain.VoucherType
	Count     int
	Txval     float64
	Cgst      float64
}

// RateTotal totals one combined tax rate.
type RateTotal struct {
	Rt    float64
	Txval float64
	Cgst  float64
}

// DocumentCount is the issued-document declaration of one series.
type DocumentCount struct {
	Category string
	DocRange
}

// Summary holds the tables of the workbook's Summary sheet.
type Summary struct {
	GSTTypes     []GSTTypeTotal
	InvoiceTypes []InvoiceTypeTotal
	Rates        []RateTotal
	Documents    []DocumentCount
}

var gstTypeOrder = []domain.GSTType{domain.GSTTypeB2B, domain.GSTTypeCDNR, domain.GSTTypeB2C}

// Summarize totals the period's ledger lines. Amounts carry the filing sign.
func Summarize(lines []domain.FilingLine, recon *reconcile.Result) *Summary {
	type invKey struct {
		company string
		gst     domain.GSTType
		typ     domain.VoucherType
	}
	gst := make(map[domain.GSTType]*GSTTypeTotal)
	inv := make(map[invKey]*InvoiceTypeTotal)
	invSeen := make(map[invKey]map[string]bool)
	rates := make(map[float64]*RateTotal)

	for i := range lines {
		l := &lines[i]
		txval := reconcile.SignedTxval(l)
		cgst := txval * l.Rt / 100
		gt := l.GSTType()

		g := gst[gt]
		if g == nil {
			g = &GSTTypeTotal{GSTType: gt}
			gst[gt] = g
		}
		g.Txval += txval
		g.Cgst += cgst

		k := invKey{l.CompanyID, gt, l.Type}
		it := inv[k]
		if it == nil {
			it = &InvoiceTypeTotal{CompanyID: l.CompanyID, GSTType: gt, Type: l.Type}
			inv[k] = it
			invSeen[k] = make(map[string]bool)
		}
		if !invSeen[k][l.Inum] {
			invSeen[k][l.Inum] = true
			it.Count++
		}
		it.Txval += txval
		it.Cgst += cgst

		rt := rates[l.Rt*2]
		if rt == nil {
			rt = &RateTotal{Rt: l.Rt * 2}
			rates[l.Rt*2] = rt
		}
		rt.Txval += txval
		rt.Cgst += cgst
	}

	s := &Summary{}
	for _, t := range gstTypeOrder {
		g := gst[t]
		if g == nil {
			continue
		}
		g.Txval = money.Round2(g.Txval)
		g.Cgst = money.Round2(g.Cgst)
		if recon != nil {
			g.ZeroRate = money.Round2(recon.ZeroRateTotals[t])
		}
		g.Net = money.Round2(g.Txval - g.ZeroRate)
		s.GSTTypes = append(s.GSTTypes, *g)
	}

	for _, it := range inv {
		it.Txval = money.Round2(it.Txval)
		it.Cgst = money.Round2(it.Cgst)
		s.InvoiceTypes = append(s.InvoiceTypes, *it)
	}
	sort.Slice(s.InvoiceTypes, func(i, j int) bool {
		a, b := s.InvoiceTypes[i], s.InvoiceTypes[j]
		if a.CompanyID != b.CompanyID {
			return a.CompanyID < b.CompanyID
		}
		if a.GSTType != b.GSTType {
			return a.GSTType < b.GSTType
		}
		return a.Type < b.Type
	})

	for _, r := range rates {
		r.Txval = money.Round2(r.Txval)
		r.Cgst = money.Round2(r.Cgst)
		s.Rates = append(s.Rates, *r)
	}
	sort.Slice(s.Rates, func(i, j int) bool { return s.Rates[i].Rt < s.Rates[j].Rt })

	for _, c := range []struct {
		name    string
		outward bool
	}{{"Invoices", true}, {"Credit Notes", false}} {
		for _, r := range DocRanges(inums(lines, c.outward)) {
			s.Documents = append(s.Documents, DocumentCount{Category: c.name, DocRange: r})
		}
	}
	return s
}
