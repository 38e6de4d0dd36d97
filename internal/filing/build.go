package filing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gstfiling/internal/domain"
	"gstfiling/internal/money"
	"gstfiling/internal/reconcile"
)

// NilThreshold is the confirmed zero-rated value below which no nil block is
// declared.
const NilThreshold = 1.0

const dateLayout = "02-01-2006"

// Input is everything a return needs. Lines are the ledger lines of every
// company filing under GSTIN for Period.
type Input struct {
	GSTIN           string
	Period          string
	Version         string
	Lines           []domain.FilingLine
	Recon           *reconcile.Result
	HSNDescriptions map[string]string
}

// Build assembles the filing document.
func Build(in Input) (*Document, error) {
	if _, _, err := domain.ParsePeriod(in.Period); err != nil {
		return nil, err
	}
	if len(in.GSTIN) < 2 {
		return nil, fmt.Errorf("invalid gstin %q", in.GSTIN)
	}
	if in.Recon == nil {
		return nil, errors.New("filing needs a reconciliation result")
	}
	pos := in.GSTIN[:2]

	doc := &Document{
		GSTIN:   in.GSTIN,
		FP:      in.Period,
		Version: in.Version,
		Hash:    "hash",
	}
	doc.B2B, doc.CDNR = buildRegistered(in.Lines, in.Recon.Refile(), pos)
	doc.B2CS = buildB2CS(in.Lines, pos)

	var reg, cons []domain.FilingLine
	for _, l := range in.Lines {
		if l.GSTType() == domain.GSTTypeB2C {
			cons = append(cons, l)
		} else {
			reg = append(reg, l)
		}
	}
	doc.HSN = HSN{
		B2B: MergeHSN(reg, in.HSNDescriptions),
		B2C: MergeHSN(cons, in.HSNDescriptions),
	}

	doc.DocIssue = DocIssue{DocDet: []DocCategory{
		{DocNum: 1, DocTyp: "Invoices for outward supply", Docs: DocRanges(inums(in.Lines, true))},
		{DocNum: 5, DocTyp: "Credit Note", Docs: DocRanges(inums(in.Lines, false))},
	}}

	if total := in.Recon.ZeroRateTotal(); total > NilThreshold {
		// Consumer supplies have no portal counterpart, so their zero-rated
		// value is declared as booked.
		var b2cZero []float64
		for i := range cons {
			if cons[i].Rt == 0 {
				b2cZero = append(b2cZero, reconcile.SignedTxval(&cons[i]))
			}
		}
		doc.Nil = &NilBlock{Inv: []NilSupply{
			{SplyTy: "INTRAB2B", NilAmt: money.Round2(total)},
			{SplyTy: "INTRAB2C", NilAmt: money.Round2(money.Sum(b2cZero...))},
		}}
	}
	return doc, nil
}

type rateSlice struct {
	txval float64
	tax   float64
}

// buildRegistered emits the refile set as b2b invoices and cdnr notes,
// grouped by counterparty. Each invoice gets one item per non-zero rate.
func buildRegistered(lines []domain.FilingLine, refile []reconcile.Invoice, pos string) ([]B2B, []CDNR) {
	want := make(map[string]reconcile.Invoice, len(refile))
	for _, inv := range refile {
		want[inv.Inum] = inv
	}
	rates := make(map[string]map[float64]*rateSlice)
	for i := range lines {
		l := &lines[i]
		if _, ok := want[l.Inum]; !ok || l.Rt == 0 {
			continue
		}
		byRate := rates[l.Inum]
		if byRate == nil {
			byRate = make(map[float64]*rateSlice)
			rates[l.Inum] = byRate
		}
		s := byRate[l.Rt]
		if s == nil {
			s = &rateSlice{}
			byRate[l.Rt] = s
		}
		txval := math.Abs(l.Txval)
		s.txval += txval
		s.tax += txval * l.Rt / 100
	}

	b2bByCtin := make(map[string][]B2BInvoice)
	cdnrByCtin := make(map[string][]Note)
	for _, inv := range refile {
		itms := items(rates[inv.Inum])
		if len(itms) == 0 {
			continue
		}
		val := money.Round2(math.Abs(inv.Amt))
		if inv.GSTType == domain.GSTTypeB2B {
			b2bByCtin[inv.Ctin] = append(b2bByCtin[inv.Ctin], B2BInvoice{
				Inum: inv.Inum, Idt: inv.Date.Format(dateLayout), Val: val,
				Pos: pos, Rchrg: "N", InvTyp: "R", Itms: itms,
			})
			continue
		}
		cdnrByCtin[inv.Ctin] = append(cdnrByCtin[inv.Ctin], Note{
			Ntty: "C", NtNum: inv.Inum, NtDt: inv.Date.Format(dateLayout), Val: val,
			Pos: pos, Rchrg: "N", InvTyp: "R", Itms: itms,
		})
	}

	b2b := make([]B2B, 0, len(b2bByCtin))
	for _, ctin := range sortedKeys(b2bByCtin) {
		b2b = append(b2b, B2B{Ctin: ctin, Inv: b2bByCtin[ctin]})
	}
	cdnr := make([]CDNR, 0, len(cdnrByCtin))
	for _, ctin := range sortedKeys(cdnrByCtin) {
		cdnr = append(cdnr, CDNR{Ctin: ctin, Nt: cdnrByCtin[ctin]})
	}
	return b2b, cdnr
}

func items(byRate map[float64]*rateSlice) []Item {
	rts := make([]float64, 0, len(byRate))
	for rt := range byRate {
		rts = append(rts, rt)
	}
	sort.Float64s(rts)
	out := make([]Item, 0, len(rts))
	for _, rt := range rts {
		s := byRate[rt]
		tax := money.Round2(s.tax)
		out = append(out, Item{
			Num: int(math.Round(rt*2*100)) + 1,
			ItmDet: ItemDetail{
				Txval: money.Round2(s.txval),
				Rt:    rt * 2,
				Camt:  tax,
				Samt:  tax,
			},
		})
	}
	return out
}

// buildB2CS totals consumer supplies per non-zero rate, returns netted off.
func buildB2CS(lines []domain.FilingLine, pos string) []B2CS {
	byRate := make(map[float64]float64)
	for i := range lines {
		l := &lines[i]
		if l.GSTType() != domain.GSTTypeB2C || l.Rt == 0 {
			continue
		}
		byRate[l.Rt] += reconcile.SignedTxval(l)
	}
	rts := make([]float64, 0, len(byRate))
	for rt := range byRate {
		rts = append(rts, rt)
	}
	sort.Float64s(rts)

	out := make([]B2CS, 0, len(rts))
	for _, rt := range rts {
		txval := money.Round2(byRate[rt])
		if txval == 0 {
			continue
		}
		tax := money.Round2(txval * rt / 100)
		out = append(out, B2CS{SplyTy: "INTRA", Rt: rt * 2, Typ: "OE", Pos: pos, Txval: txval, Camt: tax, Samt: tax})
	}
	return out
}

func inums(lines []domain.FilingLine, outward bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lines {
		if l.Type.IsOutward() != outward || seen[l.Inum] {
			continue
		}
		seen[l.Inum] = true
		out = append(out, l.Inum)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
