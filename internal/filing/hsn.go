package filing

import (
	"sort"

	"gstfiling/internal/domain"
	"gstfiling/internal/money"
	"gstfiling/internal/reconcile"
)

type hsnKey struct {
	hsn string
	rt  float64
}

type hsnAcc struct {
	hsnKey
	desc  string
	qty   int
	txval float64
}

// MergeHSN summarizes lines per (HSN, rate). The portal rejects negative HSN
// lines, so at every rate the negative lines are folded into the positive
// line with the largest taxable value. A rate with no positive line keeps its
// negative lines.
func MergeHSN(lines []domain.FilingLine, descriptions map[string]string) []HSNLine {
	accs := make(map[hsnKey]*hsnAcc)
	for i := range lines {
		l := &lines[i]
		if l.HSN == "" && l.Txval == 0 {
			// voucher without inventory
			continue
		}
		k := hsnKey{l.HSN, l.Rt}
		a := accs[k]
		if a == nil {
			a = &hsnAcc{hsnKey: k, desc: l.Desc}
			accs[k] = a
		}
		txval := reconcile.SignedTxval(l)
		qty := abs(l.Qty)
		if txval < 0 {
			qty = -qty
		}
		a.qty += qty
		a.txval += txval
	}

	byRate := make(map[float64][]*hsnAcc)
	for _, a := range accs {
		a.txval = money.Round2(a.txval)
		byRate[a.rt] = append(byRate[a.rt], a)
	}

	var merged []*hsnAcc
	for _, group := range byRate {
		var largest *hsnAcc
		for _, a := range group {
			if a.txval > 0 && (largest == nil || a.txval > largest.txval || (a.txval == largest.txval && a.hsn < largest.hsn)) {
				largest = a
			}
		}
		if largest == nil {
			merged = append(merged, group...)
			continue
		}
		for _, a := range group {
			if a.txval >= 0 {
				continue
			}
			largest.txval = money.Sum(largest.txval, a.txval)
			largest.qty += a.qty
		}
		if largest.qty < 0 {
			largest.qty = 0
		}
		for _, a := range group {
			if a == largest || a.txval >= 0 {
				merged = append(merged, a)
			}
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].hsn != merged[j].hsn {
			return merged[i].hsn < merged[j].hsn
		}
		return merged[i].rt < merged[j].rt
	})

	out := make([]HSNLine, 0, len(merged))
	for i, a := range merged {
		desc := descriptions[a.hsn]
		if desc == "" {
			desc = a.desc
		}
		txval := money.Round2(a.txval)
		tax := money.Round2(txval * a.rt / 100)
		out = append(out, HSNLine{
			Num:   i + 1,
			HSNSc: a.hsn,
			Desc:  desc,
			Uqc:   "NOS",
			Qty:   a.qty,
			Rt:    a.rt * 2,
			Txval: txval,
			Camt:  tax,
			Samt:  tax,
		})
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
