package filing

import (
	"sort"
	"strconv"
	"strings"
)

// sparseSeries is the largest number of distinct documents in a series for
// which no gap is assumed.
const sparseSeries = 5

type docNumber struct {
	inum string
	n    int
}

// splitSeries splits an invoice number into its series prefix and numeric
// suffix. Numbers without a numeric suffix form a series of their own.
func splitSeries(inum string) (string, int, bool) {
	i := len(inum)
	for i > 0 && inum[i-1] >= '0' && inum[i-1] <= '9' {
		i--
	}
	if i == len(inum) {
		return inum, 0, false
	}
	n, err := strconv.Atoi(inum[i:])
	if err != nil {
		return inum, 0, false
	}
	return inum[:i], n, true
}

// DocRanges declares one range per number series, ordered by series. A dense
// series spans its smallest to largest number and counts the numbers not seen
// as cancelled; a series of at most five documents is declared as issued.
func DocRanges(inums []string) []DocRange {
	series := make(map[string][]docNumber)
	seen := make(map[string]bool)
	for _, inum := range inums {
		inum = strings.TrimSpace(inum)
		if inum == "" || seen[inum] {
			continue
		}
		seen[inum] = true
		prefix, n, _ := splitSeries(inum)
		series[prefix] = append(series[prefix], docNumber{inum, n})
	}

	out := make([]DocRange, 0, len(series))
	for _, prefix := range sortedKeys(series) {
		docs := series[prefix]
		sort.Slice(docs, func(i, j int) bool {
			if docs[i].n != docs[j].n {
				return docs[i].n < docs[j].n
			}
			return docs[i].inum < docs[j].inum
		})
		first, last := docs[0], docs[len(docs)-1]
		r := DocRange{Num: len(out) + 1, From: first.inum, To: last.inum, TotNum: len(docs)}
		if len(docs) > sparseSeries {
			r.TotNum = last.n - first.n + 1
			if r.TotNum < len(docs) {
				// Zero-padded duplicates such as A01 and A001.
				r.TotNum = len(docs)
			}
			r.Cancel = r.TotNum - len(docs)
		}
		r.NetIssue = r.TotNum - r.Cancel
		out = append(out, r)
	}
	return out
}
