// Package validator runs format and master-data checks over ledger lines
// before they are filed. Failures are reported, never fixed.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"gstfiling/internal/domain"
)

var (
	gstinPattern = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	hsnPattern   = regexp.MustCompile(`^\d{4,8}$`)
	irnPattern   = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// centralRates are the CGST halves of the notified GST slabs.
var centralRates = map[float64]bool{0: true, 0.125: true, 1.5: true, 2.5: true, 6: true, 9: true, 14: true, 20: true}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Result is one failed check.
type Result struct {
	RuleKey  string
	Severity Severity
	Inum     string
	Field    string
	Expected string
	Actual   string
	Message  string
}

func (r Result) String() string {
	return fmt.Sprintf("%s %s: %s", r.Inum, r.RuleKey, r.Message)
}

// Context is the master data checks look values up in.
type Context struct {
	// HSNDescriptions is the HSN master; an empty map skips the existence
	// check.
	HSNDescriptions map[string]string
}

// Rule checks one aspect of a filing line. Voucher-level rules run once per
// invoice number.
type Rule struct {
	Key      string
	Name     string
	Severity Severity
	Voucher  bool
	check    func(l *domain.FilingLine, c *Context) (expected, actual string, ok bool)
}

// BuiltinRules returns the checks applied before filing.
func BuiltinRules() []Rule {
	return []Rule{
		{
			Key: "fmt.ctin", Name: "Counterparty GSTIN format", Severity: SeverityError, Voucher: true,
			check: func(l *domain.FilingLine, _ *Context) (string, string, bool) {
				return "15-char GSTIN", l.Ctin, l.Ctin == "" || IsGSTIN(l.Ctin)
			},
		},
		{
			Key: "fmt.ctin.state", Name: "Counterparty state code", Severity: SeverityError, Voucher: true,
			check: func(l *domain.FilingLine, _ *Context) (string, string, bool) {
				if len(l.Ctin) < 2 {
					return "", "", true
				}
				return "state code 01-38", l.Ctin[:2], IsStateCode(l.Ctin[:2])
			},
		},
		{
			Key: "fmt.irn", Name: "IRN format", Severity: SeverityWarning, Voucher: true,
			check: func(l *domain.FilingLine, _ *Context) (string, string, bool) {
				return "64 hex characters", l.Irn, l.Irn == "" || irnPattern.MatchString(l.Irn)
			},
		},
		{
			Key: "fmt.hsn", Name: "HSN/SAC code format", Severity: SeverityWarning,
			check: func(l *domain.FilingLine, _ *Context) (string, string, bool) {
				if l.StockID == "" {
					return "", "", true
				}
				return "4 to 8 digits", l.HSN, hsnPattern.MatchString(l.HSN)
			},
		},
		{
			Key: "logic.hsn_exists", Name: "HSN/SAC code in master", Severity: SeverityWarning,
			check: func(l *domain.FilingLine, c *Context) (string, string, bool) {
				if l.StockID == "" || l.HSN == "" || len(c.HSNDescriptions) == 0 {
					return "", "", true
				}
				_, ok := c.HSNDescriptions[l.HSN]
				return "code listed in hsn_codes", l.HSN, ok
			},
		},
		{
			Key: "logic.rate", Name: "Notified GST rate", Severity: SeverityWarning,
			check: func(l *domain.FilingLine, _ *Context) (string, string, bool) {
				if l.StockID == "" {
					return "", "", true
				}
				return "notified central rate", strconv.FormatFloat(l.Rt, 'f', -1, 64), centralRates[l.Rt]
			},
		},
	}
}

// Lines runs rules over lines and returns the failures ordered by invoice
// number, then rule.
func Lines(lines []domain.FilingLine, rules []Rule, c *Context) []Result {
	if c == nil {
		c = &Context{}
	}
	var out []Result
	seen := make(map[string]bool)
	for i := range lines {
		l := &lines[i]
		first := !seen[l.Inum]
		seen[l.Inum] = true
		for _, r := range rules {
			if r.Voucher && !first {
				continue
			}
			expected, actual, ok := r.check(l, c)
			if ok {
				continue
			}
			out = append(out, Result{
				RuleKey:  r.Key,
				Severity: r.Severity,
				Inum:     l.Inum,
				Field:    r.Name,
				Expected: expected,
				Actual:   actual,
				Message:  fmt.Sprintf("%s: %q is not a %s", r.Name, actual, expected),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Inum != out[j].Inum {
			return out[i].Inum < out[j].Inum
		}
		return out[i].RuleKey < out[j].RuleKey
	})
	return dedupe(out)
}

// dedupe drops repeats of a line-level failure within one invoice.
func dedupe(in []Result) []Result {
	out := make([]Result, 0, len(in))
	seen := make(map[Result]bool, len(in))
	for _, r := range in {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// HasErrors reports whether any result is an error.
func HasErrors(results []Result) bool {
	for _, r := range results {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// IsGSTIN checks the 15-character GSTIN layout.
func IsGSTIN(s string) bool {
	return gstinPattern.MatchString(s)
}

// IsStateCode accepts the two-digit state codes 01 to 38.
func IsStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= 38
}
