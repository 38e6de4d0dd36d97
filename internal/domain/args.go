package domain

import (
	"fmt"
	"strconv"
	"time"
)

// ScopeKind is the argument shape a report kind is fetched and stored by.
type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeDateRange
	ScopeMonth
)

func (s ScopeKind) String() string {
	switch s {
	case ScopeDateRange:
		return "date-range"
	case ScopeMonth:
		return "month"
	default:
		return "none"
	}
}

const dateLayout = "2006-01-02"

// ReportArgs is the tagged argument set passed to fetchers. Only the fields
// matching Scope are meaningful.
type ReportArgs struct {
	Scope ScopeKind
	From  time.Time
	To    time.Time
	Month int
	Year  int
}

// EmptyArgs is the argument set of scope-less master reports.
func EmptyArgs() ReportArgs { return ReportArgs{Scope: ScopeNone} }

// DateRangeArgs covers [from, to], both inclusive.
func DateRangeArgs(from, to time.Time) ReportArgs {
	return ReportArgs{Scope: ScopeDateRange, From: from, To: to}
}

// MonthArgs covers one filing period.
func MonthArgs(month, year int) ReportArgs {
	return ReportArgs{Scope: ScopeMonth, Month: month, Year: year}
}

// Key identifies the argument values, used as the cache key.
func (a ReportArgs) Key() string {
	switch a.Scope {
	case ScopeDateRange:
		return a.From.Format(dateLayout) + "_" + a.To.Format(dateLayout)
	case ScopeMonth:
		return a.Period()
	default:
		return "all"
	}
}

// Period formats a month scope as MMYYYY.
func (a ReportArgs) Period() string {
	return fmt.Sprintf("%02d%d", a.Month, a.Year)
}

func (a ReportArgs) String() string {
	return a.Scope.String() + ":" + a.Key()
}

// ParsePeriod parses an MMYYYY filing period.
func ParsePeriod(period string) (month, year int, err error) {
	if len(period) != 6 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	month, err = strconv.Atoi(period[:2])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	year, err = strconv.Atoi(period[2:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return month, year, nil
}

// MonthRange returns the first and last day of a month.
func MonthRange(month, year int) (from, to time.Time) {
	from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, -1)
	return from, to
}

// PeriodOf formats the filing period a date falls in.
func PeriodOf(t time.Time) string {
	return t.Format("012006")
}
