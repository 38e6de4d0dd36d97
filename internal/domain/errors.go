package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrFetchFailure       = errors.New("report fetch failed")
	ErrSchemaMismatch     = errors.New("report schema mismatch")
	ErrTransactionFailure = errors.New("ledger transaction failed")
	ErrRunInProgress      = errors.New("import run already in progress for company")
	ErrInvalidPeriod      = errors.New("invalid filing period")
)

// SchemaMismatchError lists every column the destination table needs but the
// normalized report does not carry.
type SchemaMismatchError struct {
	Table   string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: missing columns in report: %s", e.Table, strings.Join(e.Missing, ", "))
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// MatchingFailure records a sales-return register entry for which no credit
// note could be paired. It is reported, not returned as an error.
type MatchingFailure struct {
	CompanyID       string
	Date            string
	OriginalInvoice string
	Amount          float64
	// Skipped is set when the return was left out of the ledger because its
	// number is used by another voucher.
	Skipped bool
}

func (m MatchingFailure) String() string {
	s := fmt.Sprintf("no credit note for sales return %s dated %s (amt %.2f)", m.OriginalInvoice, m.Date, m.Amount)
	if m.Skipped {
		s += ", not imported"
	}
	return s
}
