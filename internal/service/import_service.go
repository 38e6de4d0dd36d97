package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gstfiling/internal/domain"
	"gstfiling/internal/importer"
	"gstfiling/internal/port"
)

// ImportRunner executes one import run. *importer.Runner implements it.
type ImportRunner interface {
	Run(ctx context.Context, req importer.Request) (*importer.RunResult, error)
}

// ImportOptions narrows an import run.
type ImportOptions struct {
	// Imports selects imports by name; empty runs all of them.
	Imports     []string
	SkipRefresh bool
}

// ImportService imports ERP reports into the ledger of a company.
type ImportService interface {
	// Import runs over an explicit date range without period tagging.
	Import(ctx context.Context, companyID string, from, to time.Time, opts ImportOptions) (*importer.RunResult, error)
	// ImportPeriod runs over the month of an MMYYYY period and tags the
	// company's filed vouchers with it.
	ImportPeriod(ctx context.Context, companyID, period string, opts ImportOptions) (*importer.RunResult, error)
}

type importService struct {
	companies port.CompanyRepository
	runner    ImportRunner
}

// NewImportService creates a new ImportService implementation.
func NewImportService(companies port.CompanyRepository, runner ImportRunner) ImportService {
	return &importService{companies: companies, runner: runner}
}

func (s *importService) Import(ctx context.Context, companyID string, from, to time.Time, opts ImportOptions) (*importer.RunResult, error) {
	return s.run(ctx, companyID, from, to, "", opts)
}

func (s *importService) ImportPeriod(ctx context.Context, companyID, period string, opts ImportOptions) (*importer.RunResult, error) {
	month, year, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	from, to := domain.MonthRange(month, year)
	return s.run(ctx, companyID, from, to, period, opts)
}

func (s *importService) run(ctx context.Context, companyID string, from, to time.Time, period string, opts ImportOptions) (*importer.RunResult, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("loading company %s: %w", companyID, err)
	}
	imports, err := selectImports(opts.Imports)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, importer.Request{
		Company:     company,
		From:        from,
		To:          to,
		Period:      period,
		Imports:     imports,
		SkipRefresh: opts.SkipRefresh,
	})
}

func selectImports(names []string) ([]importer.Import, error) {
	all := importer.Default()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]importer.Import, len(all))
	for _, imp := range all {
		byName[imp.Name()] = imp
	}
	out := make([]importer.Import, 0, len(names))
	for _, n := range names {
		imp, ok := byName[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("unknown import %q", n)
		}
		out = append(out, imp)
	}
	return out, nil
}
