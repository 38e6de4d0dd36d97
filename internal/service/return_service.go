package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"gstfiling/internal/csvexport"
	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
	"gstfiling/internal/importer"
	"gstfiling/internal/logging"
	"gstfiling/internal/port"
	"gstfiling/internal/reconcile"
	"gstfiling/internal/report"
	s3storage "gstfiling/internal/storage/s3"
	"gstfiling/internal/validator"
	"gstfiling/internal/workbook"
)

const (
	ReturnFileName   = "gstr1.json"
	WorkbookFileName = "workings.xlsx"

	contentTypeJSON = "application/json"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"
)

// ReturnConfig holds the output settings of generated returns.
type ReturnConfig struct {
	OutputDir string
	Version   string
	// Bucket is only used when an object storage is configured.
	Bucket        string
	PresignExpiry int64
}

// ReturnOptions narrows one return generation.
type ReturnOptions struct {
	// SkipRefresh reconciles against the stored portal invoices as they are.
	SkipRefresh bool
}

// Artifact is one generated file.
type Artifact struct {
	Name string
	Path string
	Key  string
	URL  string
}

// ReturnResult is a generated return with its workings.
type ReturnResult struct {
	GSTIN    string
	Period   string
	Document *filing.Document
	Summary  *filing.Summary
	Recon    *reconcile.Result
	Invoices []reconcile.Invoice
	// Issues are the pre-filing check failures of the ledger lines.
	Issues    []validator.Result
	Artifacts []Artifact
}

// ReturnService generates the GSTR-1 return of a GSTIN for a period.
type ReturnService interface {
	Generate(ctx context.Context, gstin, period string, opts ReturnOptions) (*ReturnResult, error)
}

type returnService struct {
	companies port.CompanyRepository
	filings   port.FilingRepository
	refresher importer.Refresher
	fs        afero.Fs
	storage   port.ObjectStorage
	cfg       ReturnConfig
	logger    logrus.FieldLogger
}

// NewReturnService creates a new ReturnService implementation. storage may be
// nil, in which case artifacts stay on fs only.
func NewReturnService(
	companies port.CompanyRepository,
	filings port.FilingRepository,
	refresher importer.Refresher,
	fs afero.Fs,
	storage port.ObjectStorage,
	cfg ReturnConfig,
	logger logrus.FieldLogger,
) ReturnService {
	return &returnService{
		companies: companies,
		filings:   filings,
		refresher: refresher,
		fs:        fs,
		storage:   storage,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *returnService) Generate(ctx context.Context, gstin, period string, opts ReturnOptions) (*ReturnResult, error) {
	month, year, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{"gstin": gstin, "period": period})

	ids, err := companyIDs(ctx, s.companies, gstin)
	if err != nil {
		return nil, err
	}

	if !opts.SkipRefresh {
		n, err := s.refresher.Refresh(ctx, report.MustLookup(report.KindPortal), gstin, domain.MonthArgs(month, year))
		if err != nil {
			// Stored portal rows stay in place and the return is built
			// against them.
			logging.LogError(log, "service", "Generate", report.KindPortal, err)
		} else {
			log.WithField("rows", n).Info("portal invoices refreshed")
		}
	}

	lines, err := s.filings.FilingLines(ctx, ids, period)
	if err != nil {
		return nil, fmt.Errorf("loading filing lines: %w", err)
	}
	portal, err := s.filings.PortalInvoices(ctx, gstin, period)
	if err != nil {
		return nil, fmt.Errorf("loading portal invoices: %w", err)
	}
	descriptions, err := s.filings.HSNDescriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading hsn descriptions: %w", err)
	}

	issues := validator.Lines(lines, validator.BuiltinRules(), &validator.Context{HSNDescriptions: descriptions})
	for _, is := range issues {
		log.WithFields(logrus.Fields{"inum": is.Inum, "rule": is.RuleKey, "severity": is.Severity}).Warn(is.Message)
	}

	invoices := reconcile.Invoices(lines)
	recon := reconcile.Reconcile(invoices, portal)
	doc, err := filing.Build(filing.Input{
		GSTIN:           gstin,
		Period:          period,
		Version:         s.cfg.Version,
		Lines:           lines,
		Recon:           recon,
		HSNDescriptions: descriptions,
	})
	if err != nil {
		return nil, fmt.Errorf("building return: %w", err)
	}

	res := &ReturnResult{
		GSTIN:    gstin,
		Period:   period,
		Document: doc,
		Summary:  filing.Summarize(lines, recon),
		Recon:    recon,
		Invoices: invoices,
		Issues:   issues,
	}
	log.WithFields(logrus.Fields{
		"invoices":  len(invoices),
		"missing":   len(recon.Missing),
		"extra":     len(recon.Extra),
		"mismatch":  len(recon.Mismatched),
		"zero_rate": recon.ZeroRateTotal(),
	}).Info("return reconciled")

	if err := s.writeArtifacts(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

func (s *returnService) writeArtifacts(ctx context.Context, res *ReturnResult) error {
	dir := filepath.Join(s.cfg.OutputDir, res.GSTIN, res.Period)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	docJSON, err := json.MarshalIndent(res.Document, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding return: %w", err)
	}

	var wb bytes.Buffer
	if err := workbook.Write(&wb, workbook.Data{Summary: res.Summary, Recon: res.Recon, Invoices: res.Invoices}); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	var detailed bytes.Buffer
	detailed.Write(csvexport.BOM)
	w := csvexport.NewWriter(&detailed)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := w.WriteInvoices(res.Invoices, res.Recon.Statuses(res.Invoices)); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	files := []struct {
		name, contentType string
		body              []byte
	}{
		{ReturnFileName, contentTypeJSON, docJSON},
		{WorkbookFileName, contentTypeXLSX, wb.Bytes()},
		{csvexport.BuildFilename(res.GSTIN, res.Period), contentTypeCSV, detailed.Bytes()},
	}
	for _, f := range files {
		a := Artifact{Name: f.name, Path: filepath.Join(dir, f.name)}
		if err := afero.WriteFile(s.fs, a.Path, f.body, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", a.Path, err)
		}
		if s.storage != nil {
			if err := s.upload(ctx, res, &a, f.contentType, f.body); err != nil {
				return err
			}
		}
		res.Artifacts = append(res.Artifacts, a)
	}
	return nil
}

func (s *returnService) upload(ctx context.Context, res *ReturnResult, a *Artifact, contentType string, body []byte) error {
	a.Key = s3storage.ArtifactKey(res.GSTIN, res.Period, a.Name)
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         a.Key,
		Body:        bytes.NewReader(body),
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("uploading %s: %w", a.Name, err)
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, a.Key, s.cfg.PresignExpiry)
	if err != nil {
		return fmt.Errorf("presigning %s: %w", a.Name, err)
	}
	a.URL = url
	return nil
}

// companyIDs returns the companies filing under gstin.
func companyIDs(ctx context.Context, companies port.CompanyRepository, gstin string) ([]string, error) {
	list, err := companies.ListByGSTIN(ctx, gstin)
	if err != nil {
		return nil, fmt.Errorf("listing companies of %s: %w", gstin, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no company files under %s: %w", gstin, domain.ErrNotFound)
	}
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	return ids, nil
}
