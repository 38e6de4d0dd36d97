package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"gstfiling/internal/domain"
	"gstfiling/internal/einvoice"
	"gstfiling/internal/money"
	"gstfiling/internal/port"
)

// ErrCodeDuplicateIRN is the IRP error for a document that already has an
// IRN. The message carries the existing IRN.
const ErrCodeDuplicateIRN = 2150

// TotalKey is the Stats entry summing every company of a GSTIN.
const TotalKey = "total"

var irnPattern = regexp.MustCompile(`[a-f0-9]{64}`)

// EInvoiceConfig holds e-invoice generation settings.
type EInvoiceConfig struct {
	OutputDir  string
	BuyerPin   int
	BuyerLoc   string
	RedateDays int
}

// EInvoiceStats counts the damage credit notes of one company that need an
// e-invoice.
type EInvoiceStats struct {
	Filed    int `json:"filed"`
	NotFiled int `json:"not_filed"`
	// Amt is the value of the documents not filed yet.
	Amt float64 `json:"amt"`
}

// FileResult is the outcome of one e-invoice filing.
type FileResult struct {
	Path      string
	Uploaded  int
	Filed     []port.EInvoiceAck
	Recovered []port.EInvoiceAck
	Failed    []port.EInvoiceFailure
}

// EInvoiceService files e-invoices for damage credit notes.
type EInvoiceService interface {
	Stats(ctx context.Context, gstin, period string) (map[string]*EInvoiceStats, error)
	File(ctx context.Context, gstin, period string) (*FileResult, error)
}

type einvoiceService struct {
	companies port.CompanyRepository
	filings   port.FilingRepository
	client    port.EInvoiceClient
	seller    einvoice.Seller
	fs        afero.Fs
	cfg       EInvoiceConfig
	now       func() time.Time
	logger    logrus.FieldLogger
}

// NewEInvoiceService creates a new EInvoiceService implementation. now
// defaults to time.Now.
func NewEInvoiceService(
	companies port.CompanyRepository,
	filings port.FilingRepository,
	client port.EInvoiceClient,
	seller einvoice.Seller,
	fs afero.Fs,
	cfg EInvoiceConfig,
	now func() time.Time,
	logger logrus.FieldLogger,
) EInvoiceService {
	if now == nil {
		now = time.Now
	}
	return &einvoiceService{
		companies: companies,
		filings:   filings,
		client:    client,
		seller:    seller,
		fs:        fs,
		cfg:       cfg,
		now:       now,
		logger:    logger,
	}
}

func (s *einvoiceService) damageLines(ctx context.Context, gstin, period string) ([]string, []domain.FilingLine, error) {
	if _, _, err := domain.ParsePeriod(period); err != nil {
		return nil, nil, err
	}
	ids, err := companyIDs(ctx, s.companies, gstin)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.filings.FilingLines(ctx, ids, period)
	if err != nil {
		return nil, nil, fmt.Errorf("loading filing lines: %w", err)
	}
	var out []domain.FilingLine
	for _, l := range lines {
		if l.Type == domain.VoucherDamage && l.Ctin != "" {
			out = append(out, l)
		}
	}
	return ids, out, nil
}

func (s *einvoiceService) Stats(ctx context.Context, gstin, period string) (map[string]*EInvoiceStats, error) {
	ids, lines, err := s.damageLines(ctx, gstin, period)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]*EInvoiceStats, len(ids)+1)
	for _, id := range ids {
		stats[id] = &EInvoiceStats{}
	}
	seen := make(map[[2]string]bool)
	for _, l := range lines {
		key := [2]string{l.CompanyID, l.Inum}
		if seen[key] {
			continue
		}
		seen[key] = true
		st, ok := stats[l.CompanyID]
		if !ok {
			st = &EInvoiceStats{}
			stats[l.CompanyID] = st
		}
		if l.Irn != "" {
			st.Filed++
		} else {
			st.NotFiled++
			st.Amt += math.Abs(l.Amt)
		}
	}
	if len(ids) > 1 {
		total := &EInvoiceStats{}
		for _, id := range ids {
			st := stats[id]
			total.Filed += st.Filed
			total.NotFiled += st.NotFiled
			total.Amt += st.Amt
		}
		stats[TotalKey] = total
	}
	for _, st := range stats {
		st.Amt = money.Round2(st.Amt)
	}
	return stats, nil
}

func (s *einvoiceService) File(ctx context.Context, gstin, period string) (*FileResult, error) {
	ids, lines, err := s.damageLines(ctx, gstin, period)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{"gstin": gstin, "period": period})

	redate, err := einvoice.RedateFn(period, s.now(), s.cfg.RedateDays)
	if err != nil {
		return nil, err
	}
	docs, err := einvoice.Build(lines, s.seller, einvoice.Options{
		BuyerPin: s.cfg.BuyerPin,
		BuyerLoc: s.cfg.BuyerLoc,
		DateFn:   redate,
	})
	if err != nil {
		return nil, fmt.Errorf("building e-invoices: %w", err)
	}
	res := &FileResult{Uploaded: len(docs)}
	if len(docs) == 0 {
		log.Info("no damage credit notes awaiting an e-invoice")
		return res, nil
	}

	payload, err := json.MarshalIndent(docs, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding e-invoices: %w", err)
	}
	dir := filepath.Join(s.cfg.OutputDir, gstin, period)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	res.Path = filepath.Join(dir, "damage_einv.json")
	if err := afero.WriteFile(s.fs, res.Path, payload, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", res.Path, err)
	}

	upload, err := s.client.Upload(ctx, payload)
	if err != nil {
		return res, fmt.Errorf("uploading e-invoices: %w", err)
	}

	for _, ack := range upload.Success {
		if err := s.storeIRN(ctx, ids, ack); err != nil {
			return res, err
		}
		res.Filed = append(res.Filed, ack)
	}
	for _, f := range upload.Failed {
		irn := ""
		if f.ErrorCode == ErrCodeDuplicateIRN {
			irn = irnPattern.FindString(f.Message)
		}
		if irn == "" {
			log.WithFields(logrus.Fields{"inum": f.InvoiceNo, "code": f.ErrorCode}).Warn(f.Message)
			res.Failed = append(res.Failed, f)
			continue
		}
		ack := port.EInvoiceAck{DocNo: f.InvoiceNo, IRN: irn}
		if err := s.storeIRN(ctx, ids, ack); err != nil {
			return res, err
		}
		res.Recovered = append(res.Recovered, ack)
	}
	sort.Slice(res.Failed, func(i, j int) bool { return res.Failed[i].InvoiceNo < res.Failed[j].InvoiceNo })

	log.WithFields(logrus.Fields{
		"uploaded":  res.Uploaded,
		"filed":     len(res.Filed),
		"recovered": len(res.Recovered),
		"failed":    len(res.Failed),
	}).Info("e-invoices filed")
	return res, nil
}

func (s *einvoiceService) storeIRN(ctx context.Context, ids []string, ack port.EInvoiceAck) error {
	n, err := s.filings.SetIRN(ctx, ids, ack.DocNo, ack.IRN)
	if err != nil {
		return fmt.Errorf("storing irn of %s: %w", ack.DocNo, err)
	}
	if n == 0 {
		s.logger.WithField("inum", ack.DocNo).Warn("acknowledged document not in ledger")
	}
	return nil
}
