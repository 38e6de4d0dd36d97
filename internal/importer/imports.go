package importer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
	"gstfiling/internal/report"
)

// Env is what an import reads from and writes to.
type Env struct {
	Reports port.ReportReader
	// Ledger is the transaction of the run the import is part of.
	Ledger     port.LedgerTx
	Logger     logrus.FieldLogger
	TDSPercent float64
}

// Outcome summarizes one import's ledger write.
type Outcome struct {
	Name     string
	Vouchers int
	Lines    int
	Masters  int
	// Dropped counts vouchers with a duplicate number and lines whose voucher
	// is not in the batch.
	Dropped  int
	Failures []domain.MatchingFailure
}

// Import turns stored reports into ledger rows through env.Ledger.
type Import interface {
	Name() string
	Scope() domain.ScopeKind
	Reports() []string
	Run(ctx context.Context, env *Env, company *domain.Company, args domain.ReportArgs) (*Outcome, error)
}

// Default returns every import in the order a full run applies them. Masters
// go first so market returns see current stock rates.
func Default() []Import {
	return []Import{StockImport{}, PartyImport{}, SalesImport{}, MarketReturnImport{}}
}

// SalesImport rebuilds sales, sales-return and claim-service vouchers.
type SalesImport struct{}

func (SalesImport) Name() string            { return "sales" }
func (SalesImport) Scope() domain.ScopeKind { return domain.ScopeDateRange }
func (SalesImport) Reports() []string {
	return []string{report.KindSalesRegister, report.KindGSTR1}
}

var salesTypes = []domain.VoucherType{domain.VoucherSales, domain.VoucherSalesReturn, domain.VoucherClaimService}

func (SalesImport) Run(ctx context.Context, env *Env, company *domain.Company, args domain.ReportArgs) (*Outcome, error) {
	register, err := env.Reports.SalesRegister(ctx, company.ID, args.From, args.To)
	if err != nil {
		return nil, fmt.Errorf("reading sales register: %w", err)
	}
	lines, err := env.Reports.GSTR1(ctx, company.ID, args.From, args.To)
	if err != nil {
		return nil, fmt.Errorf("reading gstr1: %w", err)
	}

	b := newBatchBuilder(company.ID)

	var regReturns []domain.SalesRegisterRow
	for i := range register {
		r := &register[i]
		switch domain.VoucherType(r.Type) {
		case domain.VoucherSales:
			b.addVoucher(registerVoucher(company.ID, domain.VoucherSales, r), registerDiscounts(company.ID, r.Inum, r)...)
		case domain.VoucherSalesReturn:
			regReturns = append(regReturns, *r)
		}
	}

	var lineReturns, claims []domain.GSTR1Row
	for i := range lines {
		l := &lines[i]
		switch domain.VoucherType(l.Type) {
		case domain.VoucherSales:
			b.addLine(inventoryLine(company.ID, l))
		case domain.VoucherSalesReturn:
			lineReturns = append(lineReturns, *l)
		case domain.VoucherClaimService:
			claims = append(claims, *l)
		}
		b.addStock(l)
	}

	returns, renumbered, failures := MatchCreditNotes(company.ID, regReturns, lineReturns)
	unmatched, stored, err := unmatchedReturns(ctx, env, company.ID, args, returns, renumbered)
	if err != nil {
		return nil, err
	}
	next := 0
	for i := range returns {
		r := &returns[i]
		if unmatched[i] {
			// An unmatched return keeps the number of the invoice it reverses,
			// so it cannot share the ledger with that invoice.
			taken := b.vouchers[r.Inum] || stored[r.Inum]
			if taken && next < len(failures) {
				failures[next].Skipped = true
			}
			next++
			if taken {
				env.Logger.WithFields(logrus.Fields{"company": company.ID, "inum": r.Inum, "amt": r.Amt}).
					Warnf("sales return %s skipped: voucher number already in use", r.Inum)
				continue
			}
		}
		b.addVoucher(registerVoucher(company.ID, domain.VoucherSalesReturn, r), registerDiscounts(company.ID, r.Inum, r)...)
	}
	for _, f := range failures {
		env.Logger.WithFields(logrus.Fields{
			"company":          company.ID,
			"original_invoice": f.OriginalInvoice,
			"date":             f.Date,
		}).Warn(f.String())
	}
	for i := range renumbered {
		b.addLine(inventoryLine(company.ID, &renumbered[i]))
	}

	for _, cs := range AggregateClaimServices(claims, env.TDSPercent) {
		b.addVoucher(domain.Voucher{
			CompanyID: company.ID,
			Inum:      cs.Inum,
			Type:      domain.VoucherClaimService,
			Date:      cs.Date,
			PartyID:   domain.StrPtr(domain.DefaultPartyID),
			Ctin:      emptyToNil(cs.Ctin),
			Amt:       -cs.Amt,
			Tds:       cs.Tds,
		})
	}
	for i := range claims {
		b.addLine(inventoryLine(company.ID, &claims[i]))
	}

	batch := b.build(env.Logger)
	if err := env.Ledger.ReplaceVouchers(ctx, company.ID, args.From, args.To, salesTypes, batch); err != nil {
		return nil, err
	}
	return &Outcome{
		Name:     "sales",
		Vouchers: len(batch.Vouchers),
		Lines:    len(batch.Lines),
		Masters:  len(batch.Stocks),
		Dropped:  b.dropped,
		Failures: failures,
	}, nil
}

// unmatchedReturns marks the returns no credit note was found for and
// returns which of their numbers belong to stored vouchers the import keeps.
func unmatchedReturns(ctx context.Context, env *Env, companyID string, args domain.ReportArgs, returns []domain.SalesRegisterRow, renumbered []domain.GSTR1Row) (map[int]bool, map[string]bool, error) {
	notes := make(map[string]bool, len(renumbered))
	for i := range renumbered {
		notes[renumbered[i].Inum] = true
	}
	unmatched := make(map[int]bool)
	var inums []string
	for i := range returns {
		if !notes[returns[i].Inum] {
			unmatched[i] = true
			inums = append(inums, returns[i].Inum)
		}
	}
	if len(inums) == 0 {
		return unmatched, nil, nil
	}
	stored, err := env.Ledger.ExistingVouchers(ctx, companyID, inums, args.From, args.To, salesTypes)
	if err != nil {
		return nil, nil, fmt.Errorf("checking sales return numbers: %w", err)
	}
	return unmatched, stored, nil
}

// MarketReturnImport rebuilds damage and shortage vouchers from market
// returns.
type MarketReturnImport struct{}

func (MarketReturnImport) Name() string            { return "market_return" }
func (MarketReturnImport) Scope() domain.ScopeKind { return domain.ScopeDateRange }
func (MarketReturnImport) Reports() []string       { return []string{report.KindDamage} }

var marketReturnTypes = []domain.VoucherType{domain.VoucherDamage, domain.VoucherShortage}

func (MarketReturnImport) Run(ctx context.Context, env *Env, company *domain.Company, args domain.ReportArgs) (*Outcome, error) {
	rows, err := env.Reports.Damages(ctx, company.ID, args.From, args.To)
	if err != nil {
		return nil, fmt.Errorf("reading damages: %w", err)
	}
	rates, err := env.Ledger.StockRates(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("reading stock rates: %w", err)
	}
	ctins, err := env.Ledger.LatestPartyCtins(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("reading party gstins: %w", err)
	}

	mr := AllocateMarketReturns(company.ID, rows, rates, ctins)
	for _, stock := range mr.UnknownRates {
		env.Logger.WithFields(logrus.Fields{"company": company.ID, "stock": stock}).
			Warn("no tax rate for market return stock, taxable value set to zero")
	}

	b := newBatchBuilder(company.ID)
	for _, v := range mr.Vouchers {
		b.addVoucher(v)
	}
	for _, l := range mr.Lines {
		b.addLine(l)
	}
	batch := b.build(env.Logger)
	if err := env.Ledger.ReplaceVouchers(ctx, company.ID, args.From, args.To, marketReturnTypes, batch); err != nil {
		return nil, err
	}
	return &Outcome{Name: "market_return", Vouchers: len(batch.Vouchers), Lines: len(batch.Lines), Dropped: b.dropped}, nil
}

// StockImport upserts the stock master from the HSN/rate report.
type StockImport struct{}

func (StockImport) Name() string            { return "stock" }
func (StockImport) Scope() domain.ScopeKind { return domain.ScopeNone }
func (StockImport) Reports() []string       { return []string{report.KindStockRate} }

func (StockImport) Run(ctx context.Context, env *Env, company *domain.Company, _ domain.ReportArgs) (*Outcome, error) {
	rows, err := env.Reports.StockRates(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("reading stock rates: %w", err)
	}
	batch := &domain.LedgerBatch{}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.StockID == "" || seen[r.StockID] {
			continue
		}
		seen[r.StockID] = true
		batch.Stocks = append(batch.Stocks, domain.Stock{
			CompanyID: company.ID,
			Name:      r.StockID,
			HSN:       domain.StrPtr(r.HSN),
			Rt:        r.Rt,
		})
	}
	if err := env.Ledger.UpsertMasters(ctx, company.ID, batch); err != nil {
		return nil, err
	}
	return &Outcome{Name: "stock", Masters: len(batch.Stocks)}, nil
}

// PartyImport upserts the party master. Codes missing from the report are
// kept.
type PartyImport struct{}

func (PartyImport) Name() string            { return "party" }
func (PartyImport) Scope() domain.ScopeKind { return domain.ScopeNone }
func (PartyImport) Reports() []string       { return []string{report.KindParty} }

func (PartyImport) Run(ctx context.Context, env *Env, company *domain.Company, _ domain.ReportArgs) (*Outcome, error) {
	rows, err := env.Reports.Parties(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("reading parties: %w", err)
	}
	batch := &domain.LedgerBatch{}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		batch.Parties = append(batch.Parties, domain.Party{
			CompanyID:  company.ID,
			Code:       r.Code,
			MasterCode: r.MasterCode,
			Name:       r.Name,
			Addr:       r.Addr,
			Beat:       r.Beat,
			Ctin:       emptyToNil(r.Ctin),
			Phone:      r.Phone,
		})
	}
	if err := env.Ledger.UpsertMasters(ctx, company.ID, batch); err != nil {
		return nil, err
	}
	return &Outcome{Name: "party", Masters: len(batch.Parties)}, nil
}

// batchBuilder assembles a LedgerBatch that satisfies the ledger keys: one
// voucher per number, lines and discounts only for vouchers in the batch,
// one stock row per code.
type batchBuilder struct {
	companyID string
	batch     domain.LedgerBatch
	vouchers  map[string]bool
	stocks    map[string]bool
	lines     []domain.InventoryLine
	dropped   int
}

func newBatchBuilder(companyID string) *batchBuilder {
	return &batchBuilder{
		companyID: companyID,
		vouchers:  make(map[string]bool),
		stocks:    make(map[string]bool),
	}
}

func (b *batchBuilder) addVoucher(v domain.Voucher, discounts ...domain.DiscountLine) {
	if b.vouchers[v.Inum] {
		b.dropped++
		return
	}
	b.vouchers[v.Inum] = true
	b.batch.Vouchers = append(b.batch.Vouchers, v)
	b.batch.Discounts = append(b.batch.Discounts, discounts...)
}

// addLine defers the voucher check to build since lines may be added before
// their voucher.
func (b *batchBuilder) addLine(l domain.InventoryLine) {
	b.lines = append(b.lines, l)
}

func (b *batchBuilder) addStock(l *domain.GSTR1Row) {
	if l.StockID == "" || b.stocks[l.StockID] {
		return
	}
	b.stocks[l.StockID] = true
	b.batch.Stocks = append(b.batch.Stocks, domain.Stock{
		CompanyID: b.companyID,
		Name:      l.StockID,
		HSN:       domain.StrPtr(l.HSN),
		Desc:      l.Desc,
		Rt:        l.Rt,
	})
}

func (b *batchBuilder) build(logger logrus.FieldLogger) *domain.LedgerBatch {
	for _, l := range b.lines {
		if !b.vouchers[l.BillID] {
			b.dropped++
			logger.WithFields(logrus.Fields{"company": b.companyID, "bill": l.BillID, "stock": l.StockID}).
				Warn("inventory line without voucher dropped")
			continue
		}
		b.batch.Lines = append(b.batch.Lines, l)
	}
	b.lines = nil
	return &b.batch
}
