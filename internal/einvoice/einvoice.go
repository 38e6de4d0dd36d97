// Package einvoice builds NIC e-invoice (schema 1.1) payloads for vouchers
// issued to registered parties.
package einvoice

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gstfiling/internal/domain"
	"gstfiling/internal/money"
)

// Seller holds the supplier blocks merged into every document as top-level
// keys (SellerDtls, DispDtls, ...).
type Seller map[string]json.RawMessage

// LoadSeller reads the seller JSON object from path.
func LoadSeller(path string) (Seller, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seller details: %w", err)
	}
	var s Seller
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing seller details %s: %w", path, err)
	}
	return s, nil
}

// Options are the buyer fields the ledger does not carry.
type Options struct {
	BuyerPin int
	BuyerLoc string
	// DateFn maps a document date to the date declared; nil keeps it.
	DateFn func(time.Time) time.Time
}

// Document is one e-invoice.
type Document struct {
	Version   string    `json:"Version"`
	TranDtls  TranDtls  `json:"TranDtls"`
	DocDtls   DocDtls   `json:"DocDtls"`
	BuyerDtls BuyerDtls `json:"BuyerDtls"`
	ValDtls   ValDtls   `json:"ValDtls"`
	ItemList  []Item    `json:"ItemList"`
	Seller    Seller    `json:"-"`
}

type TranDtls struct {
	TaxSch string `json:"TaxSch"`
	SupTyp string `json:"SupTyp"`
}

type DocDtls struct {
	Typ string `json:"Typ"`
	No  string `json:"No"`
	Dt  string `json:"Dt"`
}

type BuyerDtls struct {
	Gstin string `json:"Gstin"`
	LglNm string `json:"LglNm"`
	Pos   string `json:"Pos"`
	Addr1 string `json:"Addr1"`
	Pin   int    `json:"Pin"`
	Loc   string `json:"Loc"`
	Stcd  string `json:"Stcd"`
}

type ValDtls struct {
	AssVal    float64 `json:"AssVal"`
	CgstVal   float64 `json:"CgstVal"`
	SgstVal   float64 `json:"SgstVal"`
	TotInvVal float64 `json:"TotInvVal"`
}

type Item struct {
	SlNo       string  `json:"SlNo"`
	IsServc    string  `json:"IsServc"`
	PrdDesc    string  `json:"PrdDesc"`
	HsnCd      string  `json:"HsnCd"`
	Qty        int     `json:"Qty"`
	Unit       string  `json:"Unit"`
	UnitPrice  float64 `json:"UnitPrice"`
	TotAmt     float64 `json:"TotAmt"`
	AssAmt     float64 `json:"AssAmt"`
	GstRt      float64 `json:"GstRt"`
	CgstAmt    float64 `json:"CgstAmt"`
	SgstAmt    float64 `json:"SgstAmt"`
	TotItemVal float64 `json:"TotItemVal"`
}

// MarshalJSON writes the document fields followed by the seller blocks.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	base, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	if len(d.Seller) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Seller {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

type voucher struct {
	first domain.FilingLine
	lines []domain.FilingLine
}

// Build returns one document per voucher in lines that has a counterparty
// GSTIN and no IRN yet, ordered by voucher amount. lines are filing lines,
// several per voucher.
func Build(lines []domain.FilingLine, seller Seller, opts Options) ([]Document, error) {
	var order []string
	byInum := make(map[string]*voucher)
	for _, l := range lines {
		if l.Ctin == "" || l.Irn != "" {
			continue
		}
		v, ok := byInum[l.Inum]
		if !ok {
			v = &voucher{first: l}
			byInum[l.Inum] = v
			order = append(order, l.Inum)
		}
		if l.StockID != "" {
			v.lines = append(v.lines, l)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := byInum[order[i]].first, byInum[order[j]].first
		if a.Amt != b.Amt {
			return a.Amt < b.Amt
		}
		return a.Inum < b.Inum
	})

	docs := make([]Document, 0, len(order))
	for _, inum := range order {
		doc, err := buildDocument(byInum[inum], seller, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func buildDocument(v *voucher, seller Seller, opts Options) (Document, error) {
	h := v.first
	if h.PartyName == "" {
		return Document{}, fmt.Errorf("%w: party of voucher %s", domain.ErrNotFound, h.Inum)
	}
	typ := "CRN"
	if h.Type.IsOutward() {
		typ = "INV"
	}
	date := h.Date
	if opts.DateFn != nil {
		date = opts.DateFn(date)
	}
	state := h.Ctin
	if len(state) > 2 {
		state = state[:2]
	}
	addr := h.PartyAddr
	if len(addr) > 100 {
		addr = addr[:100]
	}

	doc := Document{
		Version:  "1.1",
		TranDtls: TranDtls{TaxSch: "GST", SupTyp: "B2B"},
		DocDtls:  DocDtls{Typ: typ, No: h.Inum, Dt: date.Format("02/01/2006")},
		BuyerDtls: BuyerDtls{
			Gstin: h.Ctin,
			LglNm: h.PartyName,
			Pos:   state,
			Addr1: addr,
			Pin:   opts.BuyerPin,
			Loc:   opts.BuyerLoc,
			Stcd:  state,
		},
		Seller: seller,
	}

	var txval, cgst float64
	for i, l := range v.lines {
		if l.HSN == "" {
			return Document{}, fmt.Errorf("%w: stock %s of voucher %s", domain.ErrNotFound, l.StockID, h.Inum)
		}
		qty := l.Qty
		if qty < 0 {
			qty = -qty
		}
		var unit float64
		if qty != 0 {
			unit = math.Abs(money.Round2(l.Txval / float64(qty)))
		}
		itemTx := math.Abs(money.Round2(l.Txval))
		itemTax := math.Abs(money.Round2(l.Rt * l.Txval / 100))
		doc.ItemList = append(doc.ItemList, Item{
			SlNo:       strconv.Itoa(i + 1),
			IsServc:    "N",
			PrdDesc:    l.Desc,
			HsnCd:      l.HSN,
			Qty:        qty,
			Unit:       "PCS",
			UnitPrice:  unit,
			TotAmt:     itemTx,
			AssAmt:     itemTx,
			GstRt:      money.Round(l.Rt*2, 1),
			CgstAmt:    itemTax,
			SgstAmt:    itemTax,
			TotItemVal: math.Abs(money.Round2(l.Txval * (1 + 2*l.Rt/100))),
		})
		txval += l.Txval
		cgst += l.Txval * l.Rt / 100
	}
	doc.ValDtls = ValDtls{
		AssVal:    money.Round2(math.Abs(txval)),
		CgstVal:   money.Round2(math.Abs(cgst)),
		SgstVal:   money.Round2(math.Abs(cgst)),
		TotInvVal: money.Round2(math.Abs(h.Amt)),
	}
	return doc, nil
}

// RedateFn moves documents dated days or more before today to the last day
// of the filing period.
func RedateFn(period string, today time.Time, days int) (func(time.Time) time.Time, error) {
	month, year, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	_, last := domain.MonthRange(month, year)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return func(d time.Time) time.Time {
		d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if today.Sub(d) >= time.Duration(days)*24*time.Hour {
			return last
		}
		return d
	}, nil
}
