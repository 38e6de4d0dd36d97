package domain

import (
	"strings"
	"time"
)

// Group aggregates companies that file under one GSTIN.
type Group struct {
	ID string `db:"id" json:"id"`
}

// Company is the tenant key every report and ledger row is partitioned by.
type Company struct {
	ID       string `db:"id" json:"id"`
	GroupID  string `db:"group_id" json:"group_id"`
	GSTIN    string `db:"gstin" json:"gstin"`
	GSTTypes string `db:"gst_types" json:"gst_types"`
}

// VoucherTypes returns the voucher types this company files GST for.
func (c *Company) VoucherTypes() []VoucherType {
	var out []VoucherType
	for _, t := range strings.Split(c.GSTTypes, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, VoucherType(t))
		}
	}
	return out
}

// Voucher is a sales-side ledger entry, unique per (company, inum).
type Voucher struct {
	CompanyID string      `db:"company_id" json:"company_id"`
	Inum      string      `db:"inum" json:"inum"`
	Type      VoucherType `db:"type" json:"type"`
	Date      time.Time   `db:"date" json:"date"`
	PartyID   *string     `db:"party_id" json:"party_id,omitempty"`
	Amt       float64     `db:"amt" json:"amt"`
	Ctin      *string     `db:"ctin" json:"ctin,omitempty"`
	Discount  float64     `db:"discount" json:"discount"`
	Roundoff  float64     `db:"roundoff" json:"roundoff"`
	Tds       float64     `db:"tds" json:"tds"`
	Tcs       float64     `db:"tcs" json:"tcs"`
	Irn       *string     `db:"irn" json:"irn,omitempty"`
	GSTPeriod *string     `db:"gst_period" json:"gst_period,omitempty"`
}

// InventoryLine belongs to exactly one voucher through BillID.
type InventoryLine struct {
	CompanyID string  `db:"company_id" json:"company_id"`
	BillID    string  `db:"bill_id" json:"bill_id"`
	StockID   string  `db:"stock_id" json:"stock_id"`
	Qty       int     `db:"qty" json:"qty"`
	Txval     float64 `db:"txval" json:"txval"`
	Rt        float64 `db:"rt" json:"rt"`
}

// DiscountLine is unique per (voucher, sub type).
type DiscountLine struct {
	CompanyID string  `db:"company_id" json:"company_id"`
	BillID    string  `db:"bill_id" json:"bill_id"`
	SubType   string  `db:"sub_type" json:"sub_type"`
	Amt       float64 `db:"amt" json:"amt"`
}

// Party is the retailer master.
type Party struct {
	CompanyID  string  `db:"company_id" json:"company_id"`
	Code       string  `db:"code" json:"code"`
	MasterCode *string `db:"master_code" json:"master_code,omitempty"`
	Name       *string `db:"name" json:"name,omitempty"`
	Addr       *string `db:"addr" json:"addr,omitempty"`
	Beat       *string `db:"beat" json:"beat,omitempty"`
	Ctin       *string `db:"ctin" json:"ctin,omitempty"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
}

// Stock is the product master carrying HSN and the central-tax rate.
type Stock struct {
	CompanyID string  `db:"company_id" json:"company_id"`
	Name      string  `db:"name" json:"name"`
	HSN       *string `db:"hsn" json:"hsn,omitempty"`
	Desc      *string `db:"desc" json:"desc,omitempty"`
	Rt        float64 `db:"rt" json:"rt"`
}

// LedgerBatch is everything one import writes inside a single transaction.
type LedgerBatch struct {
	Vouchers  []Voucher
	Lines     []InventoryLine
	Discounts []DiscountLine
	Stocks    []Stock
	Parties   []Party
}

// FilingLine is one inventory line joined with its voucher and stock master,
// the unit the reconciliation and filing steps work on. Vouchers without
// inventory appear once with a zero taxable value.
type FilingLine struct {
	CompanyID string      `db:"company_id" json:"company_id"`
	Inum      string      `db:"inum" json:"inum"`
	Date      time.Time   `db:"date" json:"date"`
	Type      VoucherType `db:"type" json:"type"`
	Ctin      string      `db:"ctin" json:"ctin"`
	PartyName string      `db:"party_name" json:"party_name"`
	PartyAddr string      `db:"party_addr" json:"party_addr"`
	Amt       float64     `db:"amt" json:"amt"`
	Irn       string      `db:"irn" json:"irn"`
	StockID   string      `db:"stock_id" json:"stock_id"`
	HSN       string      `db:"hsn" json:"hsn"`
	Desc      string      `db:"desc" json:"desc"`
	Qty       int         `db:"qty" json:"qty"`
	Txval     float64     `db:"txval" json:"txval"`
	Rt        float64     `db:"rt" json:"rt"`
}

// GSTType classifies the line's invoice.
func (l *FilingLine) GSTType() GSTType {
	return ClassifyGST(l.Type, l.Ctin)
}

// PortalInvoice is an invoice already filed on the tax portal. Credit notes
// carry negated amounts so they line up with the ledger sign convention.
type PortalInvoice struct {
	GSTIN   string     `db:"gstin" json:"gstin"`
	Period  string     `db:"period" json:"period"`
	Date    time.Time  `db:"date" json:"date"`
	Inum    string     `db:"inum" json:"inum"`
	Type    GSTType    `db:"type" json:"type"`
	Ctin    string     `db:"ctin" json:"ctin"`
	Amt     float64    `db:"amt" json:"amt"`
	Txval   float64    `db:"txval" json:"txval"`
	Cgst    float64    `db:"cgst" json:"cgst"`
	Sgst    float64    `db:"sgst" json:"sgst"`
	Irn     *string    `db:"irn" json:"irn,omitempty"`
	IrnDate *time.Time `db:"irn_date" json:"irn_date,omitempty"`
	SrcType *string    `db:"srctype" json:"srctype,omitempty"`
}

// HSNEntry is a row of the HSN/SAC master used for descriptions.
type HSNEntry struct {
	Code        string  `db:"code"`
	Description string  `db:"description"`
	GSTRate     float64 `db:"gst_rate"`
}

// StrPtr returns nil for empty strings.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
