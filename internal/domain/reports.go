package domain

import "time"

// SalesRegisterRow is one voucher of the ERP sales register. For sales
// returns Inum holds the original invoice number, not the credit note.
type SalesRegisterRow struct {
	CompanyID     string    `db:"company_id"`
	Inum          string    `db:"inum"`
	Date          time.Time `db:"date"`
	PartyID       string    `db:"party_id"`
	PartyName     *string   `db:"party_name"`
	Type          string    `db:"type"`
	Amt           float64   `db:"amt"`
	Ctin          *string   `db:"ctin"`
	Tcs           float64   `db:"tcs"`
	Tds           float64   `db:"tds"`
	Tax           float64   `db:"tax"`
	Schdisc       float64   `db:"schdisc"`
	Cashdisc      float64   `db:"cashdisc"`
	Btpr          float64   `db:"btpr"`
	Outpyt        float64   `db:"outpyt"`
	Ushop         float64   `db:"ushop"`
	Pecom         float64   `db:"pecom"`
	Roundoff      float64   `db:"roundoff"`
	OtherDiscount float64   `db:"other_discount"`
}

// DiscountTotal sums the sub types that become discount lines.
func (r *SalesRegisterRow) DiscountTotal() float64 {
	return r.Btpr + r.Outpyt + r.Ushop + r.Pecom + r.OtherDiscount
}

// DiscountBySubType returns the register value for a discount sub type.
func (r *SalesRegisterRow) DiscountBySubType(subType string) float64 {
	switch subType {
	case "btpr":
		return r.Btpr
	case "outpyt":
		return r.Outpyt
	case "ushop":
		return r.Ushop
	case "pecom":
		return r.Pecom
	case "other_discount":
		return r.OtherDiscount
	}
	return 0
}

// GSTR1Row is one line of the ERP GSTR-1 detail report.
type GSTR1Row struct {
	CompanyID         string    `db:"company_id"`
	Inum              string    `db:"inum"`
	Date              time.Time `db:"date"`
	Txval             float64   `db:"txval"`
	StockID           string    `db:"stock_id"`
	Qty               int       `db:"qty"`
	Rt                float64   `db:"rt"`
	Type              string    `db:"type"`
	HSN               string    `db:"hsn"`
	Desc              *string   `db:"desc"`
	CreditNoteNo      *string   `db:"credit_note_no"`
	OriginalInvoiceNo *string   `db:"original_invoice_no"`
	PartyID           string    `db:"party_id"`
	PartyName         *string   `db:"party_name"`
	Ctin              *string   `db:"ctin"`
	Cgst              float64   `db:"cgst"`
	Sgst              float64   `db:"sgst"`
	InvAmt            float64   `db:"inv_amt"`
}

// DamageRow is one line of the damage/shortage proposal report.
type DamageRow struct {
	CompanyID         string    `db:"company_id"`
	Inum              string    `db:"inum"`
	Type              string    `db:"type"`
	ReturnFrom        string    `db:"return_from"`
	Date              time.Time `db:"date"`
	PartyID           string    `db:"party_id"`
	PartyName         *string   `db:"party_name"`
	StockID           string    `db:"stock_id"`
	Desc              *string   `db:"desc"`
	Qty               int       `db:"qty"`
	Amt               float64   `db:"amt"`
	Plg               *string   `db:"plg"`
	CreditNoteNo      *string   `db:"credit_note_no"`
	OriginalInvoiceNo *string   `db:"original_invoice_no"`
}

// StockRateRow is one row of the product HSN/rate master report.
type StockRateRow struct {
	CompanyID string  `db:"company_id"`
	StockID   string  `db:"stock_id"`
	HSN       string  `db:"hsn"`
	Rt        float64 `db:"rt"`
}

// PartyRow is one row of the party master report.
type PartyRow struct {
	CompanyID  string  `db:"company_id"`
	Code       string  `db:"code"`
	MasterCode *string `db:"master_code"`
	Name       *string `db:"name"`
	Addr       *string `db:"addr"`
	Beat       *string `db:"beat"`
	Ctin       *string `db:"ctin"`
	Phone      *string `db:"phone"`
}
