package domain

// VoucherType is the ledger classification of a sales-side voucher.
type VoucherType string

const (
	VoucherSales        VoucherType = "sales"
	VoucherSalesReturn  VoucherType = "salesreturn"
	VoucherClaimService VoucherType = "claimservice"
	VoucherDamage       VoucherType = "damage"
	VoucherShortage     VoucherType = "shortage"
)

// IsOutward reports whether the voucher is an outward-supply invoice (as
// opposed to a credit note).
func (t VoucherType) IsOutward() bool {
	return t == VoucherSales || t == VoucherClaimService
}

// GSTType is the filing bucket of an invoice.
type GSTType string

const (
	GSTTypeB2B  GSTType = "b2b"
	GSTTypeCDNR GSTType = "cdnr"
	GSTTypeB2C  GSTType = "b2c"
)

// ClassifyGST returns b2c when there is no counterparty GSTIN, b2b for
// outward invoices and cdnr for everything else.
func ClassifyGST(t VoucherType, ctin string) GSTType {
	switch {
	case ctin == "":
		return GSTTypeB2C
	case t.IsOutward():
		return GSTTypeB2B
	default:
		return GSTTypeCDNR
	}
}

// ReturnFrom tells where a damage/shortage claim originated.
type ReturnFrom string

const (
	ReturnFromMarket ReturnFrom = "market"
	ReturnFromRS     ReturnFrom = "rs"
)

// DiscountSubTypes are the register columns carried into discount lines.
var DiscountSubTypes = []string{"btpr", "outpyt", "ushop", "pecom", "other_discount"}

// DefaultPartyID is used for rows that have no retailer, e.g. claims raised
// against the principal.
const DefaultPartyID = "HUL"
