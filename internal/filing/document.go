// Package filing builds the GSTR-1 filing JSON and the summary tables of a
// return period.
package filing

// Document is the GSTR-1 offline-tool JSON.
type Document struct {
	GSTIN    string    `json:"gstin"`
	FP       string    `json:"fp"`
	Version  string    `json:"version"`
	Hash     string    `json:"hash"`
	B2B      []B2B     `json:"b2b"`
	CDNR     []CDNR    `json:"cdnr"`
	B2CS     []B2CS    `json:"b2cs"`
	HSN      HSN       `json:"hsn"`
	DocIssue DocIssue  `json:"doc_issue"`
	Nil      *NilBlock `json:"nil,omitempty"`
}

// B2B groups a counterparty's outward invoices.
type B2B struct {
	Ctin string       `json:"ctin"`
	Inv  []B2BInvoice `json:"inv"`
}

type B2BInvoice struct {
	Inum   string  `json:"inum"`
	Idt    string  `json:"idt"`
	Val    float64 `json:"val"`
	Pos    string  `json:"pos"`
	Rchrg  string  `json:"rchrg"`
	InvTyp string  `json:"inv_typ"`
	Itms   []Item  `json:"itms"`
}

// CDNR groups a counterparty's credit notes.
type CDNR struct {
	Ctin string `json:"ctin"`
	Nt   []Note `json:"nt"`
}

type Note struct {
	Ntty   string  `json:"ntty"`
	NtNum  string  `json:"nt_num"`
	NtDt   string  `json:"nt_dt"`
	Val    float64 `json:"val"`
	Pos    string  `json:"pos"`
	Rchrg  string  `json:"rchrg"`
	InvTyp string  `json:"inv_typ"`
	Itms   []Item  `json:"itms"`
}

// Item is one rate slice of an invoice. Rt is the combined central and state
// rate.
type Item struct {
	Num    int        `json:"num"`
	ItmDet ItemDetail `json:"itm_det"`
}

type ItemDetail struct {
	Txval float64 `json:"txval"`
	Rt    float64 `json:"rt"`
	Iamt  float64 `json:"iamt"`
	Camt  float64 `json:"camt"`
	Samt  float64 `json:"samt"`
	Csamt float64 `json:"csamt"`
}

// B2CS is the consumer-sales total of one rate.
type B2CS struct {
	SplyTy string  `json:"sply_ty"`
	Rt     float64 `json:"rt"`
	Typ    string  `json:"typ"`
	Pos    string  `json:"pos"`
	Txval  float64 `json:"txval"`
	Iamt   float64 `json:"iamt"`
	Camt   float64 `json:"camt"`
	Samt   float64 `json:"samt"`
	Csamt  float64 `json:"csamt"`
}

// HSN holds the HSN summaries of registered and consumer supplies.
type HSN struct {
	B2B []HSNLine `json:"hsn_b2b"`
	B2C []HSNLine `json:"hsn_b2c"`
}

type HSNLine struct {
	Num   int     `json:"num"`
	HSNSc string  `json:"hsn_sc"`
	Desc  string  `json:"desc"`
	Uqc   string  `json:"uqc"`
	Qty   int     `json:"qty"`
	Rt    float64 `json:"rt"`
	Txval float64 `json:"txval"`
	Iamt  float64 `json:"iamt"`
	Camt  float64 `json:"camt"`
	Samt  float64 `json:"samt"`
	Csamt float64 `json:"csamt"`
}

type DocIssue struct {
	DocDet []DocCategory `json:"doc_det"`
}

// DocCategory declares the number ranges of one document category.
type DocCategory struct {
	DocNum int        `json:"doc_num"`
	DocTyp string     `json:"doc_typ"`
	Docs   []DocRange `json:"docs"`
}

type DocRange struct {
	Num      int    `json:"num"`
	From     string `json:"from"`
	To       string `json:"to"`
	TotNum   int    `json:"totnum"`
	Cancel   int    `json:"cancel"`
	NetIssue int    `json:"net_issue"`
}

// NilBlock declares nil-rated supplies.
type NilBlock struct {
	Inv []NilSupply `json:"inv"`
}

type NilSupply struct {
	SplyTy   string  `json:"sply_ty"`
	ExptAmt  float64 `json:"expt_amt"`
	NilAmt   float64 `json:"nil_amt"`
	NgsupAmt float64 `json:"ngsup_amt"`
}
