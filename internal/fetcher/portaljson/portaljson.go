// Package portaljson serves filed GSTR-1 invoices from portal JSON downloads
// laid out as <dir>/<period>/<type>.json.
package portaljson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"gstfiling/internal/domain"
	"gstfiling/internal/money"
)

type itemDetail struct {
	Txval float64 `json:"txval"`
	Camt  float64 `json:"camt"`
	Samt  float64 `json:"samt"`
}

type item struct {
	ItmDet itemDetail `json:"itm_det"`
}

type document struct {
	Inum       string  `json:"inum"`
	Idt        string  `json:"idt"`
	NtNum      string  `json:"nt_num"`
	NtDt       string  `json:"nt_dt"`
	Val        float64 `json:"val"`
	Irn        string  `json:"irn"`
	IrnGenDate string  `json:"irngendate"`
	SrcTyp     string  `json:"srctyp"`
	Itms       []item  `json:"itms"`
}

type party struct {
	Ctin string     `json:"ctin"`
	Inv  []document `json:"inv"`
	Nt   []document `json:"nt"`
}

type download struct {
	B2B  []party `json:"b2b"`
	CDNR []party `json:"cdnr"`
}

// Client implements port.PortalClient over downloaded return files.
type Client struct {
	fs  afero.Fs
	dir string
}

// New creates a Client reading downloads from dir on fs.
func New(fsys afero.Fs, dir string) *Client {
	return &Client{fs: fsys, dir: dir}
}

// GetFiledInvoices flattens one download into a row per document with the
// item amounts summed. A period with no download yields no rows.
func (c *Client) GetFiledInvoices(ctx context.Context, period string, typ domain.GSTType) ([]domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if typ != domain.GSTTypeB2B && typ != domain.GSTTypeCDNR {
		return nil, fmt.Errorf("portal downloads carry b2b and cdnr only, got %q", typ)
	}
	path := filepath.Join(c.dir, period, string(typ)+".json")
	raw, err := afero.ReadFile(c.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var d download
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var rows []domain.Row
	if typ == domain.GSTTypeB2B {
		for _, p := range d.B2B {
			for _, doc := range p.Inv {
				row := flatten(p.Ctin, doc)
				row["inum"], row["idt"] = doc.Inum, doc.Idt
				rows = append(rows, row)
			}
		}
		return rows, nil
	}
	for _, p := range d.CDNR {
		for _, doc := range p.Nt {
			row := flatten(p.Ctin, doc)
			row["nt_num"], row["nt_dt"] = doc.NtNum, doc.NtDt
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func flatten(ctin string, doc document) domain.Row {
	var txval, camt, samt []float64
	for _, it := range doc.Itms {
		txval = append(txval, it.ItmDet.Txval)
		camt = append(camt, it.ItmDet.Camt)
		samt = append(samt, it.ItmDet.Samt)
	}
	return domain.Row{
		"ctin":       ctin,
		"val":        doc.Val,
		"invtxval":   money.Sum(txval...),
		"invcamt":    money.Sum(camt...),
		"invsamt":    money.Sum(samt...),
		"irn":        emptyNil(doc.Irn),
		"irngendate": emptyNil(doc.IrnGenDate),
		"srctyp":     emptyNil(doc.SrcTyp),
	}
}

func emptyNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
