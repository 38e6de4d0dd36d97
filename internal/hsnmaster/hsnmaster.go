// Package hsnmaster reads the GST HSN/SAC code workbook published by CBIC.
// Goods come from the first sheet (HSN_Master_v1) and services from
// SAC_Master.
package hsnmaster

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gstfiling/internal/domain"
)

// SACSheet is the services sheet name.
const SACSheet = "SAC_Master"

// Columns of the goods sheet: F=4-digit code, H=its description, I=6-digit,
// J=its description, K=8-digit, M=its description, N=GST rate.
const (
	hsnFirstRow = 5
	hsnRateCol  = 13
	sacFirstRow = 3
	sacRateCol  = 4
)

var hsnCodeCols = [][2]int{{10, 12}, {8, 9}, {5, 7}}

// Columns of the services sheet: A=4-digit, B=description, C=6-digit,
// D=description, E=rate as free text.
var sacCodeCols = [][2]int{{2, 3}, {0, 1}}

// Read parses both sheets. An (code, rate) pair is kept once, first sheet
// first.
func Read(f *excelize.File) ([]domain.HSNEntry, error) {
	seen := make(map[string]bool)
	goods, err := readGoods(f, seen)
	if err != nil {
		return nil, fmt.Errorf("parsing HSN sheet: %w", err)
	}
	services, err := readServices(f, seen)
	if err != nil {
		return nil, fmt.Errorf("parsing SAC sheet: %w", err)
	}
	return append(goods, services...), nil
}

// ReadFile opens path and parses it.
func ReadFile(path string) ([]domain.HSNEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

func readGoods(f *excelize.File, seen map[string]bool) ([]domain.HSNEntry, error) {
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	var out []domain.HSNEntry
	for i := hsnFirstRow; i < len(rows); i++ {
		row := rows[i]
		rate, ok := parsePercent(cell(row, hsnRateCol))
		if !ok {
			continue
		}
		for _, c := range hsnCodeCols {
			out = add(out, seen, cell(row, c[0]), cell(row, c[1]), rate)
		}
	}
	return out, nil
}

func readServices(f *excelize.File, seen map[string]bool) ([]domain.HSNEntry, error) {
	if idx, _ := f.GetSheetIndex(SACSheet); idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(SACSheet)
	if err != nil {
		return nil, err
	}
	var out []domain.HSNEntry
	for i := sacFirstRow; i < len(rows); i++ {
		row := rows[i]
		for _, rate := range ParseSACRate(cell(row, sacRateCol)) {
			for _, c := range sacCodeCols {
				out = add(out, seen, cell(row, c[0]), cell(row, c[1]), rate)
			}
		}
	}
	return out, nil
}

var ratePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// ParseSACRate extracts the rates of a free-text SAC rate cell:
//
//	"18%"                                   -> [18]
//	"Exempt", "Nil"                         -> [0]
//	"12%-18%"                               -> [12 18]
//	"1% (without ITC) or 5% (without ITC)"  -> [1 5]
func ParseSACRate(s string) []float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return nil
	case "exempt", "nil":
		return []float64{0}
	}
	var out []float64
	seen := make(map[float64]bool)
	for _, m := range ratePattern.FindAllStringSubmatch(s, -1) {
		r, err := strconv.ParseFloat(m[1], 64)
		if err != nil || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// parsePercent reads a goods rate cell, formatted either "18%" or 0.18.
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasSuffix(s, "%") {
		r, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		return r, err == nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if r < 1 {
		r *= 100
	}
	return r, true
}

func add(out []domain.HSNEntry, seen map[string]bool, code, desc string, rate float64) []domain.HSNEntry {
	code = strings.TrimSpace(code)
	if !isNumeric(code) {
		return out
	}
	key := fmt.Sprintf("%s|%.2f", code, rate)
	if seen[key] {
		return out
	}
	seen[key] = true
	return append(out, domain.HSNEntry{Code: code, Description: strings.TrimSpace(desc), GSTRate: rate})
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
