package xlsx_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gstfiling/internal/domain"
	"gstfiling/internal/fetcher/xlsx"
	"gstfiling/internal/report"
)

func writeExport(t *testing.T, path string, rows [][]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	fetcher := xlsx.New(dir)
	args := domain.DateRangeArgs(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC))
	path := fetcher.Path(report.KindDamage, args)
	assert.Equal(t, filepath.Join(dir, "dmgsht", "2025-09-01_2025-09-30.xlsx"), path)

	writeExport(t, path, [][]any{
		{"Inv No", "Date", "Qty", "", "Qty"},
		{"D1", time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC), 4, "x", 5},
		{},
		{"D2", nil, 2.5},
	})

	table, err := fetcher.Fetch(context.Background(), report.KindDamage, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inv No", "Date", "Qty", "column_4", "Qty.1"}, table.Columns)
	require.Equal(t, 2, table.Len())

	row := table.Rows[0]
	assert.Equal(t, "D1", row["Inv No"])
	assert.Equal(t, 4.0, row.Float("Qty"))
	assert.Equal(t, 5.0, row.Float("Qty.1"))
	d, err := report.ParseDate(row["Date"], "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC), d)

	assert.Nil(t, table.Rows[1]["Date"])
	assert.Nil(t, table.Rows[1]["Qty.1"])
}

func TestFetch_MissingExport(t *testing.T) {
	_, err := xlsx.New(t.TempDir()).Fetch(context.Background(), report.KindParty, domain.EmptyArgs())
	assert.Error(t, err)
}
