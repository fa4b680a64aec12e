package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePriceFile(t *testing.T, dir, symbol, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644))
}

func TestCSVProvider_LoadSeries(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "510300", "date,close\n"+
		"2023-01-02,3.95\n"+
		"2023-01-03,3.98\n"+
		"2023-01-04,3.90\n")

	provider := NewCSVProvider(dir)
	series, err := provider.LoadSeries("510300")
	require.NoError(t, err)

	assert.Len(t, series, 3)
	price, ok := series["2023-01-03"]
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("3.98")))
}

func TestCSVProvider_SkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "510300", "date,close\n"+
		"2023-01-02,3.95\n"+
		"not-a-date,3.98\n"+
		"2023-01-04,not-a-price\n"+
		"2023-01-05,-1.00\n"+
		"2023-01-06\n"+
		"2023-01-09,4.01\n")

	series, err := NewCSVProvider(dir).LoadSeries("510300")
	require.NoError(t, err)

	// Only the two clean rows survive
	assert.Len(t, series, 2)
	_, ok := series["2023-01-05"]
	assert.False(t, ok, "non-positive prices are dropped")
}

func TestCSVProvider_MissingFile(t *testing.T) {
	provider := NewCSVProvider(t.TempDir())
	_, err := provider.LoadSeries("UNKNOWN")
	assert.Error(t, err)
}

func TestCSVProvider_CustomFormat(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "510300", "close,volume,date\n"+
		"3.95,1000,02/01/2023\n"+
		"3.98,1200,03/01/2023\n")

	provider := NewCSVProviderWithFormat(dir, CSVColumnMapping{
		DateCol:    2,
		CloseCol:   0,
		DateFormat: "02/01/2006",
		MinColumns: 3,
	})
	series, err := provider.LoadSeries("510300")
	require.NoError(t, err)

	assert.Len(t, series, 2)
	_, ok := series["2023-01-02"]
	assert.True(t, ok)
}
