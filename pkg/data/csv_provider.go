package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider loads a daily closing-price series for a symbol.
type Provider interface {
	// GetName returns the name of the data provider.
	GetName() string

	// LoadSeries loads the full available series for the symbol.
	LoadSeries(symbol string) (Series, error)
}

// CSVColumnMapping describes where the date and close columns live in a
// price CSV and how dates are formatted.
type CSVColumnMapping struct {
	DateCol    int
	CloseCol   int
	DateFormat string
	MinColumns int
}

// DefaultCSVFormat matches "date,close" exports with ISO dates.
var DefaultCSVFormat = CSVColumnMapping{
	DateCol:    0,
	CloseCol:   1,
	DateFormat: "2006-01-02",
	MinColumns: 2,
}

// CSVProvider implements Provider for local CSV files. Files are resolved
// as <root>/<symbol>.csv.
type CSVProvider struct {
	root   string
	format CSVColumnMapping
}

// NewCSVProvider creates a provider reading from the given data directory.
func NewCSVProvider(root string) *CSVProvider {
	return &CSVProvider{root: root, format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a provider with a custom column mapping.
func NewCSVProviderWithFormat(root string, format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{root: root, format: format}
}

// GetName returns the name of the data provider.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadSeries reads <root>/<symbol>.csv into a Series. Malformed rows are
// skipped with a warning rather than failing the whole load.
func (p *CSVProvider) LoadSeries(symbol string) (Series, error) {
	path := fmt.Sprintf("%s/%s.csv", strings.TrimRight(p.root, "/"), symbol)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file for %s: %w", symbol, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	series := make(Series)
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading %s at line %d: %w", path, lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d of %s, skipping", lineNum, path)
			continue
		}

		day, err := time.Parse(p.format.DateFormat, strings.TrimSpace(record[p.format.DateCol]))
		if err != nil {
			log.Printf("⚠️ Invalid date %q at line %d of %s, skipping", record[p.format.DateCol], lineNum, path)
			continue
		}

		price, err := decimal.NewFromString(strings.TrimSpace(record[p.format.CloseCol]))
		if err != nil || !price.IsPositive() {
			log.Printf("⚠️ Invalid close price %q at line %d of %s, skipping", record[p.format.CloseCol], lineNum, path)
			continue
		}

		series[DayKey(day)] = price
	}

	return series, nil
}
