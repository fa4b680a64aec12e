package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantive/dca-backtest/internal/backtest"
)

// CSVReporter writes transaction logs and equity curves as CSV files.
type CSVReporter struct{}

// NewCSVReporter creates a new CSV reporter
func NewCSVReporter() *CSVReporter {
	return &CSVReporter{}
}

// WriteTransactions writes the executed trades to path.
func (r *CSVReporter) WriteTransactions(result *backtest.Result, path string) error {
	rows := [][]string{{"date", "action", "symbol", "quantity", "price", "amount", "commission", "stamp_duty", "transfer_fee", "total_fees", "reason"}}
	for _, tx := range result.Transactions {
		rows = append(rows, []string{
			tx.Date.Format("2006-01-02"),
			tx.Action.String(),
			tx.Symbol,
			tx.Quantity.String(),
			tx.Price.StringFixed(4),
			tx.Amount.StringFixed(2),
			tx.Fees.Commission.StringFixed(2),
			tx.Fees.StampDuty.StringFixed(2),
			tx.Fees.TransferFee.StringFixed(2),
			tx.Fees.Total.StringFixed(2),
			tx.Reason,
		})
	}
	return writeCSV(rows, path)
}

// WriteEquityCurve writes the daily value series with the drawdown curve
// to path, for charting.
func (r *CSVReporter) WriteEquityCurve(result *backtest.Result, path string) error {
	drawdowns := drawdownCurve(result.Snapshots)
	rows := [][]string{{"date", "cash", "market_value", "total_value", "drawdown_pct"}}
	for i, snap := range result.Snapshots {
		rows = append(rows, []string{
			snap.Date.Format("2006-01-02"),
			snap.Cash.StringFixed(2),
			snap.MarketValue.StringFixed(2),
			snap.TotalValue.StringFixed(2),
			drawdowns[i].Mul(hundred).StringFixed(4),
		})
	}
	return writeCSV(rows, path)
}

func writeCSV(rows [][]string, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	writer.Flush()
	return writer.Error()
}
