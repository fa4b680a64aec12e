package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantive/dca-backtest/internal/backtest"
)

// ExcelReporter writes a multi-sheet workbook with the run summary, the
// transaction log and the equity curve.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

const (
	summarySheet      = "Summary"
	transactionsSheet = "Transactions"
	equitySheet       = "Equity Curve"
)

// WriteResult writes the workbook to path.
func (r *ExcelReporter) WriteResult(result *backtest.Result, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(transactionsSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(equitySheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, result, headerStyle); err != nil {
		return err
	}
	if err := r.writeTransactionsSheet(fx, result, headerStyle); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, result, headerStyle); err != nil {
		return err
	}

	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, result *backtest.Result, headerStyle int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Symbol", result.Config.Symbol},
		{"Strategy", result.StrategyName},
		{"Status", string(result.Status)},
		{"Start Date", result.Config.StartDate.Format("2006-01-02")},
		{"End Date", result.Config.EndDate.Format("2006-01-02")},
		{"Initial Capital", result.Config.InitialCapital.StringFixed(2)},
	}
	if m := result.Metrics; m != nil {
		rows = append(rows, [][]interface{}{
			{"Final Value", m.FinalValue.StringFixed(2)},
			{"Total Return %", m.TotalReturn.Mul(hundred).StringFixed(2)},
			{"Annualized Return %", fmt.Sprintf("%.2f", m.AnnualizedReturn*100)},
			{"Volatility %", fmt.Sprintf("%.2f", m.Volatility*100)},
			{"Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio)},
			{"Max Drawdown %", fmt.Sprintf("%.2f", m.MaxDrawdown*100)},
			{"Max Drawdown Duration (days)", m.MaxDrawdownDuration},
			{"Total Trades", m.TotalTrades},
			{"Winning Trades", m.WinningTrades},
			{"Losing Trades", m.LosingTrades},
			{"Total Fees", m.TotalFees.StringFixed(2)},
			{"Total Invested", m.TotalInvested.StringFixed(2)},
			{"Average Cost", m.AvgCost.StringFixed(4)},
			{"Cost Dilution %", fmt.Sprintf("%.2f", m.CostDilutionPct)},
			{"Investment Efficiency %", fmt.Sprintf("%.2f", m.InvestmentEfficiency)},
			{"Skipped Periods", result.SkippedPeriods},
			{"Rejected Trades", result.RejectedTrades},
		}...)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(summarySheet, "A1", "B1", headerStyle)
}

func (r *ExcelReporter) writeTransactionsSheet(fx *excelize.File, result *backtest.Result, headerStyle int) error {
	header := []interface{}{"Date", "Action", "Symbol", "Quantity", "Price", "Amount", "Commission", "Stamp Duty", "Transfer Fee", "Total Fees", "Reason"}
	if err := fx.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return err
	}
	for i, tx := range result.Transactions {
		row := []interface{}{
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
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(transactionsSheet, "A1", "K1", headerStyle)
}

func (r *ExcelReporter) writeEquitySheet(fx *excelize.File, result *backtest.Result, headerStyle int) error {
	header := []interface{}{"Date", "Cash", "Market Value", "Total Value", "Drawdown %"}
	if err := fx.SetSheetRow(equitySheet, "A1", &header); err != nil {
		return err
	}
	drawdowns := drawdownCurve(result.Snapshots)
	for i, snap := range result.Snapshots {
		row := []interface{}{
			snap.Date.Format("2006-01-02"),
			snap.Cash.StringFixed(2),
			snap.MarketValue.StringFixed(2),
			snap.TotalValue.StringFixed(2),
			drawdowns[i].Mul(hundred).StringFixed(4),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(equitySheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(equitySheet, "A1", "E1", headerStyle)
}
