package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/quantive/dca-backtest/internal/backtest"
)

// ConsoleReporter prints results to stdout.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// OutputResult prints the run summary and metrics to the console.
func (r *ConsoleReporter) OutputResult(result *backtest.Result) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 BACKTEST RESULTS")
	fmt.Println(strings.Repeat("=", 50))

	fmt.Printf("🏷️  Symbol:             %s\n", result.Config.Symbol)
	fmt.Printf("🧭 Strategy:           %s\n", result.StrategyName)
	fmt.Printf("📅 Period:             %s → %s\n",
		result.Config.StartDate.Format("2006-01-02"), result.Config.EndDate.Format("2006-01-02"))
	fmt.Printf("🚦 Status:             %s\n", result.Status)
	if result.Error != "" {
		fmt.Printf("❌ Error:              %s\n", result.Error)
	}
	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  Warning:            %s\n", warning)
	}
	if result.Metrics == nil {
		return
	}

	m := result.Metrics
	fmt.Printf("💰 Initial Capital:    $%s\n", result.Config.InitialCapital.StringFixed(2))
	fmt.Printf("💰 Final Value:        $%s\n", m.FinalValue.StringFixed(2))
	fmt.Printf("📈 Total Return:       %s%%\n", m.TotalReturn.Mul(hundred).StringFixed(2))
	fmt.Printf("📈 Annualized Return:  %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Printf("📊 Volatility:         %.2f%%\n", m.Volatility*100)
	fmt.Printf("📊 Sharpe Ratio:       %.2f\n", m.SharpeRatio)
	fmt.Printf("📉 Max Drawdown:       %.2f%% (%d days)\n", m.MaxDrawdown*100, m.MaxDrawdownDuration)
	fmt.Printf("🔄 Total Trades:       %d (%d buys, %d sells)\n", m.TotalTrades, m.BuyCount, m.SellCount)
	if m.SellCount > 0 {
		fmt.Printf("✅ Winning Trades:     %d (%.1f%%)\n", m.WinningTrades, m.WinRate*100)
		fmt.Printf("❌ Losing Trades:      %d\n", m.LosingTrades)
	}
	fmt.Printf("💸 Total Fees:         $%s\n", m.TotalFees.StringFixed(2))
	fmt.Printf("⏭️  Skipped Periods:    %d\n", result.SkippedPeriods)
	fmt.Printf("🚫 Rejected Trades:    %d\n", result.RejectedTrades)

	if m.BuyCount > 0 {
		fmt.Println(strings.Repeat("-", 50))
		fmt.Printf("💵 Total Invested:     $%s\n", m.TotalInvested.StringFixed(2))
		fmt.Printf("📦 Total Shares:       %s\n", m.TotalShares.String())
		fmt.Printf("🧮 Average Cost:       $%s\n", m.AvgCost.StringFixed(4))
		fmt.Printf("🧮 Average Buy Price:  $%s\n", m.AvgBuyPrice.StringFixed(4))
		fmt.Printf("🎯 Cost Dilution:      %.2f%%\n", m.CostDilutionPct)
		fmt.Printf("🎯 Efficiency:         %.2f%%\n", m.InvestmentEfficiency)
		fmt.Printf("📏 Buy Price Range:    $%s – $%s (%.2f%%)\n",
			m.MinBuyPrice.StringFixed(2), m.MaxBuyPrice.StringFixed(2), m.PriceSpreadPct)
	}
}

// OutputTransactions renders the transaction log as a table.
func (r *ConsoleReporter) OutputTransactions(result *backtest.Result) {
	if len(result.Transactions) == 0 {
		fmt.Println("No transactions executed.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Date", "Action", "Symbol", "Quantity", "Price", "Amount", "Fees", "Reason"})
	for _, tx := range result.Transactions {
		t.AppendRow(table.Row{
			tx.Date.Format("2006-01-02"),
			tx.Action.String(),
			tx.Symbol,
			tx.Quantity.String(),
			tx.Price.StringFixed(4),
			tx.Amount.StringFixed(2),
			tx.Fees.Total.StringFixed(2),
			tx.Reason,
		})
	}
	t.Render()
}

// OutputComparison renders strategy vs benchmark side by side.
func (r *ConsoleReporter) OutputComparison(comparison *backtest.ComparisonResult) {
	s, b := comparison.Strategy.Metrics, comparison.Benchmark.Metrics
	if s == nil || b == nil {
		fmt.Println("Comparison incomplete, missing metrics.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 STRATEGY vs BUY-AND-HOLD BENCHMARK")
	fmt.Println(strings.Repeat("=", 50))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Strategy", "Benchmark"})
	t.AppendRows([]table.Row{
		{"Final Value", "$" + s.FinalValue.StringFixed(2), "$" + b.FinalValue.StringFixed(2)},
		{"Total Return", s.TotalReturn.Mul(hundred).StringFixed(2) + "%", b.TotalReturn.Mul(hundred).StringFixed(2) + "%"},
		{"Annualized Return", fmt.Sprintf("%.2f%%", s.AnnualizedReturn*100), fmt.Sprintf("%.2f%%", b.AnnualizedReturn*100)},
		{"Volatility", fmt.Sprintf("%.2f%%", s.Volatility*100), fmt.Sprintf("%.2f%%", b.Volatility*100)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", s.SharpeRatio), fmt.Sprintf("%.2f", b.SharpeRatio)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown*100), fmt.Sprintf("%.2f%%", b.MaxDrawdown*100)},
		{"Total Trades", s.TotalTrades, b.TotalTrades},
		{"Total Fees", "$" + s.TotalFees.StringFixed(2), "$" + b.TotalFees.StringFixed(2)},
	})
	t.Render()
}
