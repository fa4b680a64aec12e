package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/internal/strategy"
	"github.com/quantive/dca-backtest/pkg/config"
)

const tradingDaysPerYear = 252

// Metrics summarizes one run. Money stays decimal; ratio metrics that need
// roots and powers are float64.
type Metrics struct {
	FinalValue          decimal.Decimal `json:"final_value"`
	TotalReturn         decimal.Decimal `json:"total_return"`
	AnnualizedReturn    float64         `json:"annualized_return"`
	Volatility          float64         `json:"volatility"`
	SharpeRatio         float64         `json:"sharpe_ratio"`
	MaxDrawdown         float64         `json:"max_drawdown"`
	MaxDrawdownDuration int             `json:"max_drawdown_duration_days"`
	ElapsedDays         int             `json:"elapsed_days"`

	TotalTrades   int             `json:"total_trades"`
	BuyCount      int             `json:"buy_count"`
	SellCount     int             `json:"sell_count"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	WinRate       float64         `json:"win_rate"`
	TotalFees     decimal.Decimal `json:"total_fees"`

	TotalInvested        decimal.Decimal `json:"total_invested"`
	TotalShares          decimal.Decimal `json:"total_shares"`
	AvgCost              decimal.Decimal `json:"avg_cost"`
	AvgBuyPrice          decimal.Decimal `json:"avg_buy_price"`
	CostDilutionPct      float64         `json:"cost_dilution_pct"`
	InvestmentEfficiency float64         `json:"investment_efficiency_pct"`
	MinBuyPrice          decimal.Decimal `json:"min_buy_price"`
	MaxBuyPrice          decimal.Decimal `json:"max_buy_price"`
	PriceSpreadPct       float64         `json:"price_spread_pct"`
}

// Summarize computes the full metric set from the daily snapshots and the
// executed transactions. skippedPeriods feeds the investment-efficiency
// denominator alongside the executed buys.
func Summarize(snapshots []DailySnapshot, transactions []Transaction, cfg *config.BacktestConfig, skippedPeriods int) *Metrics {
	m := &Metrics{
		FinalValue: cfg.InitialCapital,
		TotalFees:  decimal.Zero,
	}
	if len(snapshots) == 0 {
		return m
	}

	m.FinalValue = snapshots[len(snapshots)-1].TotalValue
	m.TotalReturn = m.FinalValue.Sub(cfg.InitialCapital).Div(cfg.InitialCapital)
	m.ElapsedDays = int(snapshots[len(snapshots)-1].Date.Sub(snapshots[0].Date).Hours() / 24)

	if m.ElapsedDays > 0 && cfg.InitialCapital.IsPositive() {
		growth := m.FinalValue.Div(cfg.InitialCapital).InexactFloat64()
		if growth > 0 {
			m.AnnualizedReturn = math.Pow(growth, 365/float64(m.ElapsedDays)) - 1
		}
	}

	returns := dailyReturns(snapshots)
	m.Volatility = annualizedVolatility(returns)
	m.SharpeRatio = sharpeRatio(returns, m.Volatility, cfg.RiskFreeRate.InexactFloat64())
	m.MaxDrawdown, m.MaxDrawdownDuration = maxDrawdown(snapshots)

	summarizeTrades(m, transactions)
	summarizeDCA(m, transactions, cfg, skippedPeriods)
	return m
}

// dailyReturns includes the first day's observation, which is zero by
// definition.
func dailyReturns(snapshots []DailySnapshot) []float64 {
	if len(snapshots) == 0 {
		return nil
	}
	returns := make([]float64, 1, len(snapshots))
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].TotalValue
		if !prev.IsPositive() {
			continue
		}
		returns = append(returns, snapshots[i].TotalValue.Div(prev).InexactFloat64()-1)
	}
	return returns
}

// annualizedVolatility is the sample standard deviation of daily returns
// scaled by sqrt(252).
func annualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

func sharpeRatio(returns []float64, annualVol, riskFree float64) float64 {
	if annualVol == 0 || len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	return (mean*tradingDaysPerYear - riskFree) / annualVol
}

// maxDrawdown walks the equity curve against its running peak. The duration
// counter resets whenever a new peak prints and otherwise grows by one day.
func maxDrawdown(snapshots []DailySnapshot) (float64, int) {
	peak := snapshots[0].TotalValue
	maxDD := 0.0
	maxDuration, duration := 0, 0

	for _, snap := range snapshots {
		if snap.TotalValue.GreaterThanOrEqual(peak) {
			peak = snap.TotalValue
			duration = 0
			continue
		}
		duration++
		if duration > maxDuration {
			maxDuration = duration
		}
		if peak.IsPositive() {
			dd := peak.Sub(snap.TotalValue).Div(peak).InexactFloat64()
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD, maxDuration
}

// summarizeTrades counts trades, fees and win/loss pairs. Each sell is
// paired with the nearest prior buy of the same symbol; a higher execution
// price than that buy's counts as a win.
func summarizeTrades(m *Metrics, transactions []Transaction) {
	m.TotalTrades = len(transactions)
	for i, tx := range transactions {
		m.TotalFees = m.TotalFees.Add(tx.Fees.Total)
		switch tx.Action {
		case strategy.ActionBuy:
			m.BuyCount++
		case strategy.ActionSell:
			m.SellCount++
			if buy, ok := nearestPriorBuy(transactions, i); ok {
				if tx.Price.GreaterThan(buy.Price) {
					m.WinningTrades++
				} else {
					m.LosingTrades++
				}
			}
		}
	}
	if m.SellCount > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.SellCount)
	}
}

func nearestPriorBuy(transactions []Transaction, sellIdx int) (Transaction, bool) {
	for i := sellIdx - 1; i >= 0; i-- {
		if transactions[i].Action == strategy.ActionBuy && transactions[i].Symbol == transactions[sellIdx].Symbol {
			return transactions[i], true
		}
	}
	return Transaction{}, false
}

// summarizeDCA computes the averaging-specific metrics over the executed
// buys: average cost vs average price, price range, and how much of the
// planned schedule was actually deployed.
func summarizeDCA(m *Metrics, transactions []Transaction, cfg *config.BacktestConfig, skippedPeriods int) {
	priceSum := decimal.Zero
	for _, tx := range transactions {
		if tx.Action != strategy.ActionBuy {
			continue
		}
		m.TotalInvested = m.TotalInvested.Add(tx.Amount)
		m.TotalShares = m.TotalShares.Add(tx.Quantity)
		priceSum = priceSum.Add(tx.Price)

		if m.MinBuyPrice.IsZero() || tx.Price.LessThan(m.MinBuyPrice) {
			m.MinBuyPrice = tx.Price
		}
		if tx.Price.GreaterThan(m.MaxBuyPrice) {
			m.MaxBuyPrice = tx.Price
		}
	}
	if m.BuyCount == 0 {
		return
	}

	m.AvgBuyPrice = priceSum.Div(decimal.NewFromInt(int64(m.BuyCount)))
	if m.TotalShares.IsPositive() {
		m.AvgCost = m.TotalInvested.Div(m.TotalShares)
	}
	if m.AvgBuyPrice.IsPositive() {
		m.CostDilutionPct = m.AvgBuyPrice.Sub(m.AvgCost).Div(m.AvgBuyPrice).InexactFloat64() * 100
	}
	if m.MinBuyPrice.IsPositive() {
		m.PriceSpreadPct = m.MaxBuyPrice.Sub(m.MinBuyPrice).Div(m.MinBuyPrice).InexactFloat64() * 100
	}

	planned := decimal.NewFromInt(int64(m.BuyCount + skippedPeriods)).Mul(cfg.InvestmentAmount)
	if planned.IsPositive() {
		m.InvestmentEfficiency = m.TotalInvested.Div(planned).InexactFloat64() * 100
	}
}
