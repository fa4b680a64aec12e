package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/internal/strategy"
	"github.com/quantive/dca-backtest/pkg/config"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transaction is one executed trade. Price is the slipped execution price,
// Amount the gross traded amount before fees.
type Transaction struct {
	Date     time.Time       `json:"date"`
	Symbol   string          `json:"symbol"`
	Action   strategy.Action `json:"action"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Amount   decimal.Decimal `json:"amount"`
	Fees     CostBreakdown   `json:"fees"`
	Reason   string          `json:"reason"`
}

// DailySnapshot is the portfolio state at the end of one simulated day.
// On days without a price the market value carries the last known price
// forward.
type DailySnapshot struct {
	Date        time.Time       `json:"date"`
	Cash        decimal.Decimal `json:"cash"`
	MarketValue decimal.Decimal `json:"market_value"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// Result is everything a completed (or failed) backtest produced.
type Result struct {
	Config       *config.BacktestConfig `json:"config"`
	StrategyName string                 `json:"strategy"`

	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`

	Transactions []Transaction               `json:"transactions"`
	Snapshots    []DailySnapshot             `json:"snapshots"`
	Records      []strategy.InvestmentRecord `json:"investment_records,omitempty"`

	SkippedPeriods int `json:"skipped_periods"`
	RejectedTrades int `json:"rejected_trades"`

	Metrics *Metrics `json:"metrics,omitempty"`
}

// FinalValue returns the last snapshot's total value, or the initial
// capital when the run produced no snapshots.
func (r *Result) FinalValue() decimal.Decimal {
	if len(r.Snapshots) == 0 {
		return r.Config.InitialCapital
	}
	return r.Snapshots[len(r.Snapshots)-1].TotalValue
}

// Buys returns the executed buy transactions in order.
func (r *Result) Buys() []Transaction {
	var buys []Transaction
	for _, tx := range r.Transactions {
		if tx.Action == strategy.ActionBuy {
			buys = append(buys, tx)
		}
	}
	return buys
}

// Sells returns the executed sell transactions in order.
func (r *Result) Sells() []Transaction {
	var sells []Transaction
	for _, tx := range r.Transactions {
		if tx.Action == strategy.ActionSell {
			sells = append(sells, tx)
		}
	}
	return sells
}
