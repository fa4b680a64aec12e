package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/internal/logger"
	"github.com/quantive/dca-backtest/internal/strategy"
	"github.com/quantive/dca-backtest/pkg/config"
	"github.com/quantive/dca-backtest/pkg/data"
)

// ProgressFunc receives the completed fraction of the simulated date range
// in [0, 1]. It is called every ten simulated days and once at the end;
// panics inside it are swallowed.
type ProgressFunc func(fraction float64)

const progressInterval = 10

// Engine walks the configured date range one calendar day at a time,
// feeding the strategy a fresh context, executing its intents through the
// ledger and snapshotting the portfolio daily.
type Engine struct {
	cfg      *config.BacktestConfig
	strat    strategy.Strategy
	prices   data.Series
	costs    *CostModel
	log      *logger.RunLogger
	progress ProgressFunc
}

// NewEngine creates an engine for one validated config, one strategy and
// one price series.
func NewEngine(cfg *config.BacktestConfig, strat strategy.Strategy, prices data.Series) *Engine {
	return &Engine{
		cfg:    cfg,
		strat:  strat,
		prices: prices,
		costs:  NewCostModel(cfg.Costs),
	}
}

// CostModel exposes the engine's cost model, e.g. to build the strategy's
// fee estimator from the same fee schedule.
func (e *Engine) CostModel() *CostModel {
	return e.costs
}

// SetLogger attaches a run logger for the skip/rejection/warning trail.
func (e *Engine) SetLogger(l *logger.RunLogger) {
	e.log = l
}

// SetProgressFunc attaches a progress callback.
func (e *Engine) SetProgressFunc(fn ProgressFunc) {
	e.progress = fn
}

// Run executes the full simulation. Configuration and data problems are
// returned as errors before the loop starts; a panic while processing a
// day is converted into a failed-status result.
func (e *Engine) Run(ctx context.Context) (result *Result, err error) {
	result = &Result{
		Config:       e.cfg,
		StrategyName: e.strat.GetName(),
		Status:       StatusPending,
		StartedAt:    time.Now(),
	}

	if err := e.validateData(result); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("%v", r)
			result.FinishedAt = time.Now()
			err = fmt.Errorf("backtest panicked: %v", r)
			e.log.Errorf("❌ Backtest panicked: %v", r)
		}
	}()

	result.Status = StatusRunning
	ledger := NewLedger(e.cfg.InitialCapital, e.costs)
	lastPrices := make(map[string]decimal.Decimal)

	start := e.cfg.StartDate.Time
	end := e.cfg.EndDate.Time
	totalDays := int(end.Sub(start).Hours()/24) + 1

	processed := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Status = StatusFailed
			result.Error = ctxErr.Error()
			result.FinishedAt = time.Now()
			return result, ctxErr
		}

		if price, ok := e.prices.PriceOn(day); ok {
			lastPrices[e.cfg.Symbol] = price
		}

		e.processDay(result, ledger, day, lastPrices)

		result.Snapshots = append(result.Snapshots, DailySnapshot{
			Date:        day,
			Cash:        ledger.Cash(),
			MarketValue: ledger.MarketValue(lastPrices),
			TotalValue:  ledger.TotalValue(lastPrices),
		})

		processed++
		if processed%progressInterval == 0 {
			e.reportProgress(float64(processed) / float64(totalDays))
		}
	}
	e.reportProgress(1.0)

	result.SkippedPeriods = e.strat.SkippedPeriods()
	if recorder, ok := e.strat.(interface {
		Records() []strategy.InvestmentRecord
	}); ok {
		result.Records = recorder.Records()
	}
	result.Metrics = Summarize(result.Snapshots, result.Transactions, e.cfg, result.SkippedPeriods)
	result.Status = StatusCompleted
	result.FinishedAt = time.Now()
	return result, nil
}

// processDay builds the day's context, collects intents and executes them.
func (e *Engine) processDay(result *Result, ledger *Ledger, day time.Time, lastPrices map[string]decimal.Decimal) {
	sctx := e.buildContext(ledger, day, lastPrices)

	for _, sig := range e.strat.GenerateSignals(sctx) {
		if sig.Action == strategy.ActionHold {
			continue
		}
		price, ok := e.prices.PriceOn(day)
		if !ok {
			e.log.Debugf("No price for %s on %s, intent dropped", sig.Symbol, data.DayKey(day))
			continue
		}

		var tx *Transaction
		var execErr error
		switch sig.Action {
		case strategy.ActionBuy:
			amount := sig.Amount
			if amount.IsZero() && sig.Weight.IsPositive() {
				amount = sctx.PortfolioValue.Mul(sig.Weight)
			}
			tx, execErr = ledger.ExecuteBuy(day, sig.Symbol, price, amount, sig.Reason)
		case strategy.ActionSell:
			tx, execErr = ledger.ExecuteSell(day, sig.Symbol, price, sig.Quantity, sig.Reason)
		}

		if execErr != nil {
			if errors.Is(execErr, ErrInsufficientCash) || errors.Is(execErr, ErrZeroQuantity) || errors.Is(execErr, ErrNoHoldings) {
				result.RejectedTrades++
				e.log.Warnf("⚠️ %s %s rejected on %s: %v", sig.Action, sig.Symbol, data.DayKey(day), execErr)
				continue
			}
			panic(execErr)
		}

		result.Transactions = append(result.Transactions, *tx)
		e.strat.OnFill(strategy.Fill{
			Date:     tx.Date,
			Symbol:   tx.Symbol,
			Action:   tx.Action,
			Quantity: tx.Quantity,
			Price:    tx.Price,
			Amount:   tx.Amount,
		})
	}
}

func (e *Engine) buildContext(ledger *Ledger, day time.Time, lastPrices map[string]decimal.Decimal) *strategy.Context {
	holdings := make(map[string]strategy.Holding)
	for symbol, pos := range ledger.Positions() {
		value := decimal.Zero
		if price, ok := lastPrices[symbol]; ok {
			value = pos.MarketValue(price)
		}
		holdings[symbol] = strategy.Holding{
			Quantity:    pos.Quantity,
			AvgCost:     pos.AvgCost,
			MarketValue: value,
		}
	}

	prices := make(map[string]decimal.Decimal)
	if price, ok := e.prices.PriceOn(day); ok {
		prices[e.cfg.Symbol] = price
	}

	return &strategy.Context{
		Date:           day,
		Cash:           ledger.Cash(),
		PortfolioValue: ledger.TotalValue(lastPrices),
		Holdings:       holdings,
		Prices:         prices,
	}
}

// validateData fails on an empty series and records non-fatal coverage
// warnings when the data does not span the configured range.
func (e *Engine) validateData(result *Result) error {
	first, last, ok := e.prices.Bounds()
	if !ok {
		return fmt.Errorf("no price data for %s", e.cfg.Symbol)
	}
	if startKey := data.DayKey(e.cfg.StartDate.Time); first > startKey {
		warning := fmt.Sprintf("price data for %s starts %s, after configured start %s", e.cfg.Symbol, first, startKey)
		result.Warnings = append(result.Warnings, warning)
		e.log.Warnf("⚠️ %s", warning)
	}
	if endKey := data.DayKey(e.cfg.EndDate.Time); last < endKey {
		warning := fmt.Sprintf("price data for %s ends %s, before configured end %s", e.cfg.Symbol, last, endKey)
		result.Warnings = append(result.Warnings, warning)
		e.log.Warnf("⚠️ %s", warning)
	}
	return nil
}

func (e *Engine) reportProgress(fraction float64) {
	if e.progress == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	e.progress(fraction)
}
