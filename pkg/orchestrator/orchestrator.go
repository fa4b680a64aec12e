package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/quantive/dca-backtest/internal/backtest"
	"github.com/quantive/dca-backtest/internal/logger"
	"github.com/quantive/dca-backtest/internal/monitoring"
	"github.com/quantive/dca-backtest/internal/strategy"
	"github.com/quantive/dca-backtest/pkg/config"
	"github.com/quantive/dca-backtest/pkg/data"
	"github.com/quantive/dca-backtest/pkg/reporting"
)

// RunOptions controls one orchestrated run.
type RunOptions struct {
	StrategyName string
	OutputDir    string
	LogDir       string
	ShowProgress bool

	// ShowTransactions prints the full trade table after the summary.
	ShowTransactions bool

	WriteJSON  bool
	WriteCSV   bool
	WriteExcel bool
}

// Orchestrator wires the registry, the data provider, the engine and the
// reporters together.
type Orchestrator struct {
	registry *strategy.Registry
	provider data.Provider
	console  *reporting.ConsoleReporter
	jsonOut  *reporting.JSONReporter
	csvOut   *reporting.CSVReporter
	excelOut *reporting.ExcelReporter
}

// New creates an orchestrator over a strategy registry and a price
// provider.
func New(registry *strategy.Registry, provider data.Provider) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		provider: provider,
		console:  reporting.NewConsoleReporter(),
		jsonOut:  reporting.NewJSONReporter(),
		csvOut:   reporting.NewCSVReporter(),
		excelOut: reporting.NewExcelReporter(),
	}
}

// RunBacktest executes one backtest end to end: load prices, build the
// strategy, run the engine, record monitoring and write reports.
func (o *Orchestrator) RunBacktest(ctx context.Context, cfg *config.BacktestConfig, opts RunOptions) (*backtest.Result, error) {
	prices, err := o.provider.LoadSeries(cfg.Symbol)
	if err != nil {
		monitoring.RecordError("data_load")
		return nil, fmt.Errorf("load price data: %w", err)
	}

	strat, err := o.buildStrategy(cfg, opts.StrategyName)
	if err != nil {
		return nil, err
	}

	engine := backtest.NewEngine(cfg, strat, prices)

	runLog, err := o.attachLogger(engine, cfg, opts)
	if err != nil {
		return nil, err
	}
	defer runLog.Close()

	if opts.ShowProgress {
		attachProgressBar(engine)
	}

	started := time.Now()
	result, err := engine.Run(ctx)
	if err != nil {
		monitoring.RecordError("run")
		monitoring.RecordRun(opts.StrategyName, string(backtest.StatusFailed), time.Since(started))
		return result, err
	}
	o.recordRun(cfg, opts.StrategyName, result, time.Since(started))

	o.console.OutputResult(result)
	if opts.ShowTransactions {
		o.console.OutputTransactions(result)
	}
	if err := o.writeReports(result, "", opts); err != nil {
		return result, err
	}
	return result, nil
}

// RunComparison executes the strategy and its buy-and-hold benchmark and
// reports both.
func (o *Orchestrator) RunComparison(ctx context.Context, cfg *config.BacktestConfig, opts RunOptions) (*backtest.ComparisonResult, error) {
	prices, err := o.provider.LoadSeries(cfg.Symbol)
	if err != nil {
		monitoring.RecordError("data_load")
		return nil, fmt.Errorf("load price data: %w", err)
	}

	started := time.Now()
	comparison, err := backtest.RunComparison(ctx, cfg, prices, func(runCfg *config.BacktestConfig) (strategy.Strategy, error) {
		return o.buildStrategy(runCfg, opts.StrategyName)
	})
	if err != nil {
		monitoring.RecordError("run")
		return nil, err
	}
	o.recordRun(cfg, opts.StrategyName, comparison.Strategy, time.Since(started))

	o.console.OutputResult(comparison.Strategy)
	o.console.OutputComparison(comparison)
	if err := o.writeReports(comparison.Strategy, "strategy", opts); err != nil {
		return comparison, err
	}
	if err := o.writeReports(comparison.Benchmark, "benchmark", opts); err != nil {
		return comparison, err
	}
	return comparison, nil
}

// buildStrategy creates a fresh strategy whose fee estimator shares the
// run's fee schedule.
func (o *Orchestrator) buildStrategy(cfg *config.BacktestConfig, name string) (strategy.Strategy, error) {
	costModel := backtest.NewCostModel(cfg.Costs)
	strat, err := o.registry.Create(name, cfg, costModel.EstimateBuyFees)
	if err != nil {
		monitoring.RecordError("strategy_build")
		return nil, err
	}
	return strat, nil
}

func (o *Orchestrator) attachLogger(engine *backtest.Engine, cfg *config.BacktestConfig, opts RunOptions) (*logger.RunLogger, error) {
	if opts.LogDir == "" {
		return nil, nil
	}
	runLog, err := logger.NewRunLogger(opts.LogDir, cfg.Symbol)
	if err != nil {
		return nil, fmt.Errorf("create run logger: %w", err)
	}
	engine.SetLogger(runLog)
	return runLog, nil
}

func (o *Orchestrator) recordRun(cfg *config.BacktestConfig, strategyName string, result *backtest.Result, elapsed time.Duration) {
	monitoring.RecordRun(strategyName, string(result.Status), elapsed)
	monitoring.RecordRejections(cfg.Symbol, result.RejectedTrades)
	monitoring.RecordSkippedPeriods(cfg.Symbol, result.SkippedPeriods)
	for _, tx := range result.Transactions {
		monitoring.RecordTrade(tx.Symbol, tx.Action.String())
	}
}

func (o *Orchestrator) writeReports(result *backtest.Result, suffix string, opts RunOptions) error {
	if opts.OutputDir == "" {
		return nil
	}
	base := result.Config.Symbol
	if suffix != "" {
		base = base + "_" + suffix
	}
	if opts.WriteJSON {
		if err := o.jsonOut.WriteResult(result, filepath.Join(opts.OutputDir, base+"_result.json")); err != nil {
			return err
		}
	}
	if opts.WriteCSV {
		if err := o.csvOut.WriteTransactions(result, filepath.Join(opts.OutputDir, base+"_transactions.csv")); err != nil {
			return err
		}
		if err := o.csvOut.WriteEquityCurve(result, filepath.Join(opts.OutputDir, base+"_equity.csv")); err != nil {
			return err
		}
	}
	if opts.WriteExcel {
		if err := o.excelOut.WriteResult(result, filepath.Join(opts.OutputDir, base+"_report.xlsx")); err != nil {
			return err
		}
	}
	return nil
}

func attachProgressBar(engine *backtest.Engine) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	engine.SetProgressFunc(func(fraction float64) {
		_ = bar.Set(int(fraction * 100))
	})
}
