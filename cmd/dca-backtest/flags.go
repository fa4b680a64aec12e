package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/pkg/config"
)

type cliFlags struct {
	configPath string
	dataDir    string

	symbol    string
	amount    string
	frequency string
	startDate string
	endDate   string
	capital   string

	strategyName string
	compare      bool

	outputDir  string
	logDir     string
	writeJSON  bool
	writeCSV   bool
	writeExcel bool

	showProgress bool
	showTrades   bool

	metricsAddr string
}

func parseFlags() *cliFlags {
	f := &cliFlags{}

	flag.StringVar(&f.configPath, "config", "", "Path to JSON backtest config (required unless all overrides are set)")
	flag.StringVar(&f.dataDir, "data", "data", "Directory with <symbol>.csv price files")

	flag.StringVar(&f.symbol, "symbol", "", "Override: symbol to backtest")
	flag.StringVar(&f.amount, "amount", "", "Override: per-period investment amount")
	flag.StringVar(&f.frequency, "frequency", "", "Override: daily, weekly, monthly or quarterly")
	flag.StringVar(&f.startDate, "start", "", "Override: start date (YYYY-MM-DD)")
	flag.StringVar(&f.endDate, "end", "", "Override: end date (YYYY-MM-DD)")
	flag.StringVar(&f.capital, "capital", "", "Override: initial capital")

	flag.StringVar(&f.strategyName, "strategy", "dca", "Strategy to run")
	flag.BoolVar(&f.compare, "compare", false, "Also run a buy-and-hold benchmark")

	flag.StringVar(&f.outputDir, "output", "results", "Directory for report files")
	flag.StringVar(&f.logDir, "logs", "", "Directory for per-run log files (empty disables)")
	flag.BoolVar(&f.writeJSON, "json", false, "Write JSON report")
	flag.BoolVar(&f.writeCSV, "csv", false, "Write CSV transaction log and equity curve")
	flag.BoolVar(&f.writeExcel, "excel", false, "Write Excel workbook")

	flag.BoolVar(&f.showProgress, "progress", true, "Show a progress bar")
	flag.BoolVar(&f.showTrades, "show-trades", false, "Print the full trade table")

	flag.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	flag.Parse()
	return f
}

// buildConfig loads the config file (when given) and applies CLI overrides
// on top, then validates once.
func (f *cliFlags) buildConfig() (*config.BacktestConfig, error) {
	cfg := config.NewDefaultConfig()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.symbol != "" {
		cfg.Symbol = f.symbol
	}
	if f.amount != "" {
		amount, err := decimal.NewFromString(f.amount)
		if err != nil {
			return nil, fmt.Errorf("invalid -amount %q: %w", f.amount, err)
		}
		cfg.InvestmentAmount = amount
	}
	if f.frequency != "" {
		cfg.Frequency = config.Frequency(f.frequency)
	}
	if f.startDate != "" {
		start, err := time.Parse("2006-01-02", f.startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid -start %q: %w", f.startDate, err)
		}
		cfg.StartDate = config.Date{Time: start}
	}
	if f.endDate != "" {
		end, err := time.Parse("2006-01-02", f.endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid -end %q: %w", f.endDate, err)
		}
		cfg.EndDate = config.Date{Time: end}
	}
	if f.capital != "" {
		capital, err := decimal.NewFromString(f.capital)
		if err != nil {
			return nil, fmt.Errorf("invalid -capital %q: %w", f.capital, err)
		}
		cfg.InitialCapital = capital
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
