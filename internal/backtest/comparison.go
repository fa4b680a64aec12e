package backtest

import (
	"context"
	"fmt"

	"github.com/quantive/dca-backtest/internal/strategy"
	"github.com/quantive/dca-backtest/pkg/config"
	"github.com/quantive/dca-backtest/pkg/data"
)

// ComparisonResult pairs a strategy run with its buy-and-hold benchmark
// over the same price data.
type ComparisonResult struct {
	Strategy  *Result `json:"strategy"`
	Benchmark *Result `json:"benchmark"`
}

// StrategyBuilder creates a fresh strategy instance for a config. Each run
// in a comparison needs its own instance because strategies are stateful.
type StrategyBuilder func(cfg *config.BacktestConfig) (strategy.Strategy, error)

// RunComparison executes the configured strategy and a forced-hold variant
// of it sequentially and returns both results.
func RunComparison(ctx context.Context, cfg *config.BacktestConfig, prices data.Series, build StrategyBuilder) (*ComparisonResult, error) {
	strategyResult, err := runOne(ctx, cfg, prices, build)
	if err != nil {
		return nil, fmt.Errorf("strategy run: %w", err)
	}

	benchmarkCfg := cfg.WithExit(config.ExitConfig{Strategy: config.ExitHold})
	benchmarkResult, err := runOne(ctx, benchmarkCfg, prices, build)
	if err != nil {
		return nil, fmt.Errorf("benchmark run: %w", err)
	}

	return &ComparisonResult{Strategy: strategyResult, Benchmark: benchmarkResult}, nil
}

func runOne(ctx context.Context, cfg *config.BacktestConfig, prices data.Series, build StrategyBuilder) (*Result, error) {
	strat, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return NewEngine(cfg, strat, prices).Run(ctx)
}
