package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantive/dca-backtest/pkg/config"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dcaConfig() *config.BacktestConfig {
	cfg := config.NewDefaultConfig()
	cfg.Symbol = "TEST"
	cfg.InvestmentAmount = dec("1000")
	cfg.InitialCapital = dec("10000")
	cfg.StartDate = config.NewDate(2023, time.January, 1)
	cfg.EndDate = config.NewDate(2023, time.December, 31)
	cfg.MaxSingleWeight = dec("1")
	return cfg
}

func dayContext(day time.Time, cash string, price string) *Context {
	ctx := &Context{
		Date:           day,
		Cash:           dec(cash),
		PortfolioValue: dec(cash),
		Holdings:       map[string]Holding{},
		Prices:         map[string]decimal.Decimal{},
	}
	if price != "" {
		ctx.Prices["TEST"] = dec(price)
	}
	return ctx
}

func fillBuy(day time.Time, qty, price string) Fill {
	q, p := dec(qty), dec(price)
	return Fill{Date: day, Symbol: "TEST", Action: ActionBuy, Quantity: q, Price: p, Amount: q.Mul(p)}
}

func TestDCAStrategy_FirstInvestmentAlwaysDue(t *testing.T) {
	cfg := dcaConfig()
	cfg.Frequency = config.FrequencyMonthly
	cfg.InvestmentDay = 15
	s := NewDCAStrategy(cfg, nil)

	// Day 3 is before the anchor day, but no investment exists yet
	signals := s.GenerateSignals(dayContext(time.Date(2023, time.January, 3, 0, 0, 0, 0, time.UTC), "10000", "10"))
	require.Len(t, signals, 1)
	assert.Equal(t, ActionBuy, signals[0].Action)
	assert.True(t, signals[0].Amount.Equal(dec("1000")))
}

func TestDCAStrategy_Cadence(t *testing.T) {
	lastInvest := time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency config.Frequency
		day       time.Time
		due       bool
	}{
		{"daily next day", config.FrequencyDaily, lastInvest.AddDate(0, 0, 1), true},
		{"daily same day", config.FrequencyDaily, lastInvest, false},
		{"weekly after six days", config.FrequencyWeekly, lastInvest.AddDate(0, 0, 6), false},
		{"weekly after seven days", config.FrequencyWeekly, lastInvest.AddDate(0, 0, 7), true},
		{"monthly same month", config.FrequencyMonthly, time.Date(2023, time.March, 28, 0, 0, 0, 0, time.UTC), false},
		{"monthly next month before anchor", config.FrequencyMonthly, time.Date(2023, time.April, 4, 0, 0, 0, 0, time.UTC), false},
		{"monthly next month on anchor", config.FrequencyMonthly, time.Date(2023, time.April, 5, 0, 0, 0, 0, time.UTC), true},
		{"quarterly same quarter", config.FrequencyQuarterly, time.Date(2023, time.February, 20, 0, 0, 0, 0, time.UTC), false},
		{"quarterly next quarter", config.FrequencyQuarterly, time.Date(2023, time.April, 6, 0, 0, 0, 0, time.UTC), true},
		{"quarterly next year", config.FrequencyQuarterly, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dcaConfig()
			cfg.Frequency = tt.frequency
			cfg.InvestmentDay = 5
			s := NewDCAStrategy(cfg, nil)
			s.OnFill(fillBuy(lastInvest, "100", "10"))

			// Quarterly test uses a last investment in Q1
			if tt.frequency == config.FrequencyQuarterly {
				s.lastInvestDate = time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
			}

			assert.Equal(t, tt.due, s.investmentDue(tt.day))
		})
	}
}

func TestDCAStrategy_ClampsToWeightAndCash(t *testing.T) {
	cfg := dcaConfig()
	cfg.MaxSingleWeight = dec("0.05")
	s := NewDCAStrategy(cfg, nil)

	ctx := dayContext(time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC), "10000", "10")
	signals := s.GenerateSignals(ctx)

	require.Len(t, signals, 1)
	assert.True(t, signals[0].Amount.Equal(dec("500")), "5%% of 10000, got %s", signals[0].Amount)
}

func TestDCAStrategy_SkipsBelowMinimumTicket(t *testing.T) {
	cfg := dcaConfig()
	s := NewDCAStrategy(cfg, nil)

	ctx := dayContext(time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC), "80", "10")
	signals := s.GenerateSignals(ctx)

	assert.Empty(t, signals)
	assert.Equal(t, 1, s.SkippedPeriods())
}

func TestDCAStrategy_CostControlSkip(t *testing.T) {
	cfg := dcaConfig()
	cfg.EnableCostControl = true
	cfg.MinCostRatio = dec("0.01")
	// Flat 20 in fees makes a 1000 ticket cost 2%
	s := NewDCAStrategy(cfg, func(decimal.Decimal) decimal.Decimal { return dec("20") })

	ctx := dayContext(time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC), "10000", "10")
	signals := s.GenerateSignals(ctx)

	assert.Empty(t, signals)
	assert.Equal(t, 1, s.SkippedPeriods())
}

func TestDCAStrategy_NoPriceKeepsPeriodDue(t *testing.T) {
	cfg := dcaConfig()
	s := NewDCAStrategy(cfg, nil)

	day := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, s.GenerateSignals(dayContext(day, "10000", "")))
	assert.Zero(t, s.SkippedPeriods(), "a missing price is not a skip")

	signals := s.GenerateSignals(dayContext(day.AddDate(0, 0, 1), "10000", "10"))
	assert.Len(t, signals, 1)
}

func TestDCAStrategy_ScheduleAdvancesOnFillOnly(t *testing.T) {
	cfg := dcaConfig()
	cfg.Frequency = config.FrequencyDaily
	s := NewDCAStrategy(cfg, nil)

	day := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)
	require.Len(t, s.GenerateSignals(dayContext(day, "10000", "10")), 1)

	// Not filled: the same day stays due
	require.Len(t, s.GenerateSignals(dayContext(day, "10000", "10")), 1)

	s.OnFill(fillBuy(day, "100", "10"))
	assert.Empty(t, s.GenerateSignals(dayContext(day, "10000", "10")))
	assert.Equal(t, 1, s.InvestmentCount())
	assert.True(t, s.TotalInvested().Equal(dec("1000")))
}

func TestDCAStrategy_TimeLimitExit(t *testing.T) {
	cfg := dcaConfig()
	cfg.InvestmentDay = 28
	cfg.Exit = config.ExitConfig{Strategy: config.ExitTimeLimit, TimeLimitMonths: 3}
	s := NewDCAStrategy(cfg, nil)
	s.OnFill(fillBuy(cfg.StartDate.Time, "100", "10"))

	held := Holding{Quantity: dec("100"), AvgCost: dec("10"), MarketValue: dec("1000")}

	early := dayContext(cfg.StartDate.AddDate(0, 0, 60), "9000", "10")
	early.Holdings["TEST"] = held
	assert.Empty(t, s.GenerateSignals(early), "two months in, no exit yet")

	// 3 months x 30 days
	late := dayContext(cfg.StartDate.AddDate(0, 0, 90), "9000", "10")
	late.Holdings["TEST"] = held
	signals := s.GenerateSignals(late)
	require.Len(t, signals, 1)
	assert.Equal(t, ActionSell, signals[0].Action)
	assert.True(t, signals[0].Quantity.Equal(dec("100")))
	assert.True(t, s.FullyExited())

	// Silenced for good
	assert.Empty(t, s.GenerateSignals(late))
}

func TestDCAStrategy_StagedLevelsFireOnceEach(t *testing.T) {
	cfg := dcaConfig()
	cfg.InvestmentDay = 28
	cfg.Exit = config.ExitConfig{
		Strategy: config.ExitStaged,
		Levels:   []decimal.Decimal{dec("0.1"), dec("0.3")},
		Ratios:   []decimal.Decimal{dec("0.5"), dec("1.0")},
	}
	s := NewDCAStrategy(cfg, nil)
	s.OnFill(fillBuy(cfg.StartDate.Time, "100", "10"))

	day := cfg.StartDate.AddDate(0, 1, 0)
	ctx := dayContext(day, "9000", "11.5")
	ctx.Holdings["TEST"] = Holding{Quantity: dec("100"), AvgCost: dec("10"), MarketValue: dec("1150")}

	signals := s.GenerateSignals(ctx)
	require.Len(t, signals, 1)
	assert.True(t, signals[0].Quantity.Equal(dec("50")))
	assert.False(t, s.FullyExited())

	// Same price again: the fired level stays quiet
	assert.Empty(t, s.GenerateSignals(ctx))
}

func TestDCAStrategy_StagedGapFiresAllCrossedLevels(t *testing.T) {
	cfg := dcaConfig()
	cfg.InvestmentDay = 28
	cfg.Exit = config.ExitConfig{
		Strategy: config.ExitStaged,
		Levels:   []decimal.Decimal{dec("0.1"), dec("0.2"), dec("0.3")},
		Ratios:   []decimal.Decimal{dec("0.3"), dec("0.5"), dec("1.0")},
	}
	s := NewDCAStrategy(cfg, nil)
	s.OnFill(fillBuy(cfg.StartDate.Time, "100", "10"))

	// A +40% gap crosses all three levels at once
	ctx := dayContext(cfg.StartDate.AddDate(0, 0, 1), "9000", "14")
	ctx.Holdings["TEST"] = Holding{Quantity: dec("100"), AvgCost: dec("10"), MarketValue: dec("1400")}

	signals := s.GenerateSignals(ctx)
	require.Len(t, signals, 3)
	assert.True(t, signals[0].Quantity.Equal(dec("30")))
	assert.True(t, signals[1].Quantity.Equal(dec("20")))
	assert.True(t, signals[2].Quantity.Equal(dec("50")), "final tranche liquidates the rest")
	for _, sig := range signals {
		assert.Equal(t, ActionSell, sig.Action)
	}
	assert.True(t, s.FullyExited())
	assert.Empty(t, s.GenerateSignals(ctx))
}

func TestDCAStrategy_TrancheDayStillInvests(t *testing.T) {
	cfg := dcaConfig()
	cfg.Exit = config.ExitConfig{
		Strategy: config.ExitStaged,
		Levels:   []decimal.Decimal{dec("0.1"), dec("0.3")},
		Ratios:   []decimal.Decimal{dec("0.5"), dec("1.0")},
	}
	s := NewDCAStrategy(cfg, nil)
	s.OnFill(fillBuy(cfg.StartDate.Time, "100", "10"))

	// The monthly buy falls due on the same day the first level fires
	day := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
	ctx := dayContext(day, "9000", "11.5")
	ctx.Holdings["TEST"] = Holding{Quantity: dec("100"), AvgCost: dec("10"), MarketValue: dec("1150")}

	signals := s.GenerateSignals(ctx)
	require.Len(t, signals, 2)
	assert.Equal(t, ActionSell, signals[0].Action)
	assert.True(t, signals[0].Quantity.Equal(dec("50")))
	assert.Equal(t, ActionBuy, signals[1].Action)
	assert.True(t, signals[1].Amount.Equal(dec("1000")))
	assert.False(t, s.FullyExited())
}

func TestDCAStrategy_FeeHeadroomRecomputedAfterClamp(t *testing.T) {
	cfg := dcaConfig()
	cfg.EnableCostControl = true
	cfg.MinCostRatio = dec("0.01")
	// Proportional fees: 1% of the deployed amount
	s := NewDCAStrategy(cfg, func(amount decimal.Decimal) decimal.Decimal {
		return amount.Mul(dec("0.01"))
	})

	// 1000 + 10 in fees exceeds the 1000 on hand, so the ticket clamps
	// to 990; its recomputed 9.90 fee sits exactly at the 1% ratio
	ctx := dayContext(time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC), "1000", "10")
	signals := s.GenerateSignals(ctx)

	require.Len(t, signals, 1)
	assert.True(t, signals[0].Amount.Equal(dec("990")), "amount = %s", signals[0].Amount)
	assert.Zero(t, s.SkippedPeriods(), "a stale pre-clamp estimate would skip here")
}

func TestRegistry(t *testing.T) {
	registry := DefaultRegistry()
	assert.Equal(t, []string{"dca"}, registry.Names())

	cfg := dcaConfig()
	strat, err := registry.Create("dca", cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "DCA", strat.GetName())

	_, err = registry.Create("momentum", cfg, nil)
	assert.Error(t, err)

	err = registry.Register("dca", func(*config.BacktestConfig, FeeEstimator) (Strategy, error) {
		return nil, nil
	})
	assert.Error(t, err, "duplicate registration must fail")
}
