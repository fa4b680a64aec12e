package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validConfig() *BacktestConfig {
	cfg := NewDefaultConfig()
	cfg.Symbol = "510300"
	cfg.InvestmentAmount = dec("1000")
	cfg.InitialCapital = dec("10000")
	cfg.StartDate = NewDate(2023, time.January, 1)
	cfg.EndDate = NewDate(2023, time.December, 31)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *BacktestConfig)
		wantErr string
	}{
		{"valid", func(cfg *BacktestConfig) {}, ""},
		{"missing symbol", func(cfg *BacktestConfig) { cfg.Symbol = "" }, "symbol"},
		{"end before start", func(cfg *BacktestConfig) {
			cfg.EndDate = NewDate(2022, time.January, 1)
		}, "end_date"},
		{"zero capital", func(cfg *BacktestConfig) { cfg.InitialCapital = decimal.Zero }, "initial_capital"},
		{"amount below minimum ticket", func(cfg *BacktestConfig) {
			cfg.InvestmentAmount = dec("99")
		}, "investment_amount"},
		{"amount above half the capital", func(cfg *BacktestConfig) {
			cfg.InvestmentAmount = dec("5001")
		}, "investment_amount"},
		{"bad frequency", func(cfg *BacktestConfig) { cfg.Frequency = "fortnightly" }, "frequency"},
		{"investment day too low", func(cfg *BacktestConfig) { cfg.InvestmentDay = 0 }, "investment_day"},
		{"investment day too high", func(cfg *BacktestConfig) { cfg.InvestmentDay = 29 }, "investment_day"},
		{"negative commission", func(cfg *BacktestConfig) {
			cfg.Costs.CommissionRate = dec("-0.01")
		}, "commission_rate"},
		{"weight above one", func(cfg *BacktestConfig) { cfg.MaxSingleWeight = dec("1.5") }, "max_single_weight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateExit(t *testing.T) {
	tests := []struct {
		name    string
		exit    ExitConfig
		wantErr bool
	}{
		{"hold", ExitConfig{Strategy: ExitHold}, false},
		{"profit target", ExitConfig{Strategy: ExitProfitTarget, ProfitTarget: dec("0.2")}, false},
		{"profit target missing", ExitConfig{Strategy: ExitProfitTarget}, true},
		{"time limit", ExitConfig{Strategy: ExitTimeLimit, TimeLimitMonths: 36}, false},
		{"time limit zero", ExitConfig{Strategy: ExitTimeLimit}, true},
		{"unknown strategy", ExitConfig{Strategy: "liquidate"}, true},
		{
			"staged valid",
			ExitConfig{
				Strategy: ExitStaged,
				Levels:   []decimal.Decimal{dec("0.1"), dec("0.2"), dec("0.3")},
				Ratios:   []decimal.Decimal{dec("0.3"), dec("0.5"), dec("1.0")},
			},
			false,
		},
		{
			"staged length mismatch",
			ExitConfig{
				Strategy: ExitStaged,
				Levels:   []decimal.Decimal{dec("0.1"), dec("0.2")},
				Ratios:   []decimal.Decimal{dec("1.0")},
			},
			true,
		},
		{
			"staged levels not ascending",
			ExitConfig{
				Strategy: ExitStaged,
				Levels:   []decimal.Decimal{dec("0.2"), dec("0.1")},
				Ratios:   []decimal.Decimal{dec("0.5"), dec("1.0")},
			},
			true,
		},
		{
			"staged ratios not ending at one",
			ExitConfig{
				Strategy: ExitStaged,
				Levels:   []decimal.Decimal{dec("0.1"), dec("0.2")},
				Ratios:   []decimal.Decimal{dec("0.3"), dec("0.9")},
			},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Exit = tt.exit
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	raw := `{
		"symbol": "510300",
		"investment_amount": "1000",
		"frequency": "monthly",
		"investment_day": 10,
		"start_date": "2023-01-01",
		"end_date": "2023-12-31",
		"initial_capital": "20000",
		"exit": {"strategy": "profit_target", "profit_target": "0.25"}
	}`
	path := filepath.Join(t.TempDir(), "backtest.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "510300", cfg.Symbol)
	assert.Equal(t, FrequencyMonthly, cfg.Frequency)
	assert.Equal(t, 10, cfg.InvestmentDay)
	assert.True(t, cfg.InvestmentAmount.Equal(dec("1000")))
	assert.Equal(t, ExitProfitTarget, cfg.Exit.Strategy)
	assert.True(t, cfg.Exit.ProfitTarget.Equal(dec("0.25")))

	// Defaults survive fields the file does not set
	assert.True(t, cfg.Costs.CommissionRate.Equal(DefaultCommissionRate))
	assert.True(t, cfg.MaxSingleWeight.Equal(DefaultMaxSingleWeight))
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	raw := `{"symbol": "", "investment_amount": "1000"}`
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Day Date `json:"day"`
	}
	original := wrapper{Day: NewDate(2023, time.June, 15)}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2023-06-15"}`, string(raw))

	var decoded wrapper
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Day.Equal(original.Day.Time))

	var bad wrapper
	assert.Error(t, json.Unmarshal([]byte(`{"day":"15/06/2023"}`), &bad))
}

func TestWithExit(t *testing.T) {
	cfg := validConfig()
	cfg.Exit = ExitConfig{Strategy: ExitProfitTarget, ProfitTarget: dec("0.2")}

	clone := cfg.WithExit(ExitConfig{Strategy: ExitHold})

	assert.Equal(t, ExitHold, clone.Exit.Strategy)
	assert.Equal(t, ExitProfitTarget, cfg.Exit.Strategy, "original must be untouched")
	assert.Equal(t, cfg.Symbol, clone.Symbol)
}
