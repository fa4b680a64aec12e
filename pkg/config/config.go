package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the investment cadence of a periodic strategy.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Valid reports whether the frequency is one of the supported cadences.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// ExitStrategy selects how a position is unwound.
type ExitStrategy string

const (
	ExitHold         ExitStrategy = "hold"
	ExitProfitTarget ExitStrategy = "profit_target"
	ExitTimeLimit    ExitStrategy = "time_limit"
	ExitStaged       ExitStrategy = "staged"
)

// Valid reports whether the exit strategy is supported.
func (e ExitStrategy) Valid() bool {
	switch e {
	case ExitHold, ExitProfitTarget, ExitTimeLimit, ExitStaged:
		return true
	}
	return false
}

// Default cost and sizing parameters. Rates are fractions, amounts are in
// account currency.
var (
	DefaultCommissionRate  = decimal.RequireFromString("0.0003")
	DefaultMinCommission   = decimal.RequireFromString("5.0")
	DefaultStampDutyRate   = decimal.RequireFromString("0.001")
	DefaultTransferFeeRate = decimal.RequireFromString("0.00002")
	DefaultSlippageRate    = decimal.RequireFromString("0.001")
	DefaultMaxSingleWeight = decimal.RequireFromString("0.1")
	DefaultMinCostRatio    = decimal.RequireFromString("0.01")

	// MinInvestmentAmount is the smallest ticket worth placing; clamped
	// amounts below it become counted skips.
	MinInvestmentAmount = decimal.RequireFromString("100")

	// MaxAmountCapitalFraction caps the per-period amount relative to
	// initial capital.
	MaxAmountCapitalFraction = decimal.RequireFromString("0.5")
)

const (
	DefaultInvestmentDay   = 1
	DefaultTimeLimitMonths = 36

	dateLayout = "2006-01-02"
)

// Date is a calendar day that marshals as "YYYY-MM-DD" in JSON.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", raw, err)
	}
	d.Time = parsed
	return nil
}

// TradingCosts holds the per-trade fee schedule. Commission applies to both
// sides with a floor, stamp duty only to sells, the transfer fee to both
// sides. Slippage shifts the execution price against the trade.
type TradingCosts struct {
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	MinCommission   decimal.Decimal `json:"min_commission"`
	StampDutyRate   decimal.Decimal `json:"stamp_duty_rate"`
	TransferFeeRate decimal.Decimal `json:"transfer_fee_rate"`
	SlippageRate    decimal.Decimal `json:"slippage_rate"`
}

// DefaultTradingCosts returns the default fee schedule.
func DefaultTradingCosts() TradingCosts {
	return TradingCosts{
		CommissionRate:  DefaultCommissionRate,
		MinCommission:   DefaultMinCommission,
		StampDutyRate:   DefaultStampDutyRate,
		TransferFeeRate: DefaultTransferFeeRate,
		SlippageRate:    DefaultSlippageRate,
	}
}

// ExitConfig parameterizes the exit state machine. ProfitTarget and Levels
// are profit fractions (0.2 means +20%); Ratios are cumulative sell
// fractions ending at 1.0.
type ExitConfig struct {
	Strategy        ExitStrategy      `json:"strategy"`
	ProfitTarget    decimal.Decimal   `json:"profit_target,omitempty"`
	TimeLimitMonths int               `json:"time_limit_months,omitempty"`
	Levels          []decimal.Decimal `json:"levels,omitempty"`
	Ratios          []decimal.Decimal `json:"ratios,omitempty"`
}

// BacktestConfig is the full, validated parameter set for one run.
type BacktestConfig struct {
	Symbol           string          `json:"symbol"`
	InvestmentAmount decimal.Decimal `json:"investment_amount"`
	Frequency        Frequency       `json:"frequency"`
	InvestmentDay    int             `json:"investment_day"`
	StartDate        Date            `json:"start_date"`
	EndDate          Date            `json:"end_date"`
	InitialCapital   decimal.Decimal `json:"initial_capital"`

	Costs TradingCosts `json:"costs"`

	MaxSingleWeight   decimal.Decimal `json:"max_single_weight"`
	EnableCostControl bool            `json:"enable_cost_control"`
	MinCostRatio      decimal.Decimal `json:"min_cost_ratio"`

	RiskFreeRate decimal.Decimal `json:"risk_free_rate"`

	Exit ExitConfig `json:"exit"`
}

// NewDefaultConfig returns a config with every defaultable field filled.
// Symbol, dates, amount and capital still need to be set by the caller.
func NewDefaultConfig() *BacktestConfig {
	return &BacktestConfig{
		Frequency:         FrequencyMonthly,
		InvestmentDay:     DefaultInvestmentDay,
		Costs:             DefaultTradingCosts(),
		MaxSingleWeight:   DefaultMaxSingleWeight,
		EnableCostControl: false,
		MinCostRatio:      DefaultMinCostRatio,
		RiskFreeRate:      decimal.Zero,
		Exit:              ExitConfig{Strategy: ExitHold},
	}
}

// Load reads a JSON config file over the defaults and validates it.
func Load(path string) (*BacktestConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := NewDefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the whole parameter set once, so the engine can trust
// every field afterwards.
func (c *BacktestConfig) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if !c.EndDate.After(c.StartDate.Time) {
		return fmt.Errorf("end_date must be after start_date")
	}
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("initial_capital must be positive")
	}
	if c.InvestmentAmount.LessThan(MinInvestmentAmount) {
		return fmt.Errorf("investment_amount must be at least %s", MinInvestmentAmount)
	}
	if c.InvestmentAmount.GreaterThan(c.InitialCapital.Mul(MaxAmountCapitalFraction)) {
		return fmt.Errorf("investment_amount must not exceed %s%% of initial capital",
			MaxAmountCapitalFraction.Mul(decimal.NewFromInt(100)))
	}
	if !c.Frequency.Valid() {
		return fmt.Errorf("unsupported frequency %q", c.Frequency)
	}
	if c.InvestmentDay < 1 || c.InvestmentDay > 28 {
		return fmt.Errorf("investment_day must be between 1 and 28, got %d", c.InvestmentDay)
	}
	if c.MaxSingleWeight.IsNegative() || c.MaxSingleWeight.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("max_single_weight must be within [0, 1]")
	}
	if err := validateCosts(c.Costs); err != nil {
		return err
	}
	if c.MinCostRatio.IsNegative() {
		return fmt.Errorf("min_cost_ratio must not be negative")
	}
	return c.validateExit()
}

func validateCosts(costs TradingCosts) error {
	rates := map[string]decimal.Decimal{
		"commission_rate":   costs.CommissionRate,
		"min_commission":    costs.MinCommission,
		"stamp_duty_rate":   costs.StampDutyRate,
		"transfer_fee_rate": costs.TransferFeeRate,
		"slippage_rate":     costs.SlippageRate,
	}
	for name, rate := range rates {
		if rate.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func (c *BacktestConfig) validateExit() error {
	if !c.Exit.Strategy.Valid() {
		return fmt.Errorf("unsupported exit strategy %q", c.Exit.Strategy)
	}
	switch c.Exit.Strategy {
	case ExitProfitTarget:
		if !c.Exit.ProfitTarget.IsPositive() {
			return fmt.Errorf("profit_target must be positive")
		}
	case ExitTimeLimit:
		if c.Exit.TimeLimitMonths <= 0 {
			return fmt.Errorf("time_limit_months must be positive")
		}
	case ExitStaged:
		if len(c.Exit.Levels) == 0 || len(c.Exit.Levels) != len(c.Exit.Ratios) {
			return fmt.Errorf("staged exit needs matching non-empty levels and ratios")
		}
		one := decimal.NewFromInt(1)
		for i := range c.Exit.Levels {
			if i > 0 {
				if c.Exit.Levels[i].LessThanOrEqual(c.Exit.Levels[i-1]) {
					return fmt.Errorf("staged exit levels must be strictly ascending")
				}
				if c.Exit.Ratios[i].LessThanOrEqual(c.Exit.Ratios[i-1]) {
					return fmt.Errorf("staged exit ratios must be strictly ascending")
				}
			}
			if !c.Exit.Ratios[i].IsPositive() || c.Exit.Ratios[i].GreaterThan(one) {
				return fmt.Errorf("staged exit ratios must be within (0, 1]")
			}
		}
		if !c.Exit.Ratios[len(c.Exit.Ratios)-1].Equal(one) {
			return fmt.Errorf("staged exit ratios must end at 1.0")
		}
	}
	return nil
}

// WithExit returns a copy of the config with a different exit strategy.
// Used for benchmark runs that force a plain hold.
func (c *BacktestConfig) WithExit(exit ExitConfig) *BacktestConfig {
	clone := *c
	clone.Exit = exit
	return &clone
}
