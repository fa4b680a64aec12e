package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/pkg/config"
)

// FeeEstimator predicts the total transaction fees for deploying the given
// cash amount. The DCA strategy uses it for cost control and to leave room
// for fees when clamping the ticket to available cash.
type FeeEstimator func(amount decimal.Decimal) decimal.Decimal

// InvestmentRecord captures one executed periodic buy.
type InvestmentRecord struct {
	Date         time.Time       `json:"date"`
	Round        int             `json:"round"`
	Price        decimal.Decimal `json:"price"`
	Shares       decimal.Decimal `json:"shares"`
	Amount       decimal.Decimal `json:"amount"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

// DCAStrategy invests a fixed amount on a configured cadence and unwinds
// the position through one of four exit modes: hold forever, full sell at a
// profit target, full sell after a time limit, or staged sells at ascending
// profit levels.
//
// The cumulative bought-share count is the basis for both the profit
// calculation and staged sell sizing, so earlier partial exits do not
// depress later profit readings.
type DCAStrategy struct {
	cfg          *config.BacktestConfig
	estimateFees FeeEstimator

	invested        bool
	lastInvestDate  time.Time
	investmentCount int
	totalInvested   decimal.Decimal
	totalShares     decimal.Decimal
	pendingTarget   decimal.Decimal

	fullyExited bool
	stagesFired []bool

	skipped int
	records []InvestmentRecord
}

// NewDCAStrategy creates a DCA strategy for the configured symbol. The
// estimator may be nil, which disables fee awareness.
func NewDCAStrategy(cfg *config.BacktestConfig, estimateFees FeeEstimator) *DCAStrategy {
	if estimateFees == nil {
		estimateFees = func(decimal.Decimal) decimal.Decimal { return decimal.Zero }
	}
	return &DCAStrategy{
		cfg:          cfg,
		estimateFees: estimateFees,
		stagesFired:  make([]bool, len(cfg.Exit.Levels)),
	}
}

// GetName returns the name of the strategy.
func (s *DCAStrategy) GetName() string {
	return "DCA"
}

// GenerateSignals checks exit conditions first, then the periodic
// investment schedule. A price gap can cross several staged levels at
// once, so a single day may emit one sell per crossed level; the
// investment check still runs on tranche days and only a full exit
// silences the strategy for good.
func (s *DCAStrategy) GenerateSignals(ctx *Context) []Signal {
	if s.fullyExited {
		return nil
	}

	signals := s.checkExit(ctx)
	if !s.fullyExited {
		if sig, ok := s.checkInvestment(ctx); ok {
			signals = append(signals, sig)
		}
	}
	return signals
}

// OnFill records executed buys so the schedule and cumulative basis only
// advance on trades that actually happened. Sells leave the cumulative
// bought basis untouched.
func (s *DCAStrategy) OnFill(fill Fill) {
	if fill.Symbol != s.cfg.Symbol || fill.Action != ActionBuy {
		return
	}
	s.invested = true
	s.lastInvestDate = fill.Date
	s.investmentCount++
	s.totalInvested = s.totalInvested.Add(fill.Amount)
	s.totalShares = s.totalShares.Add(fill.Quantity)
	s.records = append(s.records, InvestmentRecord{
		Date:         fill.Date,
		Round:        s.investmentCount,
		Price:        fill.Price,
		Shares:       fill.Quantity,
		Amount:       fill.Amount,
		TargetAmount: s.pendingTarget,
	})
}

// SkippedPeriods returns how many scheduled periods were skipped for a
// too-small ticket or failed cost control.
func (s *DCAStrategy) SkippedPeriods() int {
	return s.skipped
}

// InvestmentCount returns the number of executed periodic buys.
func (s *DCAStrategy) InvestmentCount() int {
	return s.investmentCount
}

// TotalInvested returns the cumulative cash deployed into executed buys.
func (s *DCAStrategy) TotalInvested() decimal.Decimal {
	return s.totalInvested
}

// FullyExited reports whether the exit machine has closed the position for
// good.
func (s *DCAStrategy) FullyExited() bool {
	return s.fullyExited
}

// Records returns the executed investment records in order.
func (s *DCAStrategy) Records() []InvestmentRecord {
	return s.records
}

func (s *DCAStrategy) checkExit(ctx *Context) []Signal {
	if s.cfg.Exit.Strategy == config.ExitHold {
		return nil
	}
	holding, held := ctx.Holdings[s.cfg.Symbol]
	price, priced := ctx.Prices[s.cfg.Symbol]
	if !held || !priced || !holding.Quantity.IsPositive() || !s.totalInvested.IsPositive() {
		return nil
	}

	// Profit is measured on the cumulative bought basis.
	basisValue := s.totalShares.Mul(price)
	profitRate := basisValue.Sub(s.totalInvested).Div(s.totalInvested)

	switch s.cfg.Exit.Strategy {
	case config.ExitProfitTarget:
		if profitRate.GreaterThanOrEqual(s.cfg.Exit.ProfitTarget) {
			s.fullyExited = true
			return []Signal{s.fullSell(holding.Quantity,
				fmt.Sprintf("profit target %s%% reached", s.cfg.Exit.ProfitTarget.Mul(hundred)))}
		}
	case config.ExitTimeLimit:
		monthsElapsed := ctx.Date.Sub(s.cfg.StartDate.Time).Hours() / 24 / 30
		if monthsElapsed >= float64(s.cfg.Exit.TimeLimitMonths) {
			s.fullyExited = true
			return []Signal{s.fullSell(holding.Quantity,
				fmt.Sprintf("time limit of %d months reached", s.cfg.Exit.TimeLimitMonths))}
		}
	case config.ExitStaged:
		return s.checkStagedExit(holding, profitRate)
	}
	return nil
}

// checkStagedExit fires every not-yet-fired level the profit rate has
// crossed, in ascending order, so a gap through several levels sells all
// their tranches on the same day.
func (s *DCAStrategy) checkStagedExit(holding Holding, profitRate decimal.Decimal) []Signal {
	var signals []Signal
	remaining := holding.Quantity

	for i, level := range s.cfg.Exit.Levels {
		if s.stagesFired[i] || profitRate.LessThan(level) {
			continue
		}
		s.stagesFired[i] = true

		if i == len(s.cfg.Exit.Levels)-1 {
			// Last level liquidates whatever is still held.
			s.fullyExited = true
			if remaining.IsPositive() {
				signals = append(signals, s.fullSell(remaining,
					fmt.Sprintf("final exit level %s%% reached", level.Mul(hundred))))
			}
			return signals
		}

		prev := decimal.Zero
		if i > 0 {
			prev = s.cfg.Exit.Ratios[i-1]
		}
		qty := s.totalShares.Mul(s.cfg.Exit.Ratios[i].Sub(prev)).Floor()
		if qty.GreaterThan(remaining) {
			qty = remaining
		}
		if !qty.IsPositive() {
			continue
		}
		remaining = remaining.Sub(qty)
		signals = append(signals, Signal{
			Symbol:     s.cfg.Symbol,
			Action:     ActionSell,
			Quantity:   qty,
			Confidence: 1.0,
			Reason:     fmt.Sprintf("exit level %s%% reached", level.Mul(hundred)),
		})
	}
	return signals
}

func (s *DCAStrategy) fullSell(held decimal.Decimal, reason string) Signal {
	return Signal{
		Symbol:     s.cfg.Symbol,
		Action:     ActionSell,
		Quantity:   held,
		Confidence: 1.0,
		Reason:     reason,
	}
}

func (s *DCAStrategy) checkInvestment(ctx *Context) (Signal, bool) {
	if !s.investmentDue(ctx.Date) {
		return Signal{}, false
	}
	// Without a price today the period simply stays due.
	if _, priced := ctx.Prices[s.cfg.Symbol]; !priced {
		return Signal{}, false
	}

	amount := s.cfg.InvestmentAmount
	if maxByWeight := ctx.PortfolioValue.Mul(s.cfg.MaxSingleWeight); amount.GreaterThan(maxByWeight) {
		amount = maxByWeight
	}
	if amount.GreaterThan(ctx.Cash) {
		amount = ctx.Cash
	}
	fees := s.estimateFees(amount)
	if amount.Add(fees).GreaterThan(ctx.Cash) {
		amount = ctx.Cash.Sub(fees)
		fees = s.estimateFees(amount)
	}

	if amount.LessThan(config.MinInvestmentAmount) {
		s.skipped++
		return Signal{}, false
	}
	if s.cfg.EnableCostControl && fees.Div(amount).GreaterThan(s.cfg.MinCostRatio) {
		s.skipped++
		return Signal{}, false
	}

	s.pendingTarget = s.cfg.InvestmentAmount
	return Signal{
		Symbol:     s.cfg.Symbol,
		Action:     ActionBuy,
		Amount:     amount,
		Confidence: 1.0,
		Reason:     fmt.Sprintf("periodic investment #%d", s.investmentCount+1),
	}, true
}

// investmentDue implements the cadence rules. The very first investment is
// always due; monthly and quarterly cadences wait for the anchor day of a
// month (or quarter) later than the last executed buy's.
func (s *DCAStrategy) investmentDue(date time.Time) bool {
	if !s.invested {
		return true
	}
	days := int(date.Sub(s.lastInvestDate).Hours() / 24)

	switch s.cfg.Frequency {
	case config.FrequencyDaily:
		return days >= 1
	case config.FrequencyWeekly:
		return days >= 7
	case config.FrequencyMonthly:
		if date.Day() < s.cfg.InvestmentDay {
			return false
		}
		return date.Month() != s.lastInvestDate.Month() || date.Year() != s.lastInvestDate.Year()
	case config.FrequencyQuarterly:
		if date.Day() < s.cfg.InvestmentDay {
			return false
		}
		return quarterOf(date) != quarterOf(s.lastInvestDate) || date.Year() != s.lastInvestDate.Year()
	default:
		return false
	}
}

func quarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

var hundred = decimal.NewFromInt(100)
