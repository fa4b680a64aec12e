package strategy

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a read-only view of one position inside a Context.
type Holding struct {
	Quantity    decimal.Decimal
	AvgCost     decimal.Decimal
	MarketValue decimal.Decimal
}

// Context is the point-in-time view a strategy decides from. It is rebuilt
// by the engine every simulated day and must never be mutated by the
// strategy.
type Context struct {
	Date           time.Time
	Cash           decimal.Decimal
	PortfolioValue decimal.Decimal
	Holdings       map[string]Holding

	// Prices holds the reference price of each symbol that has one on
	// this calendar day. Absent symbols cannot trade today.
	Prices map[string]decimal.Decimal
}

// Signal is a trade intent emitted by a strategy. Exactly one of Amount
// (cash to deploy, buys) or Quantity (shares, sells) is set; Weight is an
// alternative buy sizing as a fraction of portfolio value.
type Signal struct {
	Symbol     string
	Action     Action
	Quantity   decimal.Decimal
	Amount     decimal.Decimal
	Weight     decimal.Decimal
	Confidence float64
	Reason     string
	Metadata   map[string]string
}

// Fill reports an executed trade back to the strategy. Amount is the gross
// traded amount (quantity x execution price), before fees.
type Fill struct {
	Date     time.Time
	Symbol   string
	Action   Action
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Amount   decimal.Decimal
}

// Strategy is the decision engine driven by the simulation loop. It never
// touches the ledger directly; it only emits intents and hears about the
// fills that actually executed.
type Strategy interface {
	// GetName returns the name of the strategy.
	GetName() string

	// GenerateSignals inspects the day's context and returns zero or
	// more trade intents.
	GenerateSignals(ctx *Context) []Signal

	// OnFill notifies the strategy that one of its intents executed.
	// Rejected intents produce no call.
	OnFill(fill Fill)

	// SkippedPeriods returns how many scheduled investment periods the
	// strategy chose to skip (too small a ticket, cost control, ...).
	SkippedPeriods() int
}

// Action represents the type of trading action.
type Action int

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
)

// MarshalJSON emits the action name so reports stay readable.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a Action) String() string {
	switch a {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}
