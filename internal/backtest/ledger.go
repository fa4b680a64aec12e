package backtest

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/internal/strategy"
)

// Rejection errors for individual trades. The engine absorbs these, counts
// them and moves on; they never abort a run.
var (
	ErrInsufficientCash = errors.New("insufficient cash for trade")
	ErrZeroQuantity     = errors.New("trade quantity rounds to zero")
	ErrNoHoldings       = errors.New("no holdings to sell")
)

// Position is one open holding. AvgCost is the fee-exclusive weighted
// average execution price and only changes on buys.
type Position struct {
	Symbol   string
	Quantity decimal.Decimal
	AvgCost  decimal.Decimal
}

// MarketValue values the position at the given price.
func (p Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price)
}

// Ledger tracks cash and positions with exact decimal arithmetic and
// executes trade intents against the cost model. It is the only place that
// mutates portfolio state.
type Ledger struct {
	cash      decimal.Decimal
	positions map[string]*Position
	costs     *CostModel
}

// NewLedger creates a ledger holding only the initial capital.
func NewLedger(initialCapital decimal.Decimal, costs *CostModel) *Ledger {
	return &Ledger{
		cash:      initialCapital,
		positions: make(map[string]*Position),
		costs:     costs,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Position returns a copy of the position for a symbol.
func (l *Ledger) Position(symbol string) (Position, bool) {
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() map[string]Position {
	out := make(map[string]Position, len(l.positions))
	for symbol, pos := range l.positions {
		out[symbol] = *pos
	}
	return out
}

// MarketValue sums position values at the given prices. Symbols without a
// price contribute nothing, so callers should pass last-known prices.
func (l *Ledger) MarketValue(prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for symbol, pos := range l.positions {
		if price, ok := prices[symbol]; ok {
			total = total.Add(pos.MarketValue(price))
		}
	}
	return total
}

// TotalValue is cash plus market value at the given prices.
func (l *Ledger) TotalValue(prices map[string]decimal.Decimal) decimal.Decimal {
	return l.cash.Add(l.MarketValue(prices))
}

// ExecuteBuy deploys up to targetAmount of cash into whole units at the
// slipped execution price. The traded amount is quantity x execution
// price; fees come on top and the whole trade is rejected when cash cannot
// cover both.
func (l *Ledger) ExecuteBuy(date time.Time, symbol string, refPrice, targetAmount decimal.Decimal, reason string) (*Transaction, error) {
	execPrice := l.costs.BuyPrice(refPrice)
	quantity := targetAmount.Div(execPrice).Round(0)
	if !quantity.IsPositive() {
		return nil, ErrZeroQuantity
	}

	amount := quantity.Mul(execPrice)
	fees := l.costs.BuyCosts(amount)
	totalCost := amount.Add(fees.Total)
	if totalCost.GreaterThan(l.cash) {
		return nil, ErrInsufficientCash
	}

	l.cash = l.cash.Sub(totalCost)

	pos, ok := l.positions[symbol]
	if !ok {
		l.positions[symbol] = &Position{Symbol: symbol, Quantity: quantity, AvgCost: execPrice}
	} else {
		newQuantity := pos.Quantity.Add(quantity)
		pos.AvgCost = pos.Quantity.Mul(pos.AvgCost).Add(amount).Div(newQuantity)
		pos.Quantity = newQuantity
	}

	return &Transaction{
		Date:     date,
		Symbol:   symbol,
		Action:   strategy.ActionBuy,
		Quantity: quantity,
		Price:    execPrice,
		Amount:   amount,
		Fees:     fees,
		Reason:   reason,
	}, nil
}

// ExecuteSell sells up to the requested quantity at the slipped execution
// price, capped at the held quantity. Average cost is untouched and the
// position is removed once it reaches zero.
func (l *Ledger) ExecuteSell(date time.Time, symbol string, refPrice, requestedQty decimal.Decimal, reason string) (*Transaction, error) {
	pos, ok := l.positions[symbol]
	if !ok || !pos.Quantity.IsPositive() {
		return nil, ErrNoHoldings
	}
	quantity := requestedQty
	if quantity.GreaterThan(pos.Quantity) {
		quantity = pos.Quantity
	}
	if !quantity.IsPositive() {
		return nil, ErrZeroQuantity
	}

	execPrice := l.costs.SellPrice(refPrice)
	amount := quantity.Mul(execPrice)
	fees := l.costs.SellCosts(amount)

	l.cash = l.cash.Add(amount.Sub(fees.Total))
	pos.Quantity = pos.Quantity.Sub(quantity)
	if pos.Quantity.IsZero() {
		delete(l.positions, symbol)
	}

	return &Transaction{
		Date:     date,
		Symbol:   symbol,
		Action:   strategy.ActionSell,
		Quantity: quantity,
		Price:    execPrice,
		Amount:   amount,
		Fees:     fees,
		Reason:   reason,
	}, nil
}
