package reporting

import (
	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/internal/backtest"
)

var hundred = decimal.NewFromInt(100)

// drawdownCurve returns the per-day drawdown fraction against the running
// peak, aligned with the snapshots.
func drawdownCurve(snapshots []backtest.DailySnapshot) []decimal.Decimal {
	curve := make([]decimal.Decimal, len(snapshots))
	if len(snapshots) == 0 {
		return curve
	}
	peak := snapshots[0].TotalValue
	for i, snap := range snapshots {
		if snap.TotalValue.GreaterThan(peak) {
			peak = snap.TotalValue
		}
		if peak.IsPositive() {
			curve[i] = peak.Sub(snap.TotalValue).Div(peak)
		} else {
			curve[i] = decimal.Zero
		}
	}
	return curve
}
