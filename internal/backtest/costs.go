package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/quantive/dca-backtest/pkg/config"
)

// CostBreakdown itemizes the fees of one trade. Each component is rounded
// to cents before Total is summed.
type CostBreakdown struct {
	Commission  decimal.Decimal `json:"commission"`
	StampDuty   decimal.Decimal `json:"stamp_duty"`
	TransferFee decimal.Decimal `json:"transfer_fee"`
	Total       decimal.Decimal `json:"total"`
}

// CostModel prices the fees and slippage of trades from a fee schedule.
type CostModel struct {
	costs config.TradingCosts
}

// NewCostModel creates a cost model from the given fee schedule.
func NewCostModel(costs config.TradingCosts) *CostModel {
	return &CostModel{costs: costs}
}

// BuyCosts returns the fees for buying the given gross amount: floored
// commission plus transfer fee. No stamp duty on buys.
func (m *CostModel) BuyCosts(amount decimal.Decimal) CostBreakdown {
	return m.breakdown(amount, false)
}

// SellCosts returns the fees for selling the given gross amount: floored
// commission, stamp duty and transfer fee.
func (m *CostModel) SellCosts(amount decimal.Decimal) CostBreakdown {
	return m.breakdown(amount, true)
}

func (m *CostModel) breakdown(amount decimal.Decimal, sell bool) CostBreakdown {
	commission := amount.Mul(m.costs.CommissionRate)
	if commission.LessThan(m.costs.MinCommission) {
		commission = m.costs.MinCommission
	}
	commission = commission.Round(2)

	stampDuty := decimal.Zero
	if sell {
		stampDuty = amount.Mul(m.costs.StampDutyRate).Round(2)
	}
	transferFee := amount.Mul(m.costs.TransferFeeRate).Round(2)

	return CostBreakdown{
		Commission:  commission,
		StampDuty:   stampDuty,
		TransferFee: transferFee,
		Total:       commission.Add(stampDuty).Add(transferFee),
	}
}

// BuyPrice applies slippage against a buyer: reference x (1 + rate).
func (m *CostModel) BuyPrice(reference decimal.Decimal) decimal.Decimal {
	return reference.Mul(decimal.NewFromInt(1).Add(m.costs.SlippageRate))
}

// SellPrice applies slippage against a seller: reference x (1 - rate).
func (m *CostModel) SellPrice(reference decimal.Decimal) decimal.Decimal {
	return reference.Mul(decimal.NewFromInt(1).Sub(m.costs.SlippageRate))
}

// EstimateBuyFees is a strategy.FeeEstimator over this model.
func (m *CostModel) EstimateBuyFees(amount decimal.Decimal) decimal.Decimal {
	return m.BuyCosts(amount).Total
}
