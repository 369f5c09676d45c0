// Package flip sizes a buy-then-sell round trip against recent volume and a budget.
//
// Acquisition happens at the snapshot's BuyPrice and disposal at its
// SellPrice; every estimate uses that convention.
package flip

import (
	"github.com/shopspring/decimal"

	"bazaar-tracker/internal/market"
)

// MarketShare is the fraction of weekly volume one flip may move.
var MarketShare = decimal.RequireFromString("0.1")

// Estimate returns the largest safe quantity and the profit it would realise.
// Incomplete snapshots produce the zero estimate. Profit is not clamped, a
// negative value means the spread is inverted.
func Estimate(snapshot *market.SoldVolumeSnapshot, budget decimal.Decimal) market.FlipEstimate {
	if snapshot == nil {
		return market.FlipEstimate{}
	}
	if !snapshot.SellMovingWeek.IsPositive() || !snapshot.BuyPrice.IsPositive() || !snapshot.SellPrice.IsPositive() {
		return market.FlipEstimate{}
	}

	acquisition := snapshot.BuyPrice
	disposal := snapshot.SellPrice

	marketCap := snapshot.SellMovingWeek.Mul(MarketShare).Floor()

	capitalCap := decimal.Zero
	if budget.IsPositive() {
		capitalCap = budget.DivRound(acquisition, 16).Floor()
		// DivRound may round a near-integer quotient up; never overspend.
		if capitalCap.Mul(acquisition).GreaterThan(budget) {
			capitalCap = capitalCap.Sub(decimal.NewFromInt(1))
		}
	}

	qty := decimal.Min(marketCap, capitalCap)
	spread := disposal.Sub(acquisition)

	return market.FlipEstimate{
		MaxQuantity:     qty.IntPart(),
		PotentialProfit: market.RoundHalfUp(spread.Mul(qty)),
		MarketCap:       marketCap.IntPart(),
		CapitalCap:      capitalCap.IntPart(),
		UnitSpread:      spread,
	}
}

// ROI returns profit as a percentage of the capital committed, or zero when
// nothing would be bought.
func ROI(snapshot *market.SoldVolumeSnapshot, est market.FlipEstimate) decimal.Decimal {
	if snapshot == nil || est.MaxQuantity <= 0 {
		return decimal.Zero
	}
	cost := snapshot.BuyPrice.Mul(decimal.NewFromInt(est.MaxQuantity))
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return est.PotentialProfit.Div(cost).Mul(decimal.NewFromInt(100))
}
