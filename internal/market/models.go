package market

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownRange is returned by ParseRange for values outside the upstream enum.
var ErrUnknownRange = errors.New("market: unknown range")

// Range selects the history window served by the /prices endpoint.
type Range string

const (
	RangeLatest  Range = "latest"
	Range1Day    Range = "1day"
	Range1Week   Range = "1week"
	Range2Months Range = "2months"
	Range6Months Range = "6months"
	RangeAll     Range = "all"
)

// Ranges lists every supported range in ascending window size.
func Ranges() []Range {
	return []Range{RangeLatest, Range1Day, Range1Week, Range2Months, Range6Months, RangeAll}
}

// ParseRange validates a user supplied range value.
func ParseRange(v string) (Range, error) {
	candidate := Range(strings.ToLower(strings.TrimSpace(v)))
	for _, r := range Ranges() {
		if r == candidate {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, v)
}

// PricePoint is one market quote. BuyPrice/SellPrice are rounded to whole
// coins for display; the Raw fields keep upstream precision.
type PricePoint struct {
	Timestamp    time.Time
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	RawBuyPrice  decimal.Decimal
	RawSellPrice decimal.Decimal
}

// MarketEvent is a regime change such as a mayor election.
type MarketEvent struct {
	Timestamp time.Time
	Label     string
}

// AnnotatedPricePoint pairs a quote with the event in effect at its timestamp.
// GoverningEvent is nil when the quote predates every known event.
type AnnotatedPricePoint struct {
	PricePoint
	GoverningEvent *MarketEvent
}

// EventLabel returns the governing event label or an empty string.
func (p AnnotatedPricePoint) EventLabel() string {
	if p.GoverningEvent == nil {
		return ""
	}
	return p.GoverningEvent.Label
}

// SoldVolumeSnapshot summarises recent trade volume and the current quote.
type SoldVolumeSnapshot struct {
	SellMovingWeek decimal.Decimal
	BuyPrice       decimal.Decimal
	SellPrice      decimal.Decimal
	Timestamp      time.Time
}

// FlipEstimate is the bounded trade recommendation for a budget.
type FlipEstimate struct {
	MaxQuantity     int64
	PotentialProfit decimal.Decimal

	// Inputs to MaxQuantity, kept for display.
	MarketCap  int64
	CapitalCap int64
	UnitSpread decimal.Decimal
}

// IsZero reports whether the estimate recommends no trade at all.
func (e FlipEstimate) IsZero() bool {
	return e.MaxQuantity == 0 && e.PotentialProfit.IsZero()
}

var half = decimal.NewFromFloat(0.5)

// RoundHalfUp rounds to a whole unit with halves going toward +Inf, so -2.5
// becomes -2 and 2.5 becomes 3.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}
