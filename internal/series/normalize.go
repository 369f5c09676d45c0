// Package series turns raw upstream payloads into the canonical market types.
package series

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"bazaar-tracker/internal/market"
)

// RawQuote is the buy/sell pair as served by the upstream.
type RawQuote struct {
	BuyPrice  decimal.NullDecimal `json:"buyPrice"`
	SellPrice decimal.NullDecimal `json:"sellPrice"`
}

// RawPriceRow is one /prices row. The upstream has shipped the quote both
// nested under "data" and flattened under "price".
type RawPriceRow struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Data      *RawQuote       `json:"data,omitempty"`
	Price     *RawQuote       `json:"price,omitempty"`
}

// quoteAdapter extracts the quote from one known row shape.
type quoteAdapter func(row RawPriceRow) (RawQuote, bool)

// quoteAdapters are tried in order; a new upstream shape needs one new entry.
var quoteAdapters = []quoteAdapter{
	nestedDataQuote,
	flatPriceQuote,
}

func nestedDataQuote(row RawPriceRow) (RawQuote, bool) {
	if row.Data == nil || !hasAnyPrice(*row.Data) {
		return RawQuote{}, false
	}
	return *row.Data, true
}

func flatPriceQuote(row RawPriceRow) (RawQuote, bool) {
	if row.Price == nil || !hasAnyPrice(*row.Price) {
		return RawQuote{}, false
	}
	return *row.Price, true
}

func hasAnyPrice(q RawQuote) bool {
	return q.BuyPrice.Valid || q.SellPrice.Valid
}

func detectQuote(row RawPriceRow) (RawQuote, bool) {
	for _, adapt := range quoteAdapters {
		if q, ok := adapt(row); ok {
			return q, true
		}
	}
	return RawQuote{}, false
}

// Normalize maps raw rows into price points, preserving input order. Rows
// without a usable timestamp or without a recognised quote are dropped; zero
// prices are kept.
func Normalize(rows []RawPriceRow) []market.PricePoint {
	points := make([]market.PricePoint, 0, len(rows))
	for _, row := range rows {
		point, ok := NormalizeRow(row)
		if !ok {
			continue
		}
		points = append(points, point)
	}
	return points
}

// NormalizeRow converts a single row.
func NormalizeRow(row RawPriceRow) (market.PricePoint, bool) {
	ts, err := parseTimestamp(row.Timestamp)
	if err != nil {
		return market.PricePoint{}, false
	}

	quote, ok := detectQuote(row)
	if !ok {
		return market.PricePoint{}, false
	}

	buy := quote.BuyPrice.Decimal
	sell := quote.SellPrice.Decimal

	return market.PricePoint{
		Timestamp:    ts,
		BuyPrice:     market.RoundHalfUp(buy),
		SellPrice:    market.RoundHalfUp(sell),
		RawBuyPrice:  buy,
		RawSellPrice: sell,
	}, true
}
