package fetcher

import (
	"context"
	"encoding/json"

	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/series"
)

// PriceSource retrieves raw price history rows. nil means no data.
type PriceSource interface {
	FetchPrices(ctx context.Context, itemID string, r market.Range) []series.RawPriceRow
}

// SoldSource retrieves the latest sold-volume snapshot. nil means no data.
type SoldSource interface {
	FetchSold(ctx context.Context, itemID string, r market.Range) *series.RawSold
}

// EventSource retrieves the election history. nil means no data.
type EventSource interface {
	FetchElections(ctx context.Context) []series.RawElection
}

// MarketSource bundles everything an item view needs.
type MarketSource interface {
	PriceSource
	SoldSource
	EventSource
}

// RankingSource retrieves the precomputed top list as opaque rows.
type RankingSource interface {
	FetchTop(ctx context.Context, limit int) []json.RawMessage
}
