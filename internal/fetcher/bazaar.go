package fetcher

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/series"
)

// Bazaar reads the tracker API: /prices, /sold, /elections and /top.
type Bazaar struct {
	client *Client
	logger zerolog.Logger
}

// NewBazaar wraps a client with the tracker endpoints.
func NewBazaar(client *Client, logger zerolog.Logger) *Bazaar {
	return &Bazaar{client: client, logger: logger.With().Str("component", "bazaar_api").Logger()}
}

// FetchPrices implements PriceSource.
func (b *Bazaar) FetchPrices(ctx context.Context, itemID string, r market.Range) []series.RawPriceRow {
	if r == "" {
		r = market.RangeAll
	}
	query := url.Values{"range": {string(r)}}
	rows := FetchWithRetry[[]series.RawPriceRow](ctx, b.client, "/prices/"+url.PathEscape(itemID), query, NonEmpty[series.RawPriceRow])
	if rows == nil {
		return nil
	}
	b.logger.Debug().Str("item", itemID).Str("range", string(r)).Int("rows", len(*rows)).Msg("price history fetched")
	return *rows
}

// FetchSold implements SoldSource. An empty range omits the query parameter.
func (b *Bazaar) FetchSold(ctx context.Context, itemID string, r market.Range) *series.RawSold {
	var query url.Values
	if r != "" {
		query = url.Values{"range": {string(r)}}
	}
	return FetchWithRetry[series.RawSold](ctx, b.client, "/sold/"+url.PathEscape(itemID), query, validSold)
}

// FetchElections implements EventSource.
func (b *Bazaar) FetchElections(ctx context.Context) []series.RawElection {
	rows := FetchWithRetry[[]series.RawElection](ctx, b.client, "/elections", url.Values{"range": {"all"}}, NonEmpty[series.RawElection])
	if rows == nil {
		return nil
	}
	return *rows
}

// FetchTop implements RankingSource.
func (b *Bazaar) FetchTop(ctx context.Context, limit int) []json.RawMessage {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	rows := FetchWithRetry[[]json.RawMessage](ctx, b.client, "/top", query, NonEmpty[json.RawMessage])
	if rows == nil {
		return nil
	}
	return *rows
}

func validSold(s series.RawSold) error {
	if !s.HasVolume() && !s.BuyPrice.Valid && !s.SellPrice.Valid {
		return ErrEmptyPayload
	}
	return nil
}

var (
	_ MarketSource  = (*Bazaar)(nil)
	_ RankingSource = (*Bazaar)(nil)
)
