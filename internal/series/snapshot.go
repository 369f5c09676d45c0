package series

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bazaar-tracker/internal/market"
)

// RawSold is the /sold payload. Older revisions call the weekly volume "sold".
type RawSold struct {
	SellMovingWeek decimal.NullDecimal `json:"sellMovingWeek"`
	Sold           decimal.NullDecimal `json:"sold"`
	BuyPrice       decimal.NullDecimal `json:"buyPrice"`
	SellPrice      decimal.NullDecimal `json:"sellPrice"`
	Timestamp      json.RawMessage     `json:"timestamp"`
}

// HasVolume reports whether either volume alias is present.
func (r RawSold) HasVolume() bool {
	return r.SellMovingWeek.Valid || r.Sold.Valid
}

// NormalizeSold converts the payload; missing fields stay zero so the flip
// calculator can reject the snapshot. A nil input yields nil.
func NormalizeSold(raw *RawSold) *market.SoldVolumeSnapshot {
	if raw == nil {
		return nil
	}

	volume := raw.SellMovingWeek
	if !volume.Valid {
		volume = raw.Sold
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		ts = time.Time{}
	}

	return &market.SoldVolumeSnapshot{
		SellMovingWeek: volume.Decimal,
		BuyPrice:       raw.BuyPrice.Decimal,
		SellPrice:      raw.SellPrice.Decimal,
		Timestamp:      ts,
	}
}

// RawElection is one /elections row.
type RawElection struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Mayor     string          `json:"mayor"`
	Year      json.Number     `json:"year"`
}

// NormalizeElections converts election rows into market events, dropping rows
// whose timestamp cannot be parsed. Input order is preserved.
func NormalizeElections(rows []RawElection) []market.MarketEvent {
	events := make([]market.MarketEvent, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			continue
		}
		events = append(events, market.MarketEvent{
			Timestamp: ts,
			Label:     electionLabel(row),
		})
	}
	return events
}

func electionLabel(row RawElection) string {
	mayor := strings.TrimSpace(row.Mayor)
	year := strings.TrimSpace(row.Year.String())
	switch {
	case mayor == "" && year == "":
		return "unknown"
	case year == "":
		return mayor
	case mayor == "":
		return "Year " + year
	default:
		return mayor + " (" + year + ")"
	}
}
