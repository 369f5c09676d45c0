// Package correlate attaches the governing regime event to each price point.
package correlate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"bazaar-tracker/internal/market"
)

// ErrUnsortedPoints is returned when the price series is not in ascending
// timestamp order.
var ErrUnsortedPoints = errors.New("correlate: price points must be sorted by timestamp")

// EventIndex is an immutable, timestamp-sorted view of an event list. Build it
// once per event snapshot and reuse it for every correlation pass.
type EventIndex struct {
	events []market.MarketEvent
}

// NewEventIndex copies and stable-sorts events, so events sharing a timestamp
// keep their input order and the later one wins in Lookup.
func NewEventIndex(events []market.MarketEvent) *EventIndex {
	sorted := make([]market.MarketEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return &EventIndex{events: sorted}
}

// Len returns the number of indexed events.
func (idx *EventIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.events)
}

// Events returns a copy of the indexed events in timestamp order.
func (idx *EventIndex) Events() []market.MarketEvent {
	if idx == nil {
		return nil
	}
	out := make([]market.MarketEvent, len(idx.events))
	copy(out, idx.events)
	return out
}

// Lookup returns the event with the greatest timestamp not after t.
func (idx *EventIndex) Lookup(t time.Time) (market.MarketEvent, bool) {
	if idx.Len() == 0 {
		return market.MarketEvent{}, false
	}
	// first event strictly after t
	i := sort.Search(len(idx.events), func(i int) bool {
		return idx.events[i].Timestamp.After(t)
	})
	if i == 0 {
		return market.MarketEvent{}, false
	}
	return idx.events[i-1], true
}

// Correlate annotates every point with its governing event. Points must be
// sorted ascending; the inputs are not modified.
func Correlate(points []market.PricePoint, idx *EventIndex) ([]market.AnnotatedPricePoint, error) {
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp.Before(points[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: index %d (%s) precedes index %d (%s)",
				ErrUnsortedPoints, i, points[i].Timestamp.Format(time.RFC3339), i-1, points[i-1].Timestamp.Format(time.RFC3339))
		}
	}

	annotated := make([]market.AnnotatedPricePoint, len(points))
	for i, p := range points {
		annotated[i] = market.AnnotatedPricePoint{PricePoint: p}
		if ev, ok := idx.Lookup(p.Timestamp); ok {
			annotated[i].GoverningEvent = &ev
		}
	}
	return annotated, nil
}

// CorrelateEvents is a one-shot helper that builds a throwaway index.
func CorrelateEvents(points []market.PricePoint, events []market.MarketEvent) ([]market.AnnotatedPricePoint, error) {
	return Correlate(points, NewEventIndex(events))
}
