package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bazaar-tracker/internal/correlate"
	"bazaar-tracker/internal/fetcher"
	"bazaar-tracker/internal/flip"
	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/series"
)

// ErrSuperseded is returned by Load when a newer Load replaced it before it
// finished. Nothing it fetched was committed.
var ErrSuperseded = errors.New("service: load superseded by a newer request")

// Status is the display state of one part of an item view.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusNoData  Status = "no data"
)

// ItemView is everything the item page renders.
type ItemView struct {
	ItemID     string
	Range      market.Range
	Generation uint64

	PriceStatus Status
	Points      []market.AnnotatedPricePoint
	Events      []market.MarketEvent

	SoldStatus Status
	Snapshot   *market.SoldVolumeSnapshot
}

// Estimate runs the flip calculator against the view's snapshot.
func (v ItemView) Estimate(budget decimal.Decimal) market.FlipEstimate {
	return flip.Estimate(v.Snapshot, budget)
}

// Loader owns the state of a single item view. Each Load supersedes the
// previous one, and results from superseded loads are dropped on arrival.
type Loader struct {
	source fetcher.MarketSource
	events *EventCache
	logger zerolog.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	view   ItemView
	series []market.PricePoint
	index  *correlate.EventIndex
}

// NewLoader wires a loader to its upstream sources.
func NewLoader(source fetcher.MarketSource, events *EventCache, logger zerolog.Logger) *Loader {
	return &Loader{
		source: source,
		events: events,
		logger: logger.With().Str("component", "item_loader").Logger(),
	}
}

// Current returns the latest committed view, including partial state while
// a load is in flight.
func (l *Loader) Current() ItemView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// Load fetches price history, sold volume and events concurrently for one
// item and range. Each piece is committed as soon as it arrives.
func (l *Loader) Load(ctx context.Context, itemID string, r market.Range) (ItemView, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.series = nil
	l.view = ItemView{
		ItemID:      itemID,
		Range:       r,
		Generation:  gen,
		PriceStatus: StatusLoading,
		SoldStatus:  StatusLoading,
		Events:      l.index.Events(),
	}
	l.mu.Unlock()

	log := l.logger.With().Str("item", itemID).Str("range", string(r)).Uint64("generation", gen).Logger()
	log.Debug().Msg("loading item view")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		points := series.Normalize(l.source.FetchPrices(gctx, itemID, r))
		return l.commitSeries(gen, points)
	})
	g.Go(func() error {
		snapshot := series.NormalizeSold(l.source.FetchSold(gctx, itemID, ""))
		return l.commitSold(gen, snapshot)
	})
	if l.events != nil {
		g.Go(func() error {
			idx, ok := l.events.Index(gctx)
			if !ok {
				return nil
			}
			return l.commitEvents(gen, idx)
		})
	}

	err := g.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		log.Debug().Msg("load superseded; discarding results")
		return ItemView{}, ErrSuperseded
	}
	if err != nil {
		return ItemView{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ItemView{}, ctxErr
	}

	log.Info().
		Str("prices", string(l.view.PriceStatus)).
		Str("sold", string(l.view.SoldStatus)).
		Int("points", len(l.view.Points)).
		Int("events", len(l.view.Events)).
		Msg("item view loaded")
	return l.view, nil
}

// RefreshEvents refetches the event list and runs a fresh correlation pass
// over the current series.
func (l *Loader) RefreshEvents(ctx context.Context) (ItemView, error) {
	if l.events == nil {
		return l.Current(), nil
	}

	l.mu.Lock()
	gen := l.gen
	l.mu.Unlock()

	idx, ok := l.events.Refresh(ctx)
	if !ok {
		return l.Current(), nil
	}
	if err := l.commitEvents(gen, idx); err != nil {
		return ItemView{}, err
	}
	return l.Current(), nil
}

func (l *Loader) commitSeries(gen uint64, points []market.PricePoint) error {
	// upstream order is not guaranteed; correlation needs ascending time
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return ErrSuperseded
	}

	l.series = points
	if len(points) == 0 {
		l.view.PriceStatus = StatusNoData
		l.view.Points = nil
		return nil
	}
	return l.correlateLocked()
}

func (l *Loader) commitSold(gen uint64, snapshot *market.SoldVolumeSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return ErrSuperseded
	}

	l.view.Snapshot = snapshot
	if snapshot == nil {
		l.view.SoldStatus = StatusNoData
	} else {
		l.view.SoldStatus = StatusReady
	}
	return nil
}

func (l *Loader) commitEvents(gen uint64, idx *correlate.EventIndex) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return ErrSuperseded
	}

	l.index = idx
	l.view.Events = idx.Events()
	if len(l.series) == 0 {
		return nil
	}
	return l.correlateLocked()
}

// correlateLocked replaces the annotated series wholesale. l.mu must be held.
func (l *Loader) correlateLocked() error {
	annotated, err := correlate.Correlate(l.series, l.index)
	if err != nil {
		return err
	}
	l.view.Points = annotated
	l.view.PriceStatus = StatusReady
	return nil
}
