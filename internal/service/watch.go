package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bazaar-tracker/internal/alerting"
	"bazaar-tracker/internal/config"
	"bazaar-tracker/internal/fetcher"
	"bazaar-tracker/internal/flip"
	"bazaar-tracker/internal/humannum"
	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/scheduler"
	"bazaar-tracker/internal/series"
)

const watchConcurrency = 4

// TickResult is the outcome of evaluating one item in one slot.
type TickResult struct {
	ItemID   string
	Snapshot *market.SoldVolumeSnapshot
	Estimate market.FlipEstimate
	Alerted  bool
}

// Watcher polls sold-volume snapshots and raises flip alerts.
type Watcher struct {
	scheduler *scheduler.Scheduler
	source    fetcher.SoldSource
	notifier  alerting.Notifier
	logger    zerolog.Logger

	items     []string
	budget    decimal.Decimal
	minProfit decimal.Decimal
	cooldown  time.Duration
	alertsOn  bool

	mu        sync.Mutex
	lastAlert map[string]time.Time
	now       func() time.Time
}

// NewWatcher constructs the polling service. The budget is read with the
// same shorthand the interactive prompt accepts.
func NewWatcher(cfg *config.Config, sched *scheduler.Scheduler, source fetcher.SoldSource, notifier alerting.Notifier, logger zerolog.Logger) *Watcher {
	budget := humannum.Parse(cfg.Watch.Budget).Value

	w := &Watcher{
		scheduler: sched,
		source:    source,
		notifier:  notifier,
		logger:    logger.With().Str("component", "watcher").Logger(),
		items:     cfg.Watch.Items,
		budget:    budget,
		minProfit: decimal.NewFromFloat(cfg.Alerting.MinProfit),
		cooldown:  cfg.Alerting.Cooldown,
		alertsOn:  cfg.Alerting.Enabled,
		lastAlert: make(map[string]time.Time),
		now:       func() time.Time { return time.Now().UTC() },
	}
	if !budget.IsPositive() {
		w.logger.Warn().Str("budget", cfg.Watch.Budget).Msg("watch.budget is not a positive amount; every estimate will be zero")
	}
	return w
}

// Budget returns the parsed watch budget.
func (w *Watcher) Budget() decimal.Decimal {
	return w.budget
}

// Run begins the polling loop.
func (w *Watcher) Run(ctx context.Context) error {
	if w.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	if len(w.items) == 0 {
		return fmt.Errorf("watch.items is empty")
	}
	return w.scheduler.Run(ctx, func(ctx context.Context, slot time.Time) error {
		_, err := w.ProcessTick(ctx, slot)
		return err
	})
}

// ProcessTick evaluates every watched item once. It fails only when no item
// produced a snapshot.
func (w *Watcher) ProcessTick(ctx context.Context, slot time.Time) ([]TickResult, error) {
	results := make([]TickResult, len(w.items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(watchConcurrency)
	for i, itemID := range w.items {
		i, itemID := i, itemID
		g.Go(func() error {
			results[i] = w.evaluate(gctx, itemID, slot)
			return nil
		})
	}
	_ = g.Wait()

	missing := 0
	for _, res := range results {
		if res.Snapshot == nil {
			missing++
		}
	}
	if len(results) > 0 && missing == len(results) {
		return results, fmt.Errorf("no sold data for any of %d watched items", len(results))
	}
	return results, nil
}

func (w *Watcher) evaluate(ctx context.Context, itemID string, slot time.Time) TickResult {
	res := TickResult{ItemID: itemID}

	res.Snapshot = series.NormalizeSold(w.source.FetchSold(ctx, itemID, ""))
	if res.Snapshot == nil {
		w.logger.Warn().Str("item", itemID).Time("slot", slot).Msg("no sold-volume data")
		return res
	}

	res.Estimate = flip.Estimate(res.Snapshot, w.budget)
	w.logger.Info().Str("item", itemID).
		Time("slot", slot).
		Int64("quantity", res.Estimate.MaxQuantity).
		Str("profit", res.Estimate.PotentialProfit.String()).
		Msg("flip estimated")

	if w.shouldAlert(itemID, res.Estimate) {
		note := alerting.Notification{
			ItemID:          itemID,
			Slot:            slot,
			BuyPrice:        res.Snapshot.BuyPrice,
			SellPrice:       res.Snapshot.SellPrice,
			Budget:          w.budget,
			MaxQuantity:     res.Estimate.MaxQuantity,
			PotentialProfit: res.Estimate.PotentialProfit,
			MinProfit:       w.minProfit,
			ROIPct:          flip.ROI(res.Snapshot, res.Estimate),
		}
		if err := w.notifier.Notify(ctx, note); err != nil {
			w.logger.Error().Err(err).Str("item", itemID).Msg("failed to dispatch alert")
		} else {
			w.markAlerted(itemID)
			res.Alerted = true
		}
	}
	return res
}

func (w *Watcher) shouldAlert(itemID string, est market.FlipEstimate) bool {
	if !w.alertsOn || w.notifier == nil || est.MaxQuantity <= 0 {
		return false
	}
	if est.PotentialProfit.LessThan(w.minProfit) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.lastAlert[itemID]
	return !ok || w.now().Sub(last) >= w.cooldown
}

func (w *Watcher) markAlerted(itemID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastAlert[itemID] = w.now()
}
