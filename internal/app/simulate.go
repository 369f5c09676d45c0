package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bazaar-tracker/internal/fetcher"
	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/series"
	"bazaar-tracker/internal/service"
)

// SimulateFlip 使用给定的买卖价与周成交量离线估算一次翻仓, 可选触发告警。
func (a *App) SimulateFlip(ctx context.Context, opts SimulateOptions) error {
	if _, err := parseBudget(opts.Budget); err != nil {
		return err
	}

	cfg := *a.Config
	cfg.Watch.Items = []string{opts.ItemID}
	cfg.Watch.Budget = opts.Budget

	notifier := a.newNotifier()
	if opts.Notify {
		if !cfg.Alerting.Enabled {
			return errors.New("alerting 未启用")
		}
		if notifier == nil {
			return errors.New("未配置任何告警通道")
		}
	} else {
		cfg.Alerting.Enabled = false
	}

	source := &staticSoldSource{sold: &series.RawSold{
		SellMovingWeek: decimal.NewNullDecimal(decimal.NewFromFloat(opts.Volume)),
		BuyPrice:       decimal.NewNullDecimal(decimal.NewFromFloat(opts.BuyPrice)),
		SellPrice:      decimal.NewNullDecimal(decimal.NewFromFloat(opts.SellPrice)),
	}}

	watcher := service.NewWatcher(&cfg, nil, source, notifier, a.Logger)
	results, err := watcher.ProcessTick(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	res := results[0]
	renderEstimate(a.Out, res.ItemID, res.Snapshot, watcher.Budget(), res.Estimate)
	if opts.Notify && !res.Alerted {
		a.Logger.Warn().
			Str("profit", res.Estimate.PotentialProfit.String()).
			Float64("min_profit", cfg.Alerting.MinProfit).
			Msg("profit below alert threshold; nothing sent")
	}
	return nil
}

type staticSoldSource struct {
	sold *series.RawSold
}

func (s *staticSoldSource) FetchSold(ctx context.Context, itemID string, r market.Range) *series.RawSold {
	return s.sold
}

var _ fetcher.SoldSource = (*staticSoldSource)(nil)
