package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"bazaar-tracker/internal/scheduler"
	"bazaar-tracker/internal/service"
)

// Watch executes the long-running polling service.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(a.Config.Watch.Items) == 0 {
		return errors.New("watch.items is empty; nothing to poll")
	}

	bazaar, err := a.newBazaar()
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		AlignToStart: a.Config.Watch.AlignToBucket,
		StartupDelay: a.Config.Watch.StartupDelay,
		Immediate:    true,
	}, a.Logger)

	notifier := a.newNotifier()
	if a.Config.Alerting.Enabled && notifier == nil {
		a.Logger.Warn().Msg("alerting enabled but no channel configured; estimates will only be logged")
	}

	watcher := service.NewWatcher(a.Config, sched, bazaar, notifier, a.Logger)

	a.Logger.Info().Strs("items", a.Config.Watch.Items).Msg("starting watch service")
	err = watcher.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch service terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch service stopped")
	return nil
}
