package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"bazaar-tracker/internal/alerting"
	"bazaar-tracker/internal/config"
	"bazaar-tracker/internal/fetcher"
	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/service"
	"bazaar-tracker/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives tables and reports; logs stay on the logger's writer.
	Out io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
	}
}

func (a *App) newClient() (*fetcher.Client, error) {
	policy, err := fetcher.NewPolicy(fetcher.PolicyOptions{
		Name:     a.Config.Retry.Policy,
		Delay:    a.Config.Retry.Delay,
		MaxDelay: a.Config.Retry.MaxDelay,
		Factor:   a.Config.Retry.Factor,
		Jitter:   a.Config.Retry.Jitter,
	})
	if err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}

	userAgent := a.Config.Upstream.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	return fetcher.NewClient(fetcher.ClientOptions{
		BaseURL:     a.Config.Upstream.BaseURL,
		Timeout:     a.Config.Upstream.RequestTimeout,
		UserAgent:   userAgent,
		MaxAttempts: a.Config.Retry.MaxAttempts,
		Policy:      policy,
		RateLimit:   a.Config.Upstream.RateLimit,
		Burst:       a.Config.Upstream.Burst,
	}, a.Logger), nil
}

func (a *App) newBazaar() (*fetcher.Bazaar, error) {
	client, err := a.newClient()
	if err != nil {
		return nil, err
	}
	return fetcher.NewBazaar(client, a.Logger), nil
}

func (a *App) newLoader(source fetcher.MarketSource) *service.Loader {
	events := service.NewEventCache(source, a.Config.Events.CacheTTL, a.Logger)
	return service.NewLoader(source, events, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// ItemOptions select the item page to render.
type ItemOptions struct {
	ItemID string
	Range  market.Range
}

// FlipOptions configure a live flip estimate.
type FlipOptions struct {
	ItemID string
	// Budget is free text such as "1.5m".
	Budget string
}

// SimulateOptions describe an offline flip scenario.
type SimulateOptions struct {
	ItemID    string
	BuyPrice  float64
	SellPrice float64
	Volume    float64
	Budget    string
	// Notify routes the result through the configured alert channel.
	Notify bool
}

// ExportOptions hold parameters for exporting an item's history.
type ExportOptions struct {
	ItemID    string
	Range     market.Range
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// TopOptions configure the top command.
type TopOptions struct {
	Limit int
}
