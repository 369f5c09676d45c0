package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bazaar-tracker/internal/alerting"
	"bazaar-tracker/internal/config"
	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/series"
)

func priceRow(ts string, buy, sell float64) series.RawPriceRow {
	return series.RawPriceRow{
		Timestamp: json.RawMessage(`"` + ts + `"`),
		Data: &series.RawQuote{
			BuyPrice:  decimal.NewNullDecimal(decimal.NewFromFloat(buy)),
			SellPrice: decimal.NewNullDecimal(decimal.NewFromFloat(sell)),
		},
	}
}

func soldRaw(volume, buy, sell int64) *series.RawSold {
	return &series.RawSold{
		SellMovingWeek: decimal.NewNullDecimal(decimal.NewFromInt(volume)),
		BuyPrice:       decimal.NewNullDecimal(decimal.NewFromInt(buy)),
		SellPrice:      decimal.NewNullDecimal(decimal.NewFromInt(sell)),
		Timestamp:      json.RawMessage(`"2025-05-01T12:00:00Z"`),
	}
}

type staticSource struct {
	prices    map[string][]series.RawPriceRow
	sold      map[string]*series.RawSold
	elections []series.RawElection

	electionCalls int32
}

func (s *staticSource) FetchPrices(ctx context.Context, itemID string, r market.Range) []series.RawPriceRow {
	return s.prices[itemID]
}

func (s *staticSource) FetchSold(ctx context.Context, itemID string, r market.Range) *series.RawSold {
	return s.sold[itemID]
}

func (s *staticSource) FetchElections(ctx context.Context) []series.RawElection {
	atomic.AddInt32(&s.electionCalls, 1)
	return s.elections
}

func defaultSource() *staticSource {
	return &staticSource{
		prices: map[string][]series.RawPriceRow{
			"DIAMOND": {
				priceRow("2025-03-01T00:00:00Z", 12, 14),
				priceRow("2025-01-01T00:00:00Z", 10.4, 12.6),
				priceRow("2025-02-01T00:00:00Z", 11, 13),
			},
		},
		sold: map[string]*series.RawSold{
			"DIAMOND": soldRaw(1000, 10, 12),
		},
		elections: []series.RawElection{
			{Timestamp: json.RawMessage(`"2025-01-15T00:00:00Z"`), Mayor: "Diana", Year: "380"},
		},
	}
}

func TestLoaderLoadsAndCorrelates(t *testing.T) {
	src := defaultSource()
	loader := NewLoader(src, NewEventCache(src, time.Minute, zerolog.Nop()), zerolog.Nop())

	view, err := loader.Load(context.Background(), "DIAMOND", market.RangeAll)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if view.PriceStatus != StatusReady || view.SoldStatus != StatusReady {
		t.Fatalf("状态应为 ready: %s / %s", view.PriceStatus, view.SoldStatus)
	}
	if len(view.Points) != 3 {
		t.Fatalf("期望 3 个点, 实际 %d", len(view.Points))
	}
	for i := 1; i < len(view.Points); i++ {
		if view.Points[i].Timestamp.Before(view.Points[i-1].Timestamp) {
			t.Fatal("价格序列应按时间升序")
		}
	}
	if view.Points[0].GoverningEvent != nil {
		t.Fatal("第一个点早于选举, 应为 nil")
	}
	if view.Points[1].EventLabel() != "Diana (380)" || view.Points[2].EventLabel() != "Diana (380)" {
		t.Fatalf("事件关联错误: %q %q", view.Points[1].EventLabel(), view.Points[2].EventLabel())
	}
	if len(view.Events) != 1 {
		t.Fatalf("期望 1 个事件, 实际 %d", len(view.Events))
	}

	est := view.Estimate(decimal.NewFromInt(5000))
	if est.MaxQuantity != 100 || !est.PotentialProfit.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("估算错误: %+v", est)
	}
}

func TestLoaderNoData(t *testing.T) {
	src := &staticSource{}
	loader := NewLoader(src, NewEventCache(src, time.Minute, zerolog.Nop()), zerolog.Nop())

	view, err := loader.Load(context.Background(), "MISSING", market.Range1Day)
	if err != nil {
		t.Fatalf("无数据不是错误: %v", err)
	}
	if view.PriceStatus != StatusNoData || view.SoldStatus != StatusNoData {
		t.Fatalf("应为 no data: %s / %s", view.PriceStatus, view.SoldStatus)
	}
	if est := view.Estimate(decimal.NewFromInt(1000)); !est.IsZero() {
		t.Fatalf("无快照时估算应为零: %+v", est)
	}
}

// slowSource blocks price fetches for one item until released, and then
// returns data regardless of cancellation.
type slowSource struct {
	*staticSource
	slowItem string
	started  chan struct{}
	release  chan struct{}
}

func (s *slowSource) FetchPrices(ctx context.Context, itemID string, r market.Range) []series.RawPriceRow {
	if itemID == s.slowItem {
		close(s.started)
		<-s.release
	}
	return s.staticSource.FetchPrices(ctx, itemID, r)
}

func TestLoaderDiscardsSupersededLoad(t *testing.T) {
	base := defaultSource()
	base.prices["STALE"] = []series.RawPriceRow{priceRow("2020-01-01T00:00:00Z", 1, 1)}
	base.sold["STALE"] = soldRaw(1, 1, 1)

	src := &slowSource{staticSource: base, slowItem: "STALE", started: make(chan struct{}), release: make(chan struct{})}
	loader := NewLoader(src, NewEventCache(src, time.Minute, zerolog.Nop()), zerolog.Nop())

	staleErr := make(chan error, 1)
	go func() {
		_, err := loader.Load(context.Background(), "STALE", market.RangeAll)
		staleErr <- err
	}()
	<-src.started

	view, err := loader.Load(context.Background(), "DIAMOND", market.Range1Week)
	if err != nil {
		t.Fatalf("新请求应成功: %v", err)
	}
	close(src.release)

	if err := <-staleErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("旧请求应返回 ErrSuperseded, 实际 %v", err)
	}

	current := loader.Current()
	if current.ItemID != "DIAMOND" || current.Generation != view.Generation {
		t.Fatalf("当前视图被旧请求覆盖: %+v", current.ItemID)
	}
	if len(current.Points) != 3 {
		t.Fatalf("旧请求的数据不应写入, 实际 %d 个点", len(current.Points))
	}
}

func TestLoaderReusesEventIndexAcrossRanges(t *testing.T) {
	src := defaultSource()
	loader := NewLoader(src, NewEventCache(src, time.Hour, zerolog.Nop()), zerolog.Nop())

	for _, r := range []market.Range{market.Range1Day, market.Range1Week, market.RangeAll} {
		if _, err := loader.Load(context.Background(), "DIAMOND", r); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&src.electionCalls); n != 1 {
		t.Fatalf("事件列表应只拉取一次, 实际 %d", n)
	}
}

func TestLoaderRefreshEventsRecorrelates(t *testing.T) {
	src := defaultSource()
	loader := NewLoader(src, NewEventCache(src, time.Hour, zerolog.Nop()), zerolog.Nop())

	if _, err := loader.Load(context.Background(), "DIAMOND", market.RangeAll); err != nil {
		t.Fatal(err)
	}

	src.elections = append(src.elections, series.RawElection{
		Timestamp: json.RawMessage(`"2025-02-15T00:00:00Z"`), Mayor: "Paul", Year: "381",
	})
	view, err := loader.RefreshEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Events) != 2 {
		t.Fatalf("期望 2 个事件, 实际 %d", len(view.Events))
	}
	if got := view.Points[2].EventLabel(); got != "Paul (381)" {
		t.Fatalf("刷新后应重新关联, 实际 %q", got)
	}
	if got := view.Points[1].EventLabel(); got != "Diana (380)" {
		t.Fatalf("早期点仍应归属 Diana, 实际 %q", got)
	}
}

func TestEventCacheFailureIsNotCached(t *testing.T) {
	src := &staticSource{}
	cache := NewEventCache(src, 0, zerolog.Nop())

	if _, ok := cache.Index(context.Background()); ok {
		t.Fatal("无数据时应返回 ok=false")
	}
	src.elections = defaultSource().elections
	idx, ok := cache.Index(context.Background())
	if !ok || idx.Len() != 1 {
		t.Fatal("失败结果不应被缓存")
	}
	if _, ok := cache.Index(context.Background()); !ok || atomic.LoadInt32(&src.electionCalls) != 2 {
		t.Fatalf("成功结果应被缓存, 调用次数 %d", atomic.LoadInt32(&src.electionCalls))
	}

	cache.Invalidate()
	cache.Index(context.Background())
	if n := atomic.LoadInt32(&src.electionCalls); n != 3 {
		t.Fatalf("Invalidate 后应重新拉取, 实际 %d", n)
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []alerting.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func watchConfig() *config.Config {
	return &config.Config{
		Watch: config.WatchConfig{
			Interval: time.Minute,
			Items:    []string{"DIAMOND", "COOKIE", "MISSING"},
			Budget:   "5k",
		},
		Alerting: config.AlertingConfig{
			Enabled:   true,
			MinProfit: 150,
			Cooldown:  time.Hour,
		},
	}
}

func TestWatcherAlertsRespectThresholdAndCooldown(t *testing.T) {
	src := defaultSource()
	src.sold["COOKIE"] = soldRaw(1000, 10, 11) // profit 100, below threshold

	notifier := &recordingNotifier{}
	w := NewWatcher(watchConfig(), nil, src, notifier, zerolog.Nop())
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if !w.Budget().Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("预算解析错误: %s", w.Budget())
	}

	results, err := w.ProcessTick(context.Background(), now)
	if err != nil {
		t.Fatalf("部分物品有数据时不应报错: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("期望 3 个结果, 实际 %d", len(results))
	}
	if !results[0].Alerted || results[1].Alerted || results[2].Snapshot != nil {
		t.Fatalf("告警判定错误: %+v", results)
	}
	if notifier.count() != 1 {
		t.Fatalf("期望 1 条告警, 实际 %d", notifier.count())
	}

	now = now.Add(30 * time.Minute)
	if _, err := w.ProcessTick(context.Background(), now); err != nil {
		t.Fatal(err)
	}
	if notifier.count() != 1 {
		t.Fatal("冷却期内不应重复告警")
	}

	now = now.Add(time.Hour)
	if _, err := w.ProcessTick(context.Background(), now); err != nil {
		t.Fatal(err)
	}
	if notifier.count() != 2 {
		t.Fatalf("冷却结束后应再次告警, 实际 %d", notifier.count())
	}
}

func TestWatcherFailsWhenNothingAvailable(t *testing.T) {
	cfg := watchConfig()
	cfg.Watch.Items = []string{"MISSING"}
	w := NewWatcher(cfg, nil, &staticSource{}, nil, zerolog.Nop())

	if _, err := w.ProcessTick(context.Background(), time.Now()); err == nil {
		t.Fatal("所有物品都无数据时应报错")
	}
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("未配置 scheduler 时 Run 应报错")
	}
}
