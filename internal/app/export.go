package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/service"
)

// Export renders an item's annotated price history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	bazaar, err := a.newBazaar()
	if err != nil {
		return err
	}

	view, err := a.newLoader(bazaar).Load(ctx, opts.ItemID, opts.Range)
	if err != nil {
		return err
	}
	if view.PriceStatus != service.StatusReady || len(view.Points) == 0 {
		a.Logger.Info().Str("item", opts.ItemID).Str("range", string(opts.Range)).Msg("no price history to export")
		return nil
	}

	downsampled := downsamplePoints(view.Points, opts.MaxPoints)
	a.Logger.Info().Int("total", len(view.Points)).Int("exported", len(downsampled)).Msg("exporting price history")

	if opts.CSVPath != "" {
		if err := writePointsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		title := opts.ItemID + " (" + string(opts.Range) + ")"
		if err := writePointsPNG(opts.PNGPath, title, downsampled, eventsInWindow(view)); err != nil {
			return err
		}
	}

	return nil
}

func downsamplePoints(points []market.AnnotatedPricePoint, max int) []market.AnnotatedPricePoint {
	if max <= 0 || len(points) <= max {
		return points
	}
	if max == 1 {
		return points[len(points)-1:]
	}

	result := make([]market.AnnotatedPricePoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writePointsCSV(path string, points []market.AnnotatedPricePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "buy_price", "sell_price", "raw_buy_price", "raw_sell_price", "mayor"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range points {
		record := []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			p.BuyPrice.String(),
			p.SellPrice.String(),
			p.RawBuyPrice.String(),
			p.RawSellPrice.String(),
			p.EventLabel(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writePointsPNG(path, title string, points []market.AnnotatedPricePoint, events []market.MarketEvent) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	buy := make([]float64, len(points))
	sell := make([]float64, len(points))

	top := 0.0
	for i, p := range points {
		x[i] = p.Timestamp
		buy[i] = p.BuyPrice.InexactFloat64()
		sell[i] = p.SellPrice.InexactFloat64()
		top = math.Max(top, math.Max(buy[i], sell[i]))
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Buy",
			XValues: x,
			YValues: buy,
		},
		chart.TimeSeries{
			Name:    "Sell",
			XValues: x,
			YValues: sell,
		},
	}

	if len(events) > 0 {
		annotations := make([]chart.Value2, 0, len(events))
		for _, ev := range events {
			annotations = append(annotations, chart.Value2{
				XValue: chart.TimeToFloat64(ev.Timestamp),
				YValue: top,
				Label:  ev.Label,
			})
		}
		series = append(series, chart.AnnotationSeries{
			Name:        "Mayors",
			Annotations: annotations,
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Coins",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
