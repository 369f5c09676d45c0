package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"bazaar-tracker/internal/humannum"
	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/service"
)

// Item loads one item page and prints it.
func (a *App) Item(ctx context.Context, opts ItemOptions) error {
	bazaar, err := a.newBazaar()
	if err != nil {
		return err
	}

	view, err := a.newLoader(bazaar).Load(ctx, opts.ItemID, opts.Range)
	if err != nil {
		return err
	}

	renderItem(a.Out, view, time.Now().UTC())
	return nil
}

func renderItem(w io.Writer, view service.ItemView, now time.Time) {
	fmt.Fprintf(w, "%s (%s)\n\n", view.ItemID, view.Range)

	switch view.SoldStatus {
	case service.StatusReady:
		fmt.Fprintln(w, soldLine(view.Snapshot, now))
	default:
		fmt.Fprintln(w, "sold volume: no data")
	}
	fmt.Fprintln(w)

	if view.PriceStatus != service.StatusReady || len(view.Points) == 0 {
		fmt.Fprintln(w, "price history: no data")
		return
	}

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tBuy\tSell\tMayor")
	for _, p := range view.Points {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			p.Timestamp.UTC().Format(time.RFC3339),
			humannum.Format(p.BuyPrice),
			humannum.Format(p.SellPrice),
			sanitizeInline(p.EventLabel()),
		)
	}
	writer.Flush()

	if lines := eventsInWindow(view); len(lines) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Elections:")
		for _, ev := range lines {
			fmt.Fprintf(w, "  %s  %s\n", ev.Timestamp.UTC().Format("2006-01-02"), sanitizeInline(ev.Label))
		}
	}
}

func soldLine(s *market.SoldVolumeSnapshot, now time.Time) string {
	line := fmt.Sprintf("%s units sold", humannum.Format(s.SellMovingWeek))
	if !s.Timestamp.IsZero() {
		line += fmt.Sprintf(" (as of %s, %s)",
			s.Timestamp.UTC().Format(time.RFC3339),
			humanize.RelTime(s.Timestamp, now, "ago", "from now"))
	}
	return line
}

// eventsInWindow returns the events that fall inside the plotted range,
// one reference line each.
func eventsInWindow(view service.ItemView) []market.MarketEvent {
	if len(view.Points) == 0 {
		return nil
	}
	first := view.Points[0].Timestamp
	last := view.Points[len(view.Points)-1].Timestamp

	var out []market.MarketEvent
	for _, ev := range view.Events {
		if ev.Timestamp.Before(first) || ev.Timestamp.After(last) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
