package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"bazaar-tracker/internal/flip"
	"bazaar-tracker/internal/humannum"
	"bazaar-tracker/internal/market"
	"bazaar-tracker/internal/series"
)

// Flip fetches the live snapshot for one item and estimates a flip for the
// given budget.
func (a *App) Flip(ctx context.Context, opts FlipOptions) error {
	budget, err := parseBudget(opts.Budget)
	if err != nil {
		return err
	}

	bazaar, err := a.newBazaar()
	if err != nil {
		return err
	}

	snapshot := series.NormalizeSold(bazaar.FetchSold(ctx, opts.ItemID, ""))
	if snapshot == nil {
		fmt.Fprintf(a.Out, "%s: no sold-volume data\n", opts.ItemID)
		return nil
	}

	renderEstimate(a.Out, opts.ItemID, snapshot, budget, flip.Estimate(snapshot, budget))
	return nil
}

func parseBudget(text string) (decimal.Decimal, error) {
	parsed := humannum.Parse(text)
	if !parsed.Value.IsPositive() {
		return decimal.Zero, errors.New("--budget must be a positive amount such as 250k or 1.5m")
	}
	return parsed.Value, nil
}

func renderEstimate(w io.Writer, itemID string, s *market.SoldVolumeSnapshot, budget decimal.Decimal, est market.FlipEstimate) {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Item\t%s\n", itemID)
	fmt.Fprintf(writer, "Buy / Sell\t%s / %s\n", humannum.Format(s.BuyPrice), humannum.Format(s.SellPrice))
	fmt.Fprintf(writer, "Weekly sold\t%s\n", humannum.Format(s.SellMovingWeek))
	fmt.Fprintf(writer, "Budget\t%s\n", humannum.Format(budget))
	fmt.Fprintf(writer, "Max quantity\t%s (market %s, capital %s)\n",
		humannum.Format(decimal.NewFromInt(est.MaxQuantity)),
		humannum.Format(decimal.NewFromInt(est.MarketCap)),
		humannum.Format(decimal.NewFromInt(est.CapitalCap)))
	fmt.Fprintf(writer, "Profit\t%s\n", humannum.Format(est.PotentialProfit))
	if roi := flip.ROI(s, est); !roi.IsZero() {
		fmt.Fprintf(writer, "ROI\t%s%%\n", roi.StringFixed(2))
	}
	writer.Flush()
}
