package cli

import (
	"github.com/spf13/cobra"

	"bazaar-tracker/internal/app"
	"bazaar-tracker/internal/market"
)

var (
	exportRange     string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export <ITEM_ID>",
	Short: "Export an item's annotated price history as CSV and/or PNG chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := market.ParseRange(exportRange)
		if err != nil {
			return err
		}

		opts := app.ExportOptions{
			ItemID:    normalizeItemID(args[0]),
			Range:     r,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRange, "range", string(market.RangeAll), rangeUsage())
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
