package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bazaar-tracker/internal/app"
	"bazaar-tracker/internal/market"
)

var itemRange string

var itemCmd = &cobra.Command{
	Use:   "item <ITEM_ID>",
	Short: "Show an item's price history with the mayor in office at each point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := market.ParseRange(itemRange)
		if err != nil {
			return err
		}

		opts := app.ItemOptions{
			ItemID: normalizeItemID(args[0]),
			Range:  r,
		}
		return getApp().Item(cmd.Context(), opts)
	},
}

func init() {
	itemCmd.Flags().StringVar(&itemRange, "range", string(market.Range1Week), rangeUsage())
}

func normalizeItemID(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func rangeUsage() string {
	names := make([]string, 0, len(market.Ranges()))
	for _, r := range market.Ranges() {
		names = append(names, string(r))
	}
	return fmt.Sprintf("Time range (%s)", strings.Join(names, ", "))
}
