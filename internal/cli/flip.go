package cli

import (
	"github.com/spf13/cobra"

	"bazaar-tracker/internal/app"
)

var flipBudget string

var flipCmd = &cobra.Command{
	Use:   "flip <ITEM_ID>",
	Short: "Estimate a flip for the live snapshot and a budget such as 1.5m",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.FlipOptions{
			ItemID: normalizeItemID(args[0]),
			Budget: flipBudget,
		}
		return getApp().Flip(cmd.Context(), opts)
	},
}

func init() {
	flipCmd.Flags().StringVar(&flipBudget, "budget", "", "Coins available, k/m/b shorthand accepted")
	_ = flipCmd.MarkFlagRequired("budget")
}
