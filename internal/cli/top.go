package cli

import (
	"github.com/spf13/cobra"

	"bazaar-tracker/internal/app"
)

var topLimit int

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Display the upstream's top flip ranking",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Top(cmd.Context(), app.TopOptions{Limit: topLimit})
	},
}

func init() {
	topCmd.Flags().IntVar(&topLimit, "limit", 10, "Number of rows to display")
}
