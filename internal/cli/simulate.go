package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"bazaar-tracker/internal/app"
)

var (
	simulateItem   string
	simulateBuy    float64
	simulateSell   float64
	simulateVolume float64
	simulateBudget string
	simulateNotify bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-flip",
	Short: "离线模拟一次翻仓估算, 可选触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateBuy <= 0 || simulateSell <= 0 || simulateVolume <= 0 {
			return errors.New("--buy, --sell 与 --volume 必须大于 0")
		}

		opts := app.SimulateOptions{
			ItemID:    normalizeItemID(simulateItem),
			BuyPrice:  simulateBuy,
			SellPrice: simulateSell,
			Volume:    simulateVolume,
			Budget:    simulateBudget,
			Notify:    simulateNotify,
		}
		return getApp().SimulateFlip(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateItem, "item", "SIMULATED", "物品 ID, 仅用于展示")
	simulateCmd.Flags().Float64Var(&simulateBuy, "buy", 0, "买入单价")
	simulateCmd.Flags().Float64Var(&simulateSell, "sell", 0, "卖出单价")
	simulateCmd.Flags().Float64Var(&simulateVolume, "volume", 0, "周成交量 (sellMovingWeek)")
	simulateCmd.Flags().StringVar(&simulateBudget, "budget", "10m", "预算, 支持 k/m/b 简写")
	simulateCmd.Flags().BoolVar(&simulateNotify, "notify", false, "通过已配置的告警通道发送结果")
}
