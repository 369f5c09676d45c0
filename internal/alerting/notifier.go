package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bazaar-tracker/internal/humannum"
)

// Notification 封装一次翻仓机会的上下文。
type Notification struct {
	ItemID          string
	Slot            time.Time
	BuyPrice        decimal.Decimal
	SellPrice       decimal.Decimal
	Budget          decimal.Decimal
	MaxQuantity     int64
	PotentialProfit decimal.Decimal
	MinProfit       decimal.Decimal
	ROIPct          decimal.Decimal
	AdditionalMsg   string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("item", note.ItemID).
		Time("slot", note.Slot).
		Str("profit", note.PotentialProfit.String()).
		Msg("告警已发送 (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Bazaar Flip] %s\n", note.ItemID))
	builder.WriteString(fmt.Sprintf("As of: %s UTC\n", note.Slot.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Buy: %s / Sell: %s\n", humannum.Format(note.BuyPrice), humannum.Format(note.SellPrice)))
	builder.WriteString(fmt.Sprintf("Budget: %s\n", humannum.Format(note.Budget)))
	builder.WriteString(fmt.Sprintf("Quantity: %s\n", humannum.Format(decimal.NewFromInt(note.MaxQuantity))))
	builder.WriteString(fmt.Sprintf("Profit: %s (min %s)\n", humannum.Format(note.PotentialProfit), humannum.Format(note.MinProfit)))
	if !note.ROIPct.IsZero() {
		builder.WriteString(fmt.Sprintf("ROI: %s%%\n", note.ROIPct.StringFixed(2)))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
