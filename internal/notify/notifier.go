package notify

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"cryptopulse-bot/internal/types"
	"cryptopulse-bot/lib/helpers"
)

// Notifier delivers a triggered alert to the user.
type Notifier interface {
	Notify(a types.PriceAlert, currentPrice float64) error
}

// Sender is the slice of the telegram bot a notifier needs.
type Sender interface {
	SendMarkdown(chatID int64, text string) error
}

// TelegramNotifier sends triggered alerts to a fixed chat.
type TelegramNotifier struct {
	sender Sender
	chatID int64
}

func NewTelegramNotifier(sender Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

func (n *TelegramNotifier) Notify(a types.PriceAlert, currentPrice float64) error {
	return n.sender.SendMarkdown(n.chatID, RenderAlert(a, currentPrice))
}

// RenderAlert builds the MarkdownV2 notification body: symbol,
// direction, threshold and the current price, five decimals for the
// spotlight token and two for everything else.
func RenderAlert(a types.PriceAlert, currentPrice float64) string {
	decimals := types.PriceDecimals(a.Symbol)
	return fmt.Sprintf(
		"🚨 *%s Price Alert*\n\n*%s* is %s your target of *$%s*\nCurrent price: *$%s*",
		helpers.EscapeMarkdownV2(a.Symbol),
		helpers.EscapeMarkdownV2(a.Symbol),
		directionPhrase(a.Direction),
		helpers.EscapeMarkdownV2(helpers.FormatPrice(a.Threshold, decimals)),
		helpers.EscapeMarkdownV2(helpers.FormatPrice(currentPrice, decimals)),
	)
}

func directionPhrase(direction string) string {
	if direction == types.DirectionBelow {
		return "at or below"
	}
	return "at or above"
}

// LogNotifier is the fallback when no telegram chat is configured:
// triggered alerts only show up in the service log.
type LogNotifier struct{}

func (LogNotifier) Notify(a types.PriceAlert, currentPrice float64) error {
	decimals := types.PriceDecimals(a.Symbol)
	log.Warnf("alert triggered: %s %s %s, current price %s",
		a.Symbol, a.Direction,
		helpers.FormatPrice(a.Threshold, decimals),
		helpers.FormatPrice(currentPrice, decimals))
	return nil
}
