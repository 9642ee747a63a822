package telegram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"cryptopulse-bot/internal/alert"
	"cryptopulse-bot/internal/commands"
	"cryptopulse-bot/internal/market"
	"cryptopulse-bot/internal/types"
	"cryptopulse-bot/lib/helpers"
	"cryptopulse-bot/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, w *market.Watcher, alerts *alert.Store, alertsCreated prometheus.Counter) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:           bot,
		Config:        c,
		market:        w,
		alerts:        alerts,
		alertsCreated: alertsCreated,
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// StopReceivingUpdates closes the updates channel.
func (b *Bot) StopReceivingUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(int64(m.ChatID), m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// SendMarkdown sends MarkdownV2 text to a chat. Alert notifications go
// through here.
func (b *Bot) SendMarkdown(chatID int64, text string) error {
	return b.SendMessage(Message{ChatID: int(chatID), Text: text})
}

var alertArgsRe = regexp.MustCompile(`^(\S+)\s+(above|below)\s+(\S+)$`)

// ParseAlertArguments parses "/alert SYM above|below PRICE" arguments.
func ParseAlertArguments(args string) (symbol, direction string, threshold float64, err error) {
	matches := alertArgsRe.FindStringSubmatch(strings.TrimSpace(args))
	if len(matches) != 4 {
		return "", "", 0, errors.New("expected: SYMBOL above|below PRICE")
	}

	threshold, parseErr := strconv.ParseFloat(matches[3], 64)
	if parseErr != nil {
		return "", "", 0, errors.Wrapf(parseErr, "invalid price %q", matches[3])
	}

	return strings.ToUpper(matches[1]), matches[2], threshold, nil
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	text := helpText()
	log.Debugf("received command: %s", u.Message.Command())

	var err error

	switch u.Message.Command() {
	case "d", "dashboard":
		text = commands.CommandDashboard(b.market)
	case "p":
		if text, err = commands.CommandPrice(u.Message.CommandArguments()); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Coin not found"))
			log.Error(err)
		}
	case "c":
		chartData, caption, err := commands.CommandChart(b.market, u.Message.CommandArguments())
		if err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("No chart data for that symbol yet"))
			log.Error(err)
		} else {
			photo := tgbotapi.NewPhoto(u.Message.Chat.ID, tgbotapi.FileBytes{
				Name:  "chart.png",
				Bytes: chartData,
			})
			photo.Caption = caption
			photo.ParseMode = "MarkdownV2"
			photo.ReplyToMessageID = u.Message.MessageID
			if _, err = b.Bot.Send(photo); err != nil {
				log.Error("error sending chart: ", err)
			}
			return ""
		}
	case "alert":
		text = b.handleAlertCreate(u.Message.CommandArguments())
	case "alerts":
		text = b.handleAlertList()
	case "rm":
		text = b.handleAlertDelete(u.Message.CommandArguments())
	}

	return text
}

func (b *Bot) handleAlertCreate(args string) string {
	symbol, direction, threshold, err := ParseAlertArguments(args)
	if err != nil {
		log.Debugf("rejected alert arguments %q: %v", args, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /alert SYMBOL above|below PRICE"))
	}

	a, err := b.alerts.Create(symbol, direction, threshold)
	if err != nil {
		log.Debugf("rejected alert creation: %v", err)
		return helpers.EscapeMarkdownV2(translation.Translate("Alert not created: the price must be a positive number"))
	}

	if b.alertsCreated != nil {
		b.alertsCreated.Inc()
	}

	return helpers.EscapeMarkdownV2(fmt.Sprintf("Alert #%s set: %s %s $%s",
		a.ID, a.Symbol, a.Direction,
		helpers.FormatPrice(a.Threshold, types.PriceDecimals(a.Symbol))))
}

func (b *Bot) handleAlertList() string {
	alerts := b.alerts.List()
	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("No alerts set. Create one with /alert SYMBOL above|below PRICE"))
	}

	var sb strings.Builder
	sb.WriteString("*Alerts*\n\n")
	for _, a := range alerts {
		state := "active"
		if !a.Active {
			state = "triggered"
		}
		sb.WriteString(helpers.EscapeMarkdownV2(fmt.Sprintf("▫️ #%s %s %s $%s - %s",
			a.ID, a.Symbol, a.Direction,
			helpers.FormatPrice(a.Threshold, types.PriceDecimals(a.Symbol)), state)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(helpers.EscapeMarkdownV2(translation.Translate("Remove an alert with /rm ID")))
	return sb.String()
}

func (b *Bot) handleAlertDelete(args string) string {
	id := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args), "#"))
	if id == "" || !b.alerts.Delete(id) {
		return helpers.EscapeMarkdownV2(translation.Translate("No alert with that id"))
	}
	return helpers.EscapeMarkdownV2(translation.Translate("Alert #%s removed", id))
}

func helpText() string {
	return helpers.EscapeMarkdownV2(translation.Translate(
		"Commands:\n" +
			"/d - dashboard\n" +
			"/p SYMBOL - price lookup\n" +
			"/c SYMBOL - price chart\n" +
			"/alert SYMBOL above|below PRICE - set a one-shot alert\n" +
			"/alerts - list alerts\n" +
			"/rm ID - remove an alert"))
}
