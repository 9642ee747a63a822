package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"cryptopulse-bot/internal/alert"
	"cryptopulse-bot/internal/market"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
}

// Bot telegram interaction client
type Bot struct {
	Bot           *tgbotapi.BotAPI
	Config        BotConfig
	market        *market.Watcher
	alerts        *alert.Store
	alertsCreated prometheus.Counter
}

// Message a telegram message struct
type Message struct {
	ChatID    int
	MessageID int
	Text      string
}
