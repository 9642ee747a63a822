package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cryptopulse-bot/config"
	"cryptopulse-bot/internal/alert"
	"cryptopulse-bot/internal/database"
	"cryptopulse-bot/internal/market"
	"cryptopulse-bot/internal/notify"
	"cryptopulse-bot/internal/telegram"
)

type BotMetrics struct {
	MessagesHandled   prometheus.Counter
	CommandsProcessed prometheus.Counter
	Polls             prometheus.Counter
	PollFailures      prometheus.Counter
	AlertsCreated     prometheus.Counter
	AlertsTriggered   prometheus.Counter
	ActiveAlerts      prometheus.Gauge
}

var (
	metrics = NewBotMetrics()
)

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	metrics := &BotMetrics{
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptopulse",
			Subsystem: "bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptopulse",
			Subsystem: "bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptopulse",
			Subsystem: "market",
			Name:      "polls_total",
			Help:      "The total number of price poll cycles",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptopulse",
			Subsystem: "market",
			Name:      "poll_failures_total",
			Help:      "The total number of failed price poll cycles",
		}),
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptopulse",
			Subsystem: "alerts",
			Name:      "created_total",
			Help:      "The total number of alerts created",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptopulse",
			Subsystem: "alerts",
			Name:      "triggered_total",
			Help:      "The total number of alerts triggered",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cryptopulse",
			Subsystem: "alerts",
			Name:      "active",
			Help:      "The current number of active alerts",
		}),
	}

	prometheus.MustRegister(metrics.MessagesHandled)
	prometheus.MustRegister(metrics.CommandsProcessed)
	prometheus.MustRegister(metrics.Polls)
	prometheus.MustRegister(metrics.PollFailures)
	prometheus.MustRegister(metrics.AlertsCreated)
	prometheus.MustRegister(metrics.AlertsTriggered)
	prometheus.MustRegister(metrics.ActiveAlerts)

	return metrics
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")

	if err := database.InitDB(config.GetString("db_path")); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	loadMetricsFromDB()

	store := alert.NewStore(metrics.ActiveAlerts)
	watcher := market.NewWatcher(market.Config{
		Polls:        metrics.Polls,
		PollFailures: metrics.PollFailures,
	})

	var notifier notify.Notifier = notify.LogNotifier{}
	var bot *telegram.Bot
	if token := config.GetString("telegram_bot_token"); token != "" {
		var err error
		bot, err = telegram.NewBot(telegram.BotConfig{
			Token:          token,
			Debug:          config.GetBool("debug"),
			UpdatesTimeout: 60,
		}, watcher, store, metrics.AlertsCreated)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}

		if chatID := config.GetInt64("alert_chat_id"); chatID != 0 {
			notifier = notify.NewTelegramNotifier(bot, chatID)
		} else {
			log.Warn("ALERT_CHAT_ID is not set, triggered alerts will only be logged")
		}
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, running without the bot front end")
	}

	watcher.SetEvaluator(alert.NewService(store, notifier, metrics.AlertsTriggered))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		log.Infof("received %s, shutting down", s)
		cancel()
	}()

	errGroup, errCtx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		return watcher.Start(errCtx)
	})

	if bot != nil {
		updates, err := bot.GetUpdatesChannel()
		if err != nil {
			log.Fatalf("Failed to get updates channel: %v", err)
		}
		errGroup.Go(func() error {
			handleUpdates(bot, updates)
			return nil
		})
		errGroup.Go(func() error {
			<-errCtx.Done()
			bot.StopReceivingUpdates()
			return nil
		})
	}

	errGroup.Go(func() error {
		saveMetricsLoop(errCtx)
		return nil
	})

	errGroup.Go(func() error {
		return launchMetricsAndHealthServer(errCtx, config.GetInt("metrics_port"))
	})

	if err := errGroup.Wait(); err != nil {
		log.Errorf("shutdown with error: %v", err)
	}

	saveMetricsToDB()
	log.Info("Metrics saved, stopped.")
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting cryptopulse bot...")
}

func handleUpdates(bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-message or non-command")
			continue
		}

		metrics.MessagesHandled.Inc()
		handleCommand(bot, update)
	}
}

func handleCommand(bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := bot.HandleUpdate(update)
	if text == "" {
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    int(update.Message.Chat.ID),
		Text:      text,
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		server.Shutdown(shutdownCtx)
	}()

	log.Infof("Launching metrics and health endpoint on :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// persistedCounters are the counters that survive restarts via sqlite.
// The active-alerts gauge is deliberately absent: alerts are
// session-scoped and start from zero.
func persistedCounters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"messages_handled":   metrics.MessagesHandled,
		"commands_processed": metrics.CommandsProcessed,
		"polls_total":        metrics.Polls,
		"poll_failures":      metrics.PollFailures,
		"alerts_created":     metrics.AlertsCreated,
		"alerts_triggered":   metrics.AlertsTriggered,
	}
}

func loadMetricsFromDB() {
	for name, counter := range persistedCounters() {
		value, err := database.GetMetric(name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}
	log.Debug("Metrics loaded from database.")
}

func saveMetricsToDB() {
	for name, counter := range persistedCounters() {
		if err := database.SaveMetric(name, getMetricValue(counter)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}
	log.Debug("Metrics saved to database.")
}

func saveMetricsLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveMetricsToDB()
		}
	}
}

func getMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
