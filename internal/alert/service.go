package alert

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"cryptopulse-bot/internal/notify"
)

// Service connects the store to a notifier. It implements the market
// watcher's Evaluator, so every fresh price flows through here.
type Service struct {
	store     *Store
	notifier  notify.Notifier
	triggered prometheus.Counter
}

func NewService(store *Store, notifier notify.Notifier, triggered prometheus.Counter) *Service {
	return &Service{store: store, notifier: notifier, triggered: triggered}
}

// HandlePrice evaluates all alerts for the symbol and notifies for each
// triggered one. A failed notification is logged and dropped; the alert
// stays inactive either way.
func (s *Service) HandlePrice(symbol string, price float64) {
	for _, a := range s.store.Evaluate(symbol, price) {
		log.Debugf("alert %s triggered: %s %s %.8f at price %.8f", a.ID, a.Symbol, a.Direction, a.Threshold, price)

		if s.triggered != nil {
			s.triggered.Inc()
		}
		if err := s.notifier.Notify(a, price); err != nil {
			log.Errorf("failed to deliver alert notification: %v", err)
		}
	}
}
