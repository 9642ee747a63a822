package alert

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"cryptopulse-bot/internal/types"
)

// Store holds the session's alerts in memory. Nothing is persisted: a
// restart starts with an empty set, by contract.
type Store struct {
	mu     sync.Mutex
	alerts []*types.PriceAlert
	nextID int64
	active prometheus.Gauge
}

// NewStore creates an empty store. The gauge tracks the number of
// active alerts and may be nil.
func NewStore(active prometheus.Gauge) *Store {
	return &Store{nextID: 1, active: active}
}

// Create appends a new active alert. The threshold must be a strictly
// positive finite number and the direction one of "above"/"below";
// anything else is rejected and nothing is added.
func (s *Store) Create(symbol, direction string, threshold float64) (types.PriceAlert, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return types.PriceAlert{}, errors.New("alert symbol must not be empty")
	}
	if direction != types.DirectionAbove && direction != types.DirectionBelow {
		return types.PriceAlert{}, errors.Errorf("invalid alert direction: %q", direction)
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return types.PriceAlert{}, errors.New("alert threshold must be a positive number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := &types.PriceAlert{
		ID:        strconv.FormatInt(s.nextID, 10),
		Symbol:    symbol,
		Direction: direction,
		Threshold: threshold,
		Active:    true,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.nextID++
	s.alerts = append(s.alerts, a)
	s.updateGauge()

	return *a, nil
}

// Delete removes an alert by id regardless of its active state.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			s.updateGauge()
			return true
		}
	}
	return false
}

// List returns a snapshot copy of all alerts in creation order.
func (s *Store) List() []types.PriceAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := make([]types.PriceAlert, 0, len(s.alerts))
	for _, a := range s.alerts {
		alerts = append(alerts, *a)
	}
	return alerts
}

// Evaluate checks every active alert for the symbol against the latest
// price, in iteration order. Triggered alerts are marked inactive,
// which is terminal, and returned for notification. Each alert's
// condition is independent of the others.
func (s *Store) Evaluate(symbol string, price float64) []types.PriceAlert {
	symbol = strings.ToUpper(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	var triggered []types.PriceAlert
	for _, a := range s.alerts {
		if !a.Active || a.Symbol != symbol {
			continue
		}
		crossed := (a.Direction == types.DirectionAbove && price >= a.Threshold) ||
			(a.Direction == types.DirectionBelow && price <= a.Threshold)
		if !crossed {
			continue
		}
		a.Active = false
		triggered = append(triggered, *a)
	}

	if len(triggered) > 0 {
		s.updateGauge()
	}
	return triggered
}

func (s *Store) updateGauge() {
	if s.active == nil {
		return
	}
	n := 0
	for _, a := range s.alerts {
		if a.Active {
			n++
		}
	}
	s.active.Set(float64(n))
}
