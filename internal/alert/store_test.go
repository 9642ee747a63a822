package alert

import (
	"math"
	"testing"

	"cryptopulse-bot/internal/types"
)

func TestCreateRejectsInvalidInput(t *testing.T) {
	s := NewStore(nil)

	cases := []struct {
		name      string
		symbol    string
		direction string
		threshold float64
	}{
		{"zero threshold", "ETH", types.DirectionAbove, 0},
		{"negative threshold", "ETH", types.DirectionAbove, -10},
		{"nan threshold", "ETH", types.DirectionBelow, math.NaN()},
		{"inf threshold", "ETH", types.DirectionBelow, math.Inf(1)},
		{"bad direction", "ETH", "sideways", 100},
		{"empty symbol", "", types.DirectionAbove, 100},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := s.Create(c.symbol, c.direction, c.threshold); err == nil {
				t.Fatalf("Create(%q, %q, %v) accepted invalid input", c.symbol, c.direction, c.threshold)
			}
		})
	}

	if got := len(s.List()); got != 0 {
		t.Errorf("rejected creations still added alerts: %d", got)
	}
}

func TestAboveAlertBoundary(t *testing.T) {
	s := NewStore(nil)
	a, err := s.Create("ETH", types.DirectionAbove, 3000)
	if err != nil {
		t.Fatal(err)
	}

	if triggered := s.Evaluate("ETH", 2999.99); len(triggered) != 0 {
		t.Fatalf("alert triggered below threshold: %v", triggered)
	}

	triggered := s.Evaluate("ETH", 3000.00)
	if len(triggered) != 1 || triggered[0].ID != a.ID {
		t.Fatalf("expected alert %s to trigger at the threshold, got %v", a.ID, triggered)
	}

	// Deactivation is terminal: the same price never re-fires.
	if triggered := s.Evaluate("ETH", 3000.00); len(triggered) != 0 {
		t.Fatalf("inactive alert re-fired: %v", triggered)
	}

	alerts := s.List()
	if len(alerts) != 1 || alerts[0].Active {
		t.Errorf("triggered alert should remain in the set as inactive, got %+v", alerts)
	}
}

func TestBelowAlertOnSpotlightToken(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.Create(types.SpotlightSymbol, types.DirectionBelow, 0.005); err != nil {
		t.Fatal(err)
	}

	if triggered := s.Evaluate(types.SpotlightSymbol, 0.00676); len(triggered) != 0 {
		t.Fatalf("below alert triggered above threshold: %v", triggered)
	}
	if triggered := s.Evaluate(types.SpotlightSymbol, 0.0049); len(triggered) != 1 {
		t.Fatalf("below alert did not trigger at 0.0049: %v", triggered)
	}
}

func TestIndependentAlertsSameSymbol(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.Create("BTC", types.DirectionAbove, 40000); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("BTC", types.DirectionAbove, 50000); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("BTC", types.DirectionBelow, 10000); err != nil {
		t.Fatal(err)
	}

	triggered := s.Evaluate("BTC", 43250)
	if len(triggered) != 1 || triggered[0].Threshold != 40000 {
		t.Fatalf("expected only the 40000 alert to trigger, got %v", triggered)
	}

	if triggered := s.Evaluate("BTC", 51000); len(triggered) != 1 {
		t.Fatalf("expected the 50000 alert to trigger independently, got %v", triggered)
	}
}

func TestDeleteRegardlessOfState(t *testing.T) {
	s := NewStore(nil)
	active, _ := s.Create("ETH", types.DirectionAbove, 3000)
	fired, _ := s.Create("ETH", types.DirectionBelow, 5000)
	s.Evaluate("ETH", 2500) // fires the below alert

	if !s.Delete(fired.ID) {
		t.Error("failed to delete an inactive alert")
	}
	if !s.Delete(active.ID) {
		t.Error("failed to delete an active alert")
	}
	if s.Delete("no-such-id") {
		t.Error("deleting an unknown id reported success")
	}
	if got := len(s.List()); got != 0 {
		t.Errorf("alerts remain after deletion: %d", got)
	}

	// Fresh prices do not resurrect deleted alerts.
	if triggered := s.Evaluate("ETH", 2500); len(triggered) != 0 {
		t.Errorf("deleted alert re-fired: %v", triggered)
	}
}

func TestSymbolNormalization(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.Create("eth", types.DirectionAbove, 3000); err != nil {
		t.Fatal(err)
	}
	if triggered := s.Evaluate("ETH", 3500); len(triggered) != 1 {
		t.Fatalf("lowercase-created alert did not match uppercase symbol: %v", triggered)
	}
}
