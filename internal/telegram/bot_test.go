package telegram

import (
	"testing"
)

func TestParseAlertArguments(t *testing.T) {
	cases := []struct {
		args      string
		symbol    string
		direction string
		threshold float64
		wantErr   bool
	}{
		{"ETH above 3000", "ETH", "above", 3000, false},
		{"eth below 2500.50", "ETH", "below", 2500.50, false},
		{" pulse below 0.005 ", "PULSE", "below", 0.005, false},
		{"ETH above", "", "", 0, true},
		{"ETH sideways 3000", "", "", 0, true},
		{"ETH above notaprice", "", "", 0, true},
		{"", "", "", 0, true},
	}

	for _, c := range cases {
		symbol, direction, threshold, err := ParseAlertArguments(c.args)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseAlertArguments(%q) accepted invalid input", c.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAlertArguments(%q) failed: %v", c.args, err)
			continue
		}
		if symbol != c.symbol || direction != c.direction || threshold != c.threshold {
			t.Errorf("ParseAlertArguments(%q) = %q %q %v, want %q %q %v",
				c.args, symbol, direction, threshold, c.symbol, c.direction, c.threshold)
		}
	}
}
