package market

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"cryptopulse-bot/internal/types"
)

type recordingEvaluator struct {
	prices map[string]float64
}

func (e *recordingEvaluator) HandlePrice(symbol string, price float64) {
	if e.prices == nil {
		e.prices = map[string]float64{}
	}
	e.prices[symbol] = price
}

const fullResponse = `{
	"ethereum": {"usd": 2501.5, "usd_24h_change": 1.23},
	"bitcoin": {"usd": 44100, "usd_24h_change": -0.5},
	"usd-coin": {"usd": 0.9998, "usd_24h_change": 0.01},
	"chainlink": {"usd": 15.2, "usd_24h_change": 3.4},
	"uniswap": {"usd": 6.8, "usd_24h_change": -2.1}
}`

func newTestWatcher(t *testing.T, handler http.HandlerFunc) (*Watcher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewWatcher(Config{Endpoint: server.URL}), server
}

func tokenBySymbol(t *testing.T, tokens []types.Token, symbol string) types.Token {
	t.Helper()
	for _, tok := range tokens {
		if tok.Symbol == symbol {
			return tok
		}
	}
	t.Fatalf("token %s missing from snapshot %v", symbol, tokens)
	return types.Token{}
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	w, _ := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(fullResponse))
	})
	eval := &recordingEvaluator{}
	w.SetEvaluator(eval)

	w.Refresh()

	tokens, updatedAt := w.Tokens()
	if updatedAt.IsZero() {
		t.Fatal("snapshot timestamp not set after a successful refresh")
	}
	if len(tokens) != 6 {
		t.Fatalf("expected 5 fetched tokens plus the spotlight token, got %d", len(tokens))
	}

	if eth := tokenBySymbol(t, tokens, "ETH"); eth.PriceUSD != 2501.5 || eth.Change24h != 1.23 {
		t.Errorf("ETH token = %+v", eth)
	}

	spot := tokenBySymbol(t, tokens, types.SpotlightSymbol)
	if !spot.Synthesized {
		t.Error("spotlight token not marked as synthesized")
	}
	if spot.PriceUSD < spotlightBasePrice*0.95 || spot.PriceUSD > spotlightBasePrice*1.05 {
		t.Errorf("spotlight price %v outside the jitter range", spot.PriceUSD)
	}
	if spot.ContractAddress == "" {
		t.Error("spotlight token missing contract address")
	}

	// Every token, the synthesized one included, reaches the evaluator.
	if len(eval.prices) != 6 {
		t.Fatalf("evaluator saw %d symbols, want 6: %v", len(eval.prices), eval.prices)
	}
	if eval.prices[types.SpotlightSymbol] != spot.PriceUSD {
		t.Errorf("evaluator saw spotlight price %v, snapshot has %v",
			eval.prices[types.SpotlightSymbol], spot.PriceUSD)
	}
}

func TestRefreshSubstitutesFallbacks(t *testing.T) {
	w, _ := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		// Missing coins and mangled fields both fall back.
		rw.Write([]byte(`{"ethereum": {"usd": "garbage"}}`))
	})

	w.Refresh()

	tokens, _ := w.Tokens()
	fallbacks := map[string]float64{
		"ETH":  2340,
		"BTC":  43250,
		"USDC": 1.00,
		"LINK": 14.85,
		"UNI":  6.42,
	}
	for symbol, want := range fallbacks {
		tok := tokenBySymbol(t, tokens, symbol)
		if tok.PriceUSD != want {
			t.Errorf("%s fallback price = %v, want %v", symbol, tok.PriceUSD, want)
		}
		if tok.Change24h != 0 {
			t.Errorf("%s fallback change = %v, want 0", symbol, tok.Change24h)
		}
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	fail := false
	w, _ := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		if fail {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		rw.Write([]byte(fullResponse))
	})

	w.Refresh()
	before, beforeAt := w.Tokens()

	fail = true
	w.Refresh()

	after, afterAt := w.Tokens()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("failed refresh changed the snapshot:\nbefore %v\nafter  %v", before, after)
	}
	if !beforeAt.Equal(afterAt) {
		t.Errorf("failed refresh changed the snapshot timestamp")
	}
}

func TestRefreshBadJSONKeepsSnapshot(t *testing.T) {
	garbage := false
	w, _ := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		if garbage {
			rw.Write([]byte(`{"ethereum": `))
			return
		}
		rw.Write([]byte(fullResponse))
	})

	w.Refresh()
	before, _ := w.Tokens()

	garbage = true
	w.Refresh()

	after, _ := w.Tokens()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("parse failure changed the snapshot")
	}
}

func TestHistoryAccumulates(t *testing.T) {
	w, _ := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(fullResponse))
	})

	w.Refresh()
	w.Refresh()

	if got := len(w.History("ETH")); got != 2 {
		t.Errorf("ETH history has %d samples, want 2", got)
	}
	if got := len(w.History(types.SpotlightSymbol)); got != 2 {
		t.Errorf("spotlight history has %d samples, want 2", got)
	}
	if got := len(w.History("NOPE")); got != 0 {
		t.Errorf("unknown symbol has %d samples, want 0", got)
	}
}
