package market

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"cryptopulse-bot/internal/types"
	"cryptopulse-bot/lib/helpers"
)

const (
	// PollInterval drives the fetch cycle. The five fetched coins and
	// the interval are fixed; neither is user configurable.
	PollInterval = 15 * time.Second

	simplePriceURL = "https://api.coingecko.com/api/v3/simple/price" +
		"?ids=ethereum,bitcoin,usd-coin,chainlink,uniswap" +
		"&vs_currencies=usd&include_24hr_change=true"

	spotlightBasePrice = 0.00676
	spotlightContract  = "0x9f4a8c51dd8e3f2b07c1b7de6f4f7a2e38d1c0aa"

	// historySamples bounds the per-symbol chart history to roughly an
	// hour of 15 second samples.
	historySamples = 240
)

// coinSpec maps a feed id to the displayed token and the fallback price
// substituted when the feed omits or mangles the field.
type coinSpec struct {
	id            string
	symbol        string
	name          string
	fallbackPrice float64
}

var trackedCoins = []coinSpec{
	{id: "ethereum", symbol: "ETH", name: "Ethereum", fallbackPrice: 2340},
	{id: "bitcoin", symbol: "BTC", name: "Bitcoin", fallbackPrice: 43250},
	{id: "usd-coin", symbol: "USDC", name: "USD Coin", fallbackPrice: 1.00},
	{id: "chainlink", symbol: "LINK", name: "Chainlink", fallbackPrice: 14.85},
	{id: "uniswap", symbol: "UNI", name: "Uniswap", fallbackPrice: 6.42},
}

// Evaluator receives every fresh price once per poll cycle, the
// synthesized token included.
type Evaluator interface {
	HandlePrice(symbol string, price float64)
}

// Sample is one point of locally recorded price history.
type Sample struct {
	Price float64
	At    time.Time
}

// Config for a Watcher. Endpoint is overridable for tests only; the
// counters may be nil.
type Config struct {
	Endpoint     string
	Polls        prometheus.Counter
	PollFailures prometheus.Counter
}

// Watcher owns the token snapshot and the sampled price history. All
// reads go through its accessors; there is no package level state.
type Watcher struct {
	client       *http.Client
	endpoint     string
	evaluator    Evaluator
	polls        prometheus.Counter
	pollFailures prometheus.Counter

	mu        sync.RWMutex
	tokens    []types.Token
	updatedAt time.Time
	history   map[string][]Sample
}

func NewWatcher(cfg Config) *Watcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = simplePriceURL
	}
	return &Watcher{
		// No request timeout: a slow feed stalls its own cycle, never
		// the ticker.
		client:       &http.Client{},
		endpoint:     cfg.Endpoint,
		polls:        cfg.Polls,
		pollFailures: cfg.PollFailures,
		history:      make(map[string][]Sample),
	}
}

// SetEvaluator wires the alert evaluator. Must be called before Start.
func (w *Watcher) SetEvaluator(e Evaluator) {
	w.evaluator = e
}

// Start refreshes once immediately, then on every tick until the
// context is cancelled. A refresh slower than the interval is not
// guarded against overlap; the last completed refresh wins.
func (w *Watcher) Start(ctx context.Context) error {
	go w.Refresh()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			go w.Refresh()
		}
	}
}

// Refresh performs one fetch cycle: pull the snapshot, substitute
// fallbacks for broken fields, synthesize the spotlight token, swap the
// snapshot in and hand every price to the evaluator. Any transport or
// parse failure leaves the previous snapshot untouched.
func (w *Watcher) Refresh() {
	inc(w.polls)

	resp, err := w.client.Get(w.endpoint)
	if err != nil {
		inc(w.pollFailures)
		log.Errorf("failed to fetch prices: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		inc(w.pollFailures)
		log.Errorf("price feed returned status %d", resp.StatusCode)
		return
	}

	var quotes map[string]map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		inc(w.pollFailures)
		log.Errorf("failed to parse price feed response: %v", err)
		return
	}

	now := time.Now()
	tokens := make([]types.Token, 0, len(trackedCoins)+1)
	for _, c := range trackedCoins {
		quote := quotes[c.id]
		tokens = append(tokens, types.Token{
			Symbol:    c.symbol,
			Name:      c.name,
			PriceUSD:  helpers.SafeNumber(quote["usd"], c.fallbackPrice),
			Change24h: helpers.SafeNumber(quote["usd_24h_change"], 0),
		})
	}
	tokens = append(tokens, spotlightToken())

	w.mu.Lock()
	w.tokens = tokens
	w.updatedAt = now
	for _, t := range tokens {
		h := append(w.history[t.Symbol], Sample{Price: t.PriceUSD, At: now})
		if len(h) > historySamples {
			h = h[len(h)-historySamples:]
		}
		w.history[t.Symbol] = h
	}
	w.mu.Unlock()

	log.Debugf("price snapshot updated: %d tokens", len(tokens))

	if w.evaluator != nil {
		for _, t := range tokens {
			w.evaluator.HandlePrice(t.Symbol, t.PriceUSD)
		}
	}
}

// spotlightToken synthesizes the PULSE token. This is a simulation, not
// a feed: the price jitters uniformly within ±5% of a fixed base and
// the 24h change within ±4 percentage points.
func spotlightToken() types.Token {
	return types.Token{
		Symbol:          types.SpotlightSymbol,
		Name:            "Pulse",
		PriceUSD:        spotlightBasePrice * (1 + (rand.Float64()-0.5)*0.1),
		Change24h:       (rand.Float64() - 0.5) * 8,
		ContractAddress: spotlightContract,
		Synthesized:     true,
	}
}

// Tokens returns a copy of the current snapshot and its timestamp. The
// timestamp is zero until the first successful refresh.
func (w *Watcher) Tokens() ([]types.Token, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	tokens := make([]types.Token, len(w.tokens))
	copy(tokens, w.tokens)
	return tokens, w.updatedAt
}

// Token looks up one token from the current snapshot by symbol.
func (w *Watcher) Token(symbol string) (types.Token, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, t := range w.tokens {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return types.Token{}, false
}

// History returns a copy of the sampled price history for a symbol.
func (w *Watcher) History(symbol string) []Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	h := w.history[symbol]
	samples := make([]Sample, len(h))
	copy(samples, h)
	return samples
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
