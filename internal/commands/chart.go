package commands

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"

	"cryptopulse-bot/internal/market"
	"cryptopulse-bot/internal/types"
	"cryptopulse-bot/lib/helpers"
)

// CommandChart renders the locally sampled price history of a tracked
// token as a PNG. Returns the image, a MarkdownV2 caption, and an error
// when the symbol is unknown or too few samples exist yet.
func CommandChart(w *market.Watcher, symbol string) ([]byte, string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	token, ok := w.Token(symbol)
	if !ok {
		return nil, "", errors.Errorf("unknown dashboard symbol: %s", symbol)
	}

	samples := w.History(token.Symbol)
	if len(samples) < 2 {
		return nil, "", errors.New("not enough samples collected yet")
	}

	times := make([]time.Time, 0, len(samples))
	prices := make([]float64, 0, len(samples))
	for _, s := range samples {
		times = append(times, s.At)
		prices = append(prices, s.Price)
	}

	decimals := types.PriceDecimals(token.Symbol)
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s sampled price (USD)", token.Symbol),
		Width:  1200,
		Height: 400,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatPrice(f, decimals)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    token.Symbol,
				XValues: times,
				YValues: prices,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, "", errors.Wrap(err, "failed to render chart")
	}

	span := samples[len(samples)-1].At.Sub(samples[0].At).Round(time.Second)
	caption := fmt.Sprintf("*%s* \\- %s",
		helpers.EscapeMarkdownV2(token.Symbol),
		helpers.EscapeMarkdownV2(fmt.Sprintf("%d samples over %s", len(samples), span)),
	)
	if token.Synthesized {
		caption += helpers.EscapeMarkdownV2(" (simulated)")
	}

	return buf.Bytes(), caption, nil
}
