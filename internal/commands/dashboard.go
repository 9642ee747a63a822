package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"cryptopulse-bot/internal/market"
	"cryptopulse-bot/internal/types"
	"cryptopulse-bot/lib/helpers"
)

// Static gas placeholders shown on the dashboard. These are not a live
// feed and are labelled as such in the rendered view.
const (
	gasSlowGwei     = 23
	gasStandardGwei = 28
	gasFastGwei     = 35
)

// CommandDashboard renders the full dashboard view: every tracked
// token with price and signed 24h change, the gas placeholders and the
// snapshot age.
func CommandDashboard(w *market.Watcher) string {
	tokens, updatedAt := w.Tokens()
	if updatedAt.IsZero() {
		return helpers.EscapeMarkdownV2("Waiting for the first price snapshot, try again in a few seconds.")
	}

	var b strings.Builder
	b.WriteString("*Market Dashboard*\n\n")

	for _, t := range tokens {
		line := fmt.Sprintf("▫️ %s (%s): $%s %s",
			t.Symbol,
			t.Name,
			helpers.FormatPrice(t.PriceUSD, types.PriceDecimals(t.Symbol)),
			helpers.FormatChange(t.Change24h),
		)
		if t.Synthesized {
			line += " [simulated]"
		}
		b.WriteString(helpers.EscapeMarkdownV2(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpers.EscapeMarkdownV2(fmt.Sprintf(
		"⛽ Gas (static placeholders): slow %d / standard %d / fast %d gwei",
		gasSlowGwei, gasStandardGwei, gasFastGwei,
	)))
	b.WriteString("\n")
	b.WriteString(helpers.EscapeMarkdownV2(fmt.Sprintf("Updated %s", humanize.Time(updatedAt))))

	return b.String()
}
