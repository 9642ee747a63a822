package commands

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cryptopulse-bot/lib/helpers"
)

// CommandPrice looks up any coin on demand, independent of the fixed
// dashboard watchlist.
func CommandPrice(argument string) (string, error) {
	log.Debugf("processing command /p with argument: %s", argument)

	ticker, err := GetTickerByQuery(argument)
	if err != nil {
		return "", errors.Wrap(err, "command /p")
	}

	quote, ok := ticker.Quotes["USD"]
	if ticker.Name == nil || ticker.ID == nil || !ok || quote.Price == nil {
		return "", errors.Errorf("no current price for query: %s", argument)
	}

	text := fmt.Sprintf("*%s price:*\n\n▫️`$%s` *USD*",
		helpers.EscapeMarkdownV2(*ticker.Name),
		helpers.FormatPriceUS(*quote.Price, true),
	)
	if quote.PercentChange24h != nil {
		text += fmt.Sprintf("\n▫️`%s` *24h*", helpers.EscapeMarkdownV2(helpers.FormatChange(*quote.PercentChange24h)))
	}
	text += fmt.Sprintf("\n\n[See %s on CoinPaprika 🌶](https://coinpaprika.com/coin/%s)",
		helpers.EscapeMarkdownV2(*ticker.Name), *ticker.ID)

	return text, nil
}
