package commands

import (
	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cryptopulse-bot/config"
)

var paprikaClient *coinpaprika.Client

func init() {
	paprikaClient = getClient()
}

// GetTickerByQuery retrieves the current ticker for the best coin match
// of the given query (symbol or name).
func GetTickerByQuery(query string) (*coinpaprika.Ticker, error) {
	currency, err := searchCoin(query)
	if err != nil {
		return nil, errors.Wrap(err, "unable to find coin by query")
	}

	log.Debugf("best match for query '%s' is: %s", query, *currency.ID)

	tickerOpts := &coinpaprika.TickersOptions{Quotes: "USD"}
	ticker, err := paprikaClient.Tickers.GetByID(*currency.ID, tickerOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch ticker for %s", *currency.ID)
	}
	return ticker, nil
}

// searchCoin searches by symbol first, then falls back to a name search.
func searchCoin(query string) (*coinpaprika.Coin, error) {
	searchOpts := &coinpaprika.SearchOptions{
		Query:      query,
		Categories: "currencies",
		Modifier:   "symbol_search",
	}
	result, err := paprikaClient.Search.Search(searchOpts)
	if err != nil || len(result.Currencies) == 0 {
		log.Debugf("no results for symbol search, trying name search for '%s'", query)
		searchOpts = &coinpaprika.SearchOptions{Query: query, Categories: "currencies"}
		result, err = paprikaClient.Search.Search(searchOpts)
		if err != nil || len(result.Currencies) == 0 {
			return nil, errors.Errorf("invalid coin name, ticker, or symbol: %s", query)
		}
	}

	return result.Currencies[0], nil
}

func getClient() *coinpaprika.Client {
	apiProKey := config.GetString("api_pro_key")
	if apiProKey != "" {
		return coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiProKey))
	}
	return coinpaprika.NewClient(nil)
}
