package types

// Alert directions. An "above" alert fires at price >= threshold, a
// "below" alert at price <= threshold.
const (
	DirectionAbove = "above"
	DirectionBelow = "below"
)

// SpotlightSymbol is the locally synthesized token. Its price is never
// fetched from any feed and sits well below a dollar, so it is rendered
// with five decimal places wherever prices appear.
const SpotlightSymbol = "PULSE"

// PriceDecimals returns the number of decimal places used when
// rendering a price for the given symbol.
func PriceDecimals(symbol string) int {
	if symbol == SpotlightSymbol {
		return 5
	}
	return 2
}

// Token is one tracked asset in the dashboard snapshot. Tokens are
// rebuilt from scratch on every poll cycle and never persisted.
type Token struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	PriceUSD        float64 `json:"price_usd"`
	Change24h       float64 `json:"percent_change_24h"`
	ContractAddress string  `json:"contract_address,omitempty"`
	Synthesized     bool    `json:"synthesized,omitempty"`
}

// PriceAlert is a one-shot threshold rule. Once triggered it is marked
// inactive and never evaluated again; deletion is the only way out of
// the alert set.
type PriceAlert struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Direction string  `json:"direction"`
	Threshold float64 `json:"threshold"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
}
