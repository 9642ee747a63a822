package helpers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SafeNumber coerces an externally sourced value into a finite float64.
// Missing, non-numeric, NaN and infinite values all become fallback, so
// feed data can be displayed or compared without further checks.
func SafeNumber(value interface{}, fallback float64) float64 {
	var f float64

	switch v := value.(type) {
	case nil:
		return fallback
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

// FormatPrice renders a price with a fixed number of decimal places.
func FormatPrice(price float64, decimals int) string {
	return strconv.FormatFloat(SafeNumber(price, 0), 'f', decimals, 64)
}

// FormatChange renders a 24h percent change with an explicit leading
// sign, two decimal places and a trailing percent sign.
func FormatChange(change float64) string {
	return fmt.Sprintf("%+.2f%%", SafeNumber(change, 0))
}

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatPriceUS formats a price with US thousand grouping and a decimal
// count adapted to the magnitude. Used for free-form lookups where the
// price range is unknown up front.
func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 6

	if price >= 1000 {
		decimals = 0
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	thousandSeparator := ","

	p := message.NewPrinter(language.English)
	withCommaThousandSep := p.Sprintf("%.*f", decimals, price)
	formatted := strings.ReplaceAll(withCommaThousandSep, ",", thousandSeparator)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}
