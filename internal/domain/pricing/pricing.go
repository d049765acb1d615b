// Package pricing holds exchange rates and converts catalog base-currency
// amounts into display prices.
package pricing

import (
	"github.com/shopspring/decimal"
)

// BaseCurrency is the catalog currency. All stored amounts are in this
// currency; conversion happens at display time only.
const BaseCurrency = "USD"

// priceEnding is the branding convention for display prices: converted
// amounts are floored and this ending is added. The conversion is lossy on
// purpose and never round-trips.
var priceEnding = decimal.RequireFromString("0.88")

// fallbackRates is the built-in rate table, used before the first successful
// refresh and whenever the upstream rate source is unavailable.
var fallbackRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.RequireFromString("0.92"),
	"GBP": decimal.RequireFromString("0.79"),
	"CAD": decimal.RequireFromString("1.36"),
	"AUD": decimal.RequireFromString("1.52"),
	"CHF": decimal.RequireFromString("0.88"),
	"SEK": decimal.RequireFromString("10.45"),
	"AED": decimal.RequireFromString("3.67"),
}

// symbols maps currency codes to their display symbols. Codes without an
// entry are rendered with the code itself as a prefix.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "CA$",
	"AUD": "A$",
	"CHF": "CHF ",
	"SEK": "kr ",
	"AED": "AED ",
}

// Symbol returns the display symbol for a currency code.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}

// FallbackRates returns a copy of the built-in rate table.
func FallbackRates() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(fallbackRates))
	for code, rate := range fallbackRates {
		out[code] = rate
	}
	return out
}
