// Package finance derives dashboard figures from backend responses.
package finance

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"NPR": "Rs",
}

// CurrencySymbol returns the display symbol for an ISO code, falling back to $.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return "$"
}

// FormatMoney renders a headline amount: grouped thousands, at most two
// decimals, trailing zeros dropped. e.g. 1234.5 -> "$1,234.5", 250 -> "$250"
func FormatMoney(code string, d decimal.Decimal) string {
	sym := CurrencySymbol(code)
	if d.IsNegative() {
		return "-" + sym + humanize.CommafWithDigits(d.Neg().Round(2).InexactFloat64(), 2)
	}
	return sym + humanize.CommafWithDigits(d.Round(2).InexactFloat64(), 2)
}

// FormatAmount renders a line-item amount with exactly two decimals.
// e.g. 12.5 -> "$12.50"
func FormatAmount(code string, d decimal.Decimal) string {
	sym := CurrencySymbol(code)
	if d.IsNegative() {
		return "-" + sym + humanize.FormatFloat("#,###.##", d.Neg().InexactFloat64())
	}
	return sym + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// Sum adds up category totals.
func Sum[T any](items []T, value func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(value(it))
	}
	return total
}
