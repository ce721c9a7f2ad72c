package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FORMATTING - decimal -> pt-BR display strings
// =============================================================================

// Format renders an amount with the currency prefix: "R$ 1.234,56".
func Format(d decimal.Decimal) string {
	return "R$ " + FormatNumber(d)
}

// FormatNumber renders an amount in pt-BR convention without the currency
// prefix: dot-grouped thousands, comma decimal, two decimal places.
func FormatNumber(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	whole, frac := parts[0], parts[1]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatPercent renders a fraction-of-total as a percent string with two
// decimal places: 0.3333 -> "33,33%".
func FormatPercent(fraction decimal.Decimal) string {
	return FormatNumber(fraction.Mul(decimal.NewFromInt(100))) + "%"
}
