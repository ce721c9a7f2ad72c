/*
Package money parses and formats Brazilian-convention monetary values.

PURPOSE:
  The upstream property-management API returns amounts in wildly
  inconsistent shapes: plain numbers, currency-formatted strings
  ("R$ 1.234,56"), percent strings ("10%"), and table cells with embedded
  HTML markup. This package reduces all of them to decimal.Decimal.

KEY RULES (Parse):
  - Empty input -> 0. There is no error return; unparseable means zero.
  - A literal '%' anywhere in the text divides the final result by 100.
  - HTML tags and the &nbsp; entity are stripped before extraction.
  - The first contiguous run matching -?\d[\d.,-]* is the number.
  - Separator disambiguation follows pt-BR convention:
      "1.234,56" -> 1234.56   (both: '.' thousands, ',' decimal)
      "1234,56"  -> 1234.56   (',' alone is decimal)
      "1.234"    -> 1234      ('.' alone with a 3-digit tail and a string
                               longer than 4 chars is a thousands separator)
      "1.23"     -> 1.23      (otherwise '.' alone is decimal)

KNOWN AMBIGUITY:
  "1.234" could plausibly mean 1.234 or 1234. The upstream UI renders
  thousands with dots, so the thousands reading wins here. Callers that
  need the other reading must pre-normalize.

DESIGN PRINCIPLE:
  Uses decimal.Decimal to avoid floating-point drift in money math;
  float64 only appears at the API boundary.

SEE ALSO:
  - format.go: The inverse direction (decimal -> "R$ 1.234,56")
  - accounts:  Account label parsing (codes, not amounts)
*/
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PARSING
// =============================================================================

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	numberRunRe = regexp.MustCompile(`-?\d[\d.,-]*`)
)

// Parse converts a heterogeneous upstream value into a decimal amount.
// See the package comment for the full rule set.
func Parse(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	percent := strings.Contains(s, "%")

	// Upstream cells may embed markup ("<b>R$&nbsp;100,00</b>").
	s = htmlTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	run := numberRunRe.FindString(s)
	if run == "" {
		return decimal.Zero
	}

	d, ok := normalizeRun(run)
	if !ok {
		return decimal.Zero
	}
	if percent {
		d = d.Div(decimal.NewFromInt(100))
	}
	return d
}

// ParseAny handles values straight out of a decoded JSON document, where
// amounts arrive as float64, string, or nothing at all.
func ParseAny(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		return Parse(v)
	default:
		return decimal.Zero
	}
}

// Factor converts a reajustment percent string into a multiplicative
// factor: "5" -> 1.05, "10%" -> 1.10, "" or garbage -> 1 (no change).
func Factor(pct string) decimal.Decimal {
	one := decimal.NewFromInt(1)
	parsed := Parse(pct)
	if parsed.IsZero() {
		return one
	}
	if strings.Contains(pct, "%") {
		// Parse already divided by 100.
		return one.Add(parsed)
	}
	return one.Add(parsed.Div(decimal.NewFromInt(100)))
}

// normalizeRun rewrites a pt-BR formatted digit run into decimal syntax.
func normalizeRun(run string) (decimal.Decimal, bool) {
	neg := strings.HasPrefix(run, "-")
	// Interior dashes come from ranges and markup artifacts; only a
	// leading dash is a sign.
	run = strings.ReplaceAll(run, "-", "")
	run = strings.Trim(run, ".,")
	if run == "" {
		return decimal.Zero, false
	}

	hasDot := strings.Contains(run, ".")
	hasComma := strings.Contains(run, ",")

	switch {
	case hasDot && hasComma:
		run = strings.ReplaceAll(run, ".", "")
		run = strings.Replace(run, ",", ".", 1)
	case hasComma:
		run = strings.Replace(run, ",", ".", 1)
	case hasDot:
		if thousandsDot(run) {
			run = strings.ReplaceAll(run, ".", "")
		} else if strings.Count(run, ".") > 1 {
			// "1.2.3" is malformed; keep the last dot as decimal.
			last := strings.LastIndex(run, ".")
			run = strings.ReplaceAll(run[:last], ".", "") + run[last:]
		}
	}

	d, err := decimal.NewFromString(run)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// thousandsDot reports whether a comma-free run uses '.' as a thousands
// separator: the segment after the last dot is exactly 3 digits and the
// run is longer than 4 characters ("1.234", "12.345.678").
func thousandsDot(run string) bool {
	last := strings.LastIndex(run, ".")
	if last < 0 {
		return false
	}
	return len(run)-last-1 == 3 && len(run) > 4
}
