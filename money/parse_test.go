package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predial/budget-engine/money"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_MonetaryStrings(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want decimal.Decimal
	}{
		{"empty", "", dec("0")},
		{"whitespace", "   ", dec("0")},
		{"no digits", "n/a", dec("0")},
		{"plain integer", "42", dec("42")},
		{"negative", "-7", dec("-7")},
		{"currency br", "R$ 1.234,56", dec("1234.56")},
		{"currency negative", "R$ -1.234,56", dec("-1234.56")},
		{"comma decimal", "1234,56", dec("1234.56")},
		{"dot decimal short", "1.23", dec("1.23")},
		{"dot thousands", "1.234", dec("1234")},
		{"dot thousands long", "12.345.678", dec("12345678")},
		{"percent", "10%", dec("0.10")},
		{"percent with comma", "12,5%", dec("0.125")},
		{"html polluted", "<b>R$&nbsp;100,00</b>", dec("100")},
		{"text around number", "total de 250,75 pagos", dec("250.75")},
		{"malformed extra dots", "1.2.3", dec("12.3")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := money.Parse(tc.in)
			assert.True(t, got.Equal(tc.want), "Parse(%q) = %s, want %s", tc.in, got, tc.want)
		})
	}
}

func TestParse_RoundTripsFormat(t *testing.T) {
	// GIVEN: representative amounts
	// WHEN: formatting then parsing back
	// THEN: the value survives within a cent

	for _, s := range []string{"0", "0.01", "1234.56", "-7", "1000000"} {
		d := dec(s)
		back := money.Parse(money.Format(d))
		diff := back.Sub(d).Abs()
		assert.True(t, diff.LessThanOrEqual(dec("0.01")),
			"round trip %s -> %q -> %s", d, money.Format(d), back)
	}
}

func TestParseAny_JSONShapes(t *testing.T) {
	assert.True(t, money.ParseAny(nil).IsZero())
	assert.True(t, money.ParseAny(12.5).Equal(dec("12.5")))
	assert.True(t, money.ParseAny("R$ 10,00").Equal(dec("10")))
	assert.True(t, money.ParseAny(7).Equal(dec("7")))
	assert.True(t, money.ParseAny([]string{"x"}).IsZero())
}

// =============================================================================
// FACTOR TESTS
// =============================================================================

func TestFactor_ReajustmentStrings(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5", "1.05"},
		{"10%", "1.1"},
		{"12,5", "1.125"},
		{"0", "1"},
		{"", "1"},
		{"abc", "1"},
		{"-10", "0.9"},
	}
	for _, tc := range cases {
		got := money.Factor(tc.in)
		assert.True(t, got.Equal(dec(tc.want)), "Factor(%q) = %s, want %s", tc.in, got, tc.want)
	}
}

// =============================================================================
// FORMAT TESTS
// =============================================================================

func TestFormat_BrazilianConvention(t *testing.T) {
	require.Equal(t, "R$ 1.234,56", money.Format(dec("1234.56")))
	assert.Equal(t, "R$ 0,00", money.Format(dec("0")))
	assert.Equal(t, "-1.000.000,00", money.FormatNumber(dec("-1000000")))
	assert.Equal(t, "33,33%", money.FormatPercent(dec("0.3333")))
}
