package budget_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predial/budget-engine/budget"
	"github.com/predial/budget-engine/upstream"
)

func unit(id, frac string) upstream.Unit {
	return upstream.Unit{ID: id, Name: "Unidade " + id, OwnershipFraction: dec(frac)}
}

func TestApportion_ProportionalSplit(t *testing.T) {
	// GIVEN: 1200.00/month over fractions {0.5, 0.3, 0.2}
	// THEN: monthly values {600, 360, 240}, percents summing to 100

	res := budget.Apportion(dec("1200"), []upstream.Unit{
		unit("101", "0.5"), unit("102", "0.3"), unit("103", "0.2"),
	})

	require.Len(t, res.Rows, 3)
	assert.False(t, res.EqualSplit)

	assert.True(t, res.Rows[0].MonthlyValue.Equal(dec("600")))
	assert.True(t, res.Rows[1].MonthlyValue.Equal(dec("360")))
	assert.True(t, res.Rows[2].MonthlyValue.Equal(dec("240")))

	percentSum := decimal.Zero
	for _, r := range res.Rows {
		percentSum = percentSum.Add(r.PercentOfTotal)
	}
	assert.True(t, percentSum.Sub(dec("100")).Abs().LessThan(dec("0.000001")),
		"percent sum = %s", percentSum)
}

func TestApportion_AllZeroFractionsFallBackToEqualSplit(t *testing.T) {
	res := budget.Apportion(dec("1200"), []upstream.Unit{
		unit("101", "0"), unit("102", "0"), unit("103", "0"), unit("104", "0"),
	})

	require.Len(t, res.Rows, 4)
	assert.True(t, res.EqualSplit, "degraded mode must be surfaced")
	for _, r := range res.Rows {
		assert.True(t, r.PercentOfTotal.Equal(dec("25")))
		assert.True(t, r.MonthlyValue.Equal(dec("300")))
	}
}

func TestApportion_NegativeFractionTreatedAsZero(t *testing.T) {
	res := budget.Apportion(dec("100"), []upstream.Unit{
		unit("101", "-0.5"), unit("102", "0.5"),
	})

	assert.False(t, res.EqualSplit)
	assert.True(t, res.Rows[0].MonthlyValue.IsZero())
	assert.True(t, res.Rows[1].MonthlyValue.Equal(dec("100")))
}

func TestApportion_RowSumWithinEpsilonOfTotal(t *testing.T) {
	// Seven units with a fraction that does not divide evenly.
	units := make([]upstream.Unit, 7)
	for i := range units {
		units[i] = unit(string(rune('A'+i)), "0.142857")
	}

	res := budget.Apportion(dec("1000"), units)
	sum := decimal.Zero
	for _, r := range res.Rows {
		sum = sum.Add(r.MonthlyValue)
	}
	assert.True(t, sum.Sub(dec("1000")).Abs().LessThan(dec("0.000001")),
		"row sum = %s", sum)
}

func TestApportion_NoUnits(t *testing.T) {
	res := budget.Apportion(dec("1200"), nil)
	assert.Empty(t, res.Rows)
}
