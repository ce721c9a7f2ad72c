/*
apportion.go - Per-unit split of the projected monthly average

PURPOSE:
  Distributes the projected monthly average across a property's units,
  proportionally to each unit's ownership fraction.

WEIGHTS:
  sum = Σ max(fraction, 0) over all units
  sum > 0  -> weight = fraction / sum
  sum == 0 -> weight = 1 / unitCount (equal split), flagged as degraded
              so the UI can disclose the registry has no fractions

ROUNDING:
  No residual redistribution. The row sum may differ from the nominal
  total by decimal division epsilon only; callers compare with tolerance,
  not exact equality.
*/
package budget

import (
	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/upstream"
)

// =============================================================================
// APPORTIONMENT
// =============================================================================

// ApportionmentRow is one unit's share. Derived, never persisted.
type ApportionmentRow struct {
	Unit           upstream.Unit
	PercentOfTotal decimal.Decimal
	MonthlyValue   decimal.Decimal
}

// ApportionmentResult carries the rows plus the degraded-mode flag.
type ApportionmentResult struct {
	Rows []ApportionmentRow

	// EqualSplit is true when no unit had a usable ownership fraction
	// and the split fell back to 1/unitCount. Not an error.
	EqualSplit bool
}

// Apportion splits the monthly average across units. An empty unit list
// yields an empty result.
func Apportion(monthlyAverage decimal.Decimal, units []upstream.Unit) ApportionmentResult {
	if len(units) == 0 {
		return ApportionmentResult{}
	}

	sum := decimal.Zero
	for _, u := range units {
		if u.OwnershipFraction.IsPositive() {
			sum = sum.Add(u.OwnershipFraction)
		}
	}

	result := ApportionmentResult{
		Rows:       make([]ApportionmentRow, 0, len(units)),
		EqualSplit: !sum.IsPositive(),
	}

	hundred := decimal.NewFromInt(100)
	equalWeight := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(units))))
	for _, u := range units {
		var weight decimal.Decimal
		if result.EqualSplit {
			weight = equalWeight
		} else if u.OwnershipFraction.IsPositive() {
			weight = u.OwnershipFraction.Div(sum)
		}
		result.Rows = append(result.Rows, ApportionmentRow{
			Unit:           u,
			PercentOfTotal: weight.Mul(hundred),
			MonthlyValue:   monthlyAverage.Mul(weight),
		})
	}
	return result
}
