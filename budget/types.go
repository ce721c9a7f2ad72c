/*
Package budget is the budget-projection engine.

PURPOSE:
  Takes twelve months of liquidated-expense ledger entries, aggregates
  them into a chart-of-accounts hierarchy keyed by two-segment parent
  accounts, applies operator-supplied reajustment percentages to project
  the matching months one year ahead, honors manual per-cell overrides,
  and apportions the projected monthly average across units by ownership
  fraction.

PIPELINE:
  GeneratePeriods -> Aggregate -> Project -> Apportion

  Each stage is a pure function over the previous stage's output plus the
  operator's two mutable maps (reajustment indices, manual overrides).
  There is no incremental recomputation: any input change rebuilds the
  whole table from the aggregated summaries. Session wraps the pipeline
  with the mutable state and a last-request-wins generation counter.

KEY CONCEPTS IN THIS FILE (types.go):
  - ColumnKey:       one cell column of the projection table
  - CategorySummary: per (period, account label) aggregate
  - ChildRow/ParentRow: the hierarchical display rows
  - Indices/Overrides: the operator's two mutable maps

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every amount, no float money math
  2. Purity: Project is total and stateless; same inputs, same table
  3. Degradation over failure: a broken period becomes an empty period,
     never an aborted projection

SEE ALSO:
  - period.go:     the twelve-month reference window
  - aggregate.go:  ledger entries -> CategorySummary
  - projection.go: CategorySummary + indices + overrides -> rows
  - apportion.go:  projected average -> per-unit split
  - session.go:    mutable operator state around the pure pipeline
*/
package budget

import (
	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/accounts"
)

// =============================================================================
// COLUMNS
// =============================================================================

// ColumnKey identifies one column of the projection table: a month in
// the reference window, its projected counterpart one year ahead, or one
// of the two total columns.
type ColumnKey string

const (
	ColumnTotalRef  ColumnKey = "Total (Ref.)"
	ColumnTotalProj ColumnKey = "Total (Proj.)"
)

// RefColumn is the reference column for a period label: "Mai/2025 (Ref.)".
func RefColumn(periodLabel string) ColumnKey {
	return ColumnKey(periodLabel + " (Ref.)")
}

// ProjColumn is the projected column for the matching month one year
// ahead: "Mai/2026 (Proj.)".
func ProjColumn(projectedLabel string) ColumnKey {
	return ColumnKey(projectedLabel + " (Proj.)")
}

// =============================================================================
// AGGREGATES
// =============================================================================

// CategorySummary is the per (period, account label) aggregate built
// once per fetch and never mutated afterwards.
type CategorySummary struct {
	AccountLabel string
	Total        decimal.Decimal
	Count        int
}

// UncategorizedLabel is the bucket for ledger rows whose account label
// could not be resolved. Such rows are kept and logged, never dropped.
const UncategorizedLabel = "(sem categoria)"

// =============================================================================
// ROWS
// =============================================================================

// ChildRow is one account line under a parent account. Key doubles as
// the override row key.
type ChildRow struct {
	Key        string // the literal account label
	Account    accounts.Info
	ParentCode string
	Values     map[ColumnKey]decimal.Decimal
}

// ParentRow groups child rows under one two-segment parent account. Its
// column values are sums of the children's, by construction.
type ParentRow struct {
	Code          string
	Label         string // enriched with the plan description when known
	Extraordinary bool
	Values        map[ColumnKey]decimal.Decimal
	Children      []ChildRow
}

// =============================================================================
// OPERATOR STATE - the two mutable maps
// =============================================================================

// Indices maps parent-account code to the operator's reajustment percent
// string ("5" = +5%). Missing or unparseable entries mean "no change".
type Indices map[string]string

// OverrideKey addresses one exact cell of the table.
type OverrideKey struct {
	RowKey string
	Column ColumnKey
}

// Overrides holds the operator's manual per-cell edits. Sparse; an entry
// wins over the computed value for its exact cell only.
type Overrides map[OverrideKey]decimal.Decimal
