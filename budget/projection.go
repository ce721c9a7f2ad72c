/*
projection.go - Reference/projected table construction

PURPOSE:
  Builds the full projection table from the aggregated category
  summaries, the operator's reajustment indices, and any manual cell
  overrides. This is the spreadsheet heart of the engine.

COLUMN MODEL:
  For each reference period "Mai/2025" the table has a reference column
  "Mai/2025 (Ref.)" and a projected column "Mai/2026 (Proj.)" - the same
  calendar month one year ahead. Two total columns close the table.

VALUE RULES (per child row and source period):
  reference  = summary total for the period, unless overridden
  factor     = 1 for extraordinary parents,
               1 + pct/100 for the parent's reajustment index otherwise
               (missing or unparseable index -> 1)
  projected  = reference * factor, unless overridden
  An override wins for its exact (row, column) cell and nothing else.
  Reference overrides feed the projected computation.

HIERARCHY RULES:
  parent value  = sum of its children's values, per column
  grand total   = sum of ordinary (non-extraordinary) parents, per column
  Extraordinary parents stay in the table but out of the grand total.

RECOMPUTATION:
  Total and stateless. Every index edit, override edit or fresh fetch
  rebuilds the whole table from the summaries. No memoization, no
  incremental deltas - callers get the same table for the same inputs.

SEE ALSO:
  - aggregate.go: produces the summaries
  - session.go:   owns the mutable inputs and triggers recomputes
*/
package budget

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/accounts"
	"github.com/predial/budget-engine/money"
)

// =============================================================================
// PROJECTION
// =============================================================================

// ProjectionInput carries everything Project needs. Summaries must be
// index-aligned with Periods.
type ProjectionInput struct {
	Periods   []Period
	Summaries [][]CategorySummary
	Plan      accounts.Plan
	Indices   Indices
	Overrides Overrides
}

// ProjectionResult is one fully built table.
type ProjectionResult struct {
	Periods    []Period
	Columns    []ColumnKey // display order: refs, Total (Ref.), projs, Total (Proj.)
	Parents    []ParentRow // ordered by account code
	GrandTotal map[ColumnKey]decimal.Decimal
}

// MonthlyAverage is the projected annual grand total divided by twelve,
// the input to apportionment.
func (r *ProjectionResult) MonthlyAverage() decimal.Decimal {
	return r.GrandTotal[ColumnTotalProj].Div(decimal.NewFromInt(ReferenceWindow))
}

// ParentCodes lists the discovered parent accounts in display order.
func (r *ProjectionResult) ParentCodes() []string {
	codes := make([]string, len(r.Parents))
	for i, p := range r.Parents {
		codes[i] = p.Code
	}
	return codes
}

// Project rebuilds the whole table. Pure: no I/O, no retained state.
func Project(in ProjectionInput) *ProjectionResult {
	children := buildChildren(in)
	parents := buildParents(children, in.Plan)

	columns := tableColumns(in.Periods)
	grand := make(map[ColumnKey]decimal.Decimal, len(columns))
	for _, col := range columns {
		grand[col] = decimal.Zero
	}
	for _, parent := range parents {
		if parent.Extraordinary {
			continue
		}
		for col, v := range parent.Values {
			grand[col] = grand[col].Add(v)
		}
	}

	return &ProjectionResult{
		Periods:    in.Periods,
		Columns:    columns,
		Parents:    parents,
		GrandTotal: grand,
	}
}

func tableColumns(periods []Period) []ColumnKey {
	cols := make([]ColumnKey, 0, 2*len(periods)+2)
	for _, p := range periods {
		cols = append(cols, RefColumn(p.Label))
	}
	cols = append(cols, ColumnTotalRef)
	for _, p := range periods {
		cols = append(cols, ProjColumn(p.ProjectedLabel()))
	}
	return append(cols, ColumnTotalProj)
}

// buildChildren turns the per-period summaries into one child row per
// account label with all columns filled in.
func buildChildren(in ProjectionInput) map[string]*ChildRow {
	children := make(map[string]*ChildRow)

	// Discover rows and their per-period reference totals.
	refTotals := make(map[string]map[int]decimal.Decimal)
	for i, summaries := range in.Summaries {
		for _, s := range summaries {
			if _, ok := children[s.AccountLabel]; !ok {
				info := accounts.Parse(s.AccountLabel)
				parentSource := info.Code
				if parentSource == "" {
					parentSource = s.AccountLabel
				}
				children[s.AccountLabel] = &ChildRow{
					Key:        s.AccountLabel,
					Account:    info,
					ParentCode: accounts.ParentCode(parentSource),
					Values:     make(map[ColumnKey]decimal.Decimal),
				}
				refTotals[s.AccountLabel] = make(map[int]decimal.Decimal)
			}
			refTotals[s.AccountLabel][i] = s.Total
		}
	}

	for _, child := range children {
		extraordinary := accounts.IsExtraordinary(child.ParentCode, in.Plan, child.Key)
		factor := decimal.NewFromInt(1)
		if !extraordinary {
			factor = money.Factor(in.Indices[child.ParentCode])
		}

		totalRef := decimal.Zero
		totalProj := decimal.Zero
		for i, p := range in.Periods {
			ref := refTotals[child.Key][i] // zero when the period had no entries
			refCol := RefColumn(p.Label)
			if ov, ok := in.Overrides[OverrideKey{RowKey: child.Key, Column: refCol}]; ok {
				ref = ov
			}

			proj := ref.Mul(factor)
			projCol := ProjColumn(p.ProjectedLabel())
			if ov, ok := in.Overrides[OverrideKey{RowKey: child.Key, Column: projCol}]; ok {
				proj = ov
			}

			child.Values[refCol] = ref
			child.Values[projCol] = proj
			totalRef = totalRef.Add(ref)
			totalProj = totalProj.Add(proj)
		}

		if ov, ok := in.Overrides[OverrideKey{RowKey: child.Key, Column: ColumnTotalRef}]; ok {
			totalRef = ov
		}
		if ov, ok := in.Overrides[OverrideKey{RowKey: child.Key, Column: ColumnTotalProj}]; ok {
			totalProj = ov
		}
		child.Values[ColumnTotalRef] = totalRef
		child.Values[ColumnTotalProj] = totalProj
	}

	return children
}

// buildParents groups child rows by parent code, sums their columns and
// orders everything by account code.
func buildParents(children map[string]*ChildRow, plan accounts.Plan) []ParentRow {
	byCode := make(map[string]*ParentRow)
	for _, child := range children {
		parent, ok := byCode[child.ParentCode]
		if !ok {
			parent = &ParentRow{
				Code:          child.ParentCode,
				Label:         plan.DisplayLabel(child.ParentCode),
				Extraordinary: accounts.IsExtraordinary(child.ParentCode, plan, child.Key),
				Values:        make(map[ColumnKey]decimal.Decimal),
			}
			byCode[child.ParentCode] = parent
		}
		// One extraordinary child marks the whole parent.
		if accounts.IsExtraordinary(child.ParentCode, plan, child.Key) {
			parent.Extraordinary = true
		}
		parent.Children = append(parent.Children, *child)
		for col, v := range child.Values {
			parent.Values[col] = parent.Values[col].Add(v)
		}
	}

	parents := make([]ParentRow, 0, len(byCode))
	for _, p := range byCode {
		sort.Slice(p.Children, func(i, j int) bool {
			return accounts.Compare(p.Children[i].Key, p.Children[j].Key) < 0
		})
		parents = append(parents, *p)
	}
	sort.Slice(parents, func(i, j int) bool {
		return accounts.Compare(parents[i].Code, parents[j].Code) < 0
	})
	return parents
}
