/*
aggregate.go - Ledger entries -> per-period category summaries

PURPOSE:
  Drains the liquidated-expense ledger for each of the twelve reference
  periods and reduces it to CategorySummary lists: one {total, count}
  per (period, literal account label).

FETCH MODEL:
  Periods are independent, so all twelve fetches run concurrently and
  the reduce happens only after every one settles. A failed period
  degrades to zero entries with a PeriodWarning; it never aborts the
  other eleven.

BREAKDOWN SPLITTING:
  An entry may carry an apportionment breakdown. Each line's weight
  decides its share of the entry amount:
    weight in (0,1]  -> fraction of the entry amount
    weight > 1       -> already an absolute sub-amount
    weight <= 0      -> even split across the breakdown lines
  Entries without a breakdown attach whole to their own account label.

NOISE RULES:
  - Non-positive entry amounts are discarded and counted.
  - Rows with no resolvable account label land in the uncategorized
    bucket and are logged, not dropped.

SEE ALSO:
  - projection.go: consumes the summaries this file produces
*/
package budget

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/predial/budget-engine/upstream"
)

// =============================================================================
// AGGREGATION
// =============================================================================

// LedgerFetcher retrieves the fully drained liquidated entries of one
// period. upstream.Client satisfies it via a small adapter in session.go.
type LedgerFetcher func(ctx context.Context, p Period) ([]upstream.LedgerEntry, error)

// AggregateResult is the immutable outcome of one twelve-period fetch.
type AggregateResult struct {
	Periods   []Period
	Summaries [][]CategorySummary // one list per period, same order

	// Degradation accounting.
	Warnings       []PeriodWarning
	EntriesSkipped int
}

// Aggregate fetches and reduces all periods. The only error it returns
// is context cancellation; upstream failures degrade into Warnings.
func Aggregate(ctx context.Context, periods []Period, fetch LedgerFetcher, logger *slog.Logger) (*AggregateResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries := make([][]upstream.LedgerEntry, len(periods))
	fetchErrs := make([]error, len(periods))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range periods {
		i, p := i, p
		g.Go(func() error {
			list, err := fetch(gctx, p)
			if err != nil {
				// Degrade this period to empty; do not fail the group.
				fetchErrs[i] = err
				return nil
			}
			entries[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &AggregateResult{Periods: periods, Summaries: make([][]CategorySummary, len(periods))}
	for i, p := range periods {
		if fetchErrs[i] != nil {
			logger.Warn("period fetch degraded to empty",
				slog.String("period", p.Label), slog.Any("error", fetchErrs[i]))
			result.Warnings = append(result.Warnings, PeriodWarning{PeriodLabel: p.Label, Err: fetchErrs[i]})
		}
		summaries, skipped := summarize(entries[i], logger)
		result.Summaries[i] = summaries
		result.EntriesSkipped += skipped
	}
	return result, nil
}

// summarize reduces one period's entries to category summaries.
func summarize(entries []upstream.LedgerEntry, logger *slog.Logger) ([]CategorySummary, int) {
	totals := make(map[string]*CategorySummary)
	skipped := 0

	add := func(label string, amount decimal.Decimal) {
		if label == "" {
			logger.Warn("ledger row without account label, bucketing as uncategorized")
			label = UncategorizedLabel
		}
		s, ok := totals[label]
		if !ok {
			s = &CategorySummary{AccountLabel: label}
			totals[label] = s
		}
		s.Total = s.Total.Add(amount)
		s.Count++
	}

	for _, e := range entries {
		// Zero and negative amounts are reversal noise, not expenses.
		if !e.Amount.IsPositive() {
			skipped++
			continue
		}

		if len(e.Breakdown) == 0 {
			add(e.AccountLabel, e.Amount)
			continue
		}

		evenShare := e.Amount.Div(decimal.NewFromInt(int64(len(e.Breakdown))))
		one := decimal.NewFromInt(1)
		for _, line := range e.Breakdown {
			label := line.AccountLabel
			if label == "" {
				label = e.AccountLabel
			}
			var amount decimal.Decimal
			switch {
			case line.Weight.GreaterThan(one):
				amount = line.Weight // already absolute
			case line.Weight.IsPositive():
				amount = e.Amount.Mul(line.Weight)
			default:
				amount = evenShare
			}
			add(label, amount)
		}
	}

	out := make([]CategorySummary, 0, len(totals))
	for _, s := range totals {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountLabel < out[j].AccountLabel })
	return out, skipped
}
