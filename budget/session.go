/*
session.go - Operator session around the pure projection pipeline

PURPOSE:
  Owns the mutable state of one projection workspace: selected property,
  closing month, aggregated summaries, the reajustment-index map and the
  manual-override map. All mutation goes through the setters; every
  setter triggers a full recompute of the table.

LAST REQUEST WINS:
  Generate releases the lock while fetching. The operator may change the
  property or closing month before a previous fetch resolves; a
  generation counter makes the stale fetch discard itself (ErrSuperseded)
  instead of clobbering the newer result.

STATE LIFECYCLE:
  Generate   -> resets overrides, re-seeds indices ("0" per discovered
                parent, keeping values for parents that survived), new table
  SetIndex   -> recompute
  SetOverride-> recompute
  Apportion  -> fetch units once, split the current monthly average

Session is safe for concurrent use; in practice a single UI drives it.
*/
package budget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/accounts"
	"github.com/predial/budget-engine/upstream"
)

// =============================================================================
// SERVICE - stateless pipeline runner
// =============================================================================

// Service runs the projection pipeline against an upstream client.
type Service struct {
	Upstream upstream.Client
	Logger   *slog.Logger
}

func NewService(client upstream.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Upstream: client, Logger: logger}
}

// fetchAggregate loads the chart of accounts and the twelve periods of
// ledger entries for one property.
func (s *Service) fetchAggregate(ctx context.Context, propertyID string, closing time.Time) (*AggregateResult, accounts.Plan, error) {
	planAccounts, err := s.Upstream.FetchChartOfAccounts(ctx, propertyID)
	if err != nil {
		// The plan only enriches labels; a missing chart degrades to raw codes.
		s.Logger.Warn("chart of accounts unavailable, using raw codes",
			slog.String("property", propertyID), slog.Any("error", err))
		planAccounts = nil
	}
	plan := make(accounts.Plan, len(planAccounts))
	for _, pa := range planAccounts {
		plan[pa.Code] = pa.Description
	}

	periods := GeneratePeriods(closing)
	fetch := func(ctx context.Context, p Period) ([]upstream.LedgerEntry, error) {
		return s.Upstream.FetchLiquidatedExpenses(ctx, propertyID, p.Start, p.End)
	}
	agg, err := Aggregate(ctx, periods, fetch, s.Logger)
	if err != nil {
		return nil, nil, err
	}
	return agg, plan, nil
}

// =============================================================================
// SESSION - one operator workspace
// =============================================================================

type Session struct {
	svc *Service

	mu         sync.Mutex
	generation uint64

	propertyID string
	closing    time.Time
	plan       accounts.Plan
	agg        *AggregateResult

	indices   Indices
	overrides Overrides

	result *ProjectionResult
	units  []upstream.Unit
}

func NewSession(svc *Service) *Session {
	return &Session{
		svc:       svc,
		indices:   make(Indices),
		overrides: make(Overrides),
	}
}

// Generate fetches and builds a fresh projection for the property and
// closing month. Manual overrides are cleared; reajustment indices are
// re-seeded with "0" for every discovered parent, preserving the
// operator's values for parents that are still present.
func (s *Session) Generate(ctx context.Context, propertyID string, closing time.Time) (*ProjectionResult, error) {
	if propertyID == "" {
		return nil, ErrPropertyRequired
	}
	if closing.IsZero() {
		return nil, ErrClosingMonthRequired
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	agg, plan, err := s.svc.fetchAggregate(ctx, propertyID, closing)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrSuperseded
	}

	s.propertyID = propertyID
	s.closing = closing
	s.plan = plan
	s.agg = agg
	s.overrides = make(Overrides)
	s.units = nil

	s.result = s.recomputeLocked()
	s.reseedIndicesLocked()
	return s.result, nil
}

// reseedIndicesLocked defaults every discovered parent to "0" and drops
// indices for parents that no longer exist.
func (s *Session) reseedIndicesLocked() {
	next := make(Indices)
	for _, code := range s.result.ParentCodes() {
		if v, ok := s.indices[code]; ok {
			next[code] = v
		} else {
			next[code] = "0"
		}
	}
	s.indices = next
}

// SetReajustmentIndex records the percent string for one parent account
// and recomputes the table.
func (s *Session) SetReajustmentIndex(parentCode, percent string) (*ProjectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agg == nil {
		return nil, ErrNoProjection
	}
	s.indices[parentCode] = percent
	s.result = s.recomputeLocked()
	return s.result, nil
}

// SetManualOverride pins one exact cell to a value and recomputes.
func (s *Session) SetManualOverride(rowKey string, column ColumnKey, value decimal.Decimal) (*ProjectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agg == nil {
		return nil, ErrNoProjection
	}
	s.overrides[OverrideKey{RowKey: rowKey, Column: column}] = value
	s.result = s.recomputeLocked()
	return s.result, nil
}

// ClearManualOverride removes one cell override and recomputes.
func (s *Session) ClearManualOverride(rowKey string, column ColumnKey) (*ProjectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agg == nil {
		return nil, ErrNoProjection
	}
	delete(s.overrides, OverrideKey{RowKey: rowKey, Column: column})
	s.result = s.recomputeLocked()
	return s.result, nil
}

func (s *Session) recomputeLocked() *ProjectionResult {
	return Project(ProjectionInput{
		Periods:   s.agg.Periods,
		Summaries: s.agg.Summaries,
		Plan:      s.plan,
		Indices:   s.indices,
		Overrides: s.overrides,
	})
}

// Result returns the current table, nil before the first Generate.
func (s *Session) Result() *ProjectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Warnings lists the degraded periods of the current aggregate.
func (s *Session) Warnings() []PeriodWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agg == nil {
		return nil
	}
	return s.agg.Warnings
}

// EntriesSkipped counts malformed/non-positive ledger rows excluded
// from the current aggregate.
func (s *Session) EntriesSkipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agg == nil {
		return 0
	}
	return s.agg.EntriesSkipped
}

// PropertyID returns the property of the current projection.
func (s *Session) PropertyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propertyID
}

// ClosingMonth returns the closing month of the current projection.
func (s *Session) ClosingMonth() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Indices returns a copy of the reajustment-index map.
func (s *Session) Indices() Indices {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Indices, len(s.indices))
	for k, v := range s.indices {
		out[k] = v
	}
	return out
}

// Overrides returns a copy of the manual-override map.
func (s *Session) Overrides() Overrides {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Overrides, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// Restore replaces the operator state with a previously saved pair of
// maps and recomputes. Used when loading a persisted session.
func (s *Session) Restore(indices Indices, overrides Overrides) (*ProjectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agg == nil {
		return nil, ErrNoProjection
	}
	s.indices = make(Indices, len(indices))
	for k, v := range indices {
		s.indices[k] = v
	}
	s.overrides = make(Overrides, len(overrides))
	for k, v := range overrides {
		s.overrides[k] = v
	}
	s.result = s.recomputeLocked()
	s.reseedIndicesLocked()
	return s.result, nil
}

// Apportion fetches the property's units (once per projection) and
// splits the current projected monthly average across them.
func (s *Session) Apportion(ctx context.Context) (ApportionmentResult, error) {
	s.mu.Lock()
	if s.result == nil {
		s.mu.Unlock()
		return ApportionmentResult{}, ErrNoProjection
	}
	propertyID := s.propertyID
	units := s.units
	average := s.result.MonthlyAverage()
	s.mu.Unlock()

	if units == nil {
		fetched, err := s.svc.Upstream.FetchUnits(ctx, propertyID)
		if err != nil {
			return ApportionmentResult{}, err
		}
		s.mu.Lock()
		s.units = fetched
		s.mu.Unlock()
		units = fetched
	}
	return Apportion(average, units), nil
}
