/*
Package upstream defines the boundary to the property-management API.

PURPOSE:
  The budget engine never talks HTTP itself. Everything it needs from the
  back office — properties, the chart of accounts, units, liquidated
  expenses — comes through the Client interface, already de-paginated and
  normalized into the canonical shapes below.

NORMALIZATION CONTRACT:
  Implementations own every "try field A, then field B" fallback the real
  vendor API requires. One function per resource type returns the
  canonical shape; none of that defensive decoding may leak past this
  package. Amounts are decimal, settlement dates are UTC, labels are the
  raw "code - description" strings.

IMPLEMENTATIONS:
  - upstream/memory: thread-safe fixture store for tests, demo scenarios
    and the dev server.

SEE ALSO:
  - budget: the consumer of this interface
*/
package upstream

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CANONICAL TYPES
// =============================================================================

// Property is an active property (condominium) of the current tenant.
type Property struct {
	ID   string
	Name string
}

// PlanAccount is one chart-of-accounts reference entry.
type PlanAccount struct {
	Code        string
	Description string
}

// Unit is a billable unit of a property. OwnershipFraction is the unit's
// ideal fraction of the whole; zero when the registry has no data.
type Unit struct {
	ID                string
	Name              string
	OwnerName         string
	OwnershipFraction decimal.Decimal
}

// BreakdownLine is one slice of an expense's apportionment breakdown.
// Weight semantics: (0,1] scales the entry amount, >1 is an absolute
// sub-amount, <=0 means "split evenly with the other lines".
type BreakdownLine struct {
	AccountLabel string
	Weight       decimal.Decimal
}

// LedgerEntry is one liquidated (settled) expense occurrence.
type LedgerEntry struct {
	Amount       decimal.Decimal
	AccountLabel string
	SettledAt    time.Time
	Breakdown    []BreakdownLine
}

// =============================================================================
// CLIENT - the collaborator interface
// =============================================================================

// Client fetches back-office data. Implementations return fully drained
// lists; pagination, retries and timeouts are theirs to handle.
type Client interface {
	// FetchProperties lists the active properties of the tenant.
	FetchProperties(ctx context.Context) ([]Property, error)

	// FetchChartOfAccounts returns the code -> description reference for
	// one property. May be empty.
	FetchChartOfAccounts(ctx context.Context, propertyID string) ([]PlanAccount, error)

	// FetchUnits returns the property's units with ownership fractions.
	FetchUnits(ctx context.Context, propertyID string) ([]Unit, error)

	// FetchLiquidatedExpenses returns every expense settled inside
	// [start, end], inclusive on both ends.
	FetchLiquidatedExpenses(ctx context.Context, propertyID string, start, end time.Time) ([]LedgerEntry, error)
}
