// Package memory provides an in-memory upstream.Client for tests,
// demo scenarios and the dev server.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/predial/budget-engine/upstream"
)

// =============================================================================
// MEMORY CLIENT - fixture implementation of upstream.Client
// =============================================================================

type Client struct {
	mu         sync.RWMutex
	properties []upstream.Property
	plans      map[string][]upstream.PlanAccount
	units      map[string][]upstream.Unit
	expenses   map[string][]upstream.LedgerEntry

	// fault, when set, is consulted before every expense fetch. Tests use
	// it to simulate a period-level upstream outage.
	fault func(propertyID string, start, end time.Time) error
}

func New() *Client {
	return &Client{
		plans:    make(map[string][]upstream.PlanAccount),
		units:    make(map[string][]upstream.Unit),
		expenses: make(map[string][]upstream.LedgerEntry),
	}
}

// =============================================================================
// SEEDING
// =============================================================================

func (c *Client) AddProperty(p upstream.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties = append(c.properties, p)
}

func (c *Client) AddPlanAccounts(propertyID string, accs ...upstream.PlanAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[propertyID] = append(c.plans[propertyID], accs...)
}

func (c *Client) AddUnits(propertyID string, units ...upstream.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units[propertyID] = append(c.units[propertyID], units...)
}

func (c *Client) AddExpenses(propertyID string, entries ...upstream.LedgerEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expenses[propertyID] = append(c.expenses[propertyID], entries...)
	sort.SliceStable(c.expenses[propertyID], func(i, j int) bool {
		return c.expenses[propertyID][i].SettledAt.Before(c.expenses[propertyID][j].SettledAt)
	})
}

// SetFault installs (or clears, with nil) a hook simulating upstream
// outages on expense fetches.
func (c *Client) SetFault(fault func(propertyID string, start, end time.Time) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fault = fault
}

// Reset drops all seeded data. Scenario loaders call this first.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties = nil
	c.plans = make(map[string][]upstream.PlanAccount)
	c.units = make(map[string][]upstream.Unit)
	c.expenses = make(map[string][]upstream.LedgerEntry)
	c.fault = nil
}

// =============================================================================
// upstream.Client
// =============================================================================

func (c *Client) FetchProperties(_ context.Context) ([]upstream.Property, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]upstream.Property, len(c.properties))
	copy(out, c.properties)
	return out, nil
}

func (c *Client) FetchChartOfAccounts(_ context.Context, propertyID string) ([]upstream.PlanAccount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]upstream.PlanAccount, len(c.plans[propertyID]))
	copy(out, c.plans[propertyID])
	return out, nil
}

func (c *Client) FetchUnits(_ context.Context, propertyID string) ([]upstream.Unit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]upstream.Unit, len(c.units[propertyID]))
	copy(out, c.units[propertyID])
	return out, nil
}

func (c *Client) FetchLiquidatedExpenses(_ context.Context, propertyID string, start, end time.Time) ([]upstream.LedgerEntry, error) {
	c.mu.RLock()
	fault := c.fault
	c.mu.RUnlock()
	if fault != nil {
		if err := fault(propertyID, start, end); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []upstream.LedgerEntry
	for _, e := range c.expenses[propertyID] {
		if !e.SettledAt.Before(start) && !e.SettledAt.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}
