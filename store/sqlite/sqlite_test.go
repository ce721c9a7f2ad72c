package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predial/budget-engine/budget"
	"github.com/predial/budget-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndGetSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	overrides := budget.Overrides{
		{RowKey: "5.1.2 - Manutenção", Column: budget.ColumnTotalProj}: decimal.RequireFromString("999.99"),
	}
	rec := sqlite.SessionRecord{
		ID:           "sess-1",
		PropertyID:   "prop-1",
		Name:         "Orçamento 2026",
		ClosingMonth: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Indices:      budget.Indices{"5.1": "10", "7.2": "0"},
		Overrides:    sqlite.OverridesToRecords(overrides),
	}
	require.NoError(t, store.SaveSession(ctx, rec))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "prop-1", got.PropertyID)
	assert.Equal(t, "Orçamento 2026", got.Name)
	assert.Equal(t, rec.ClosingMonth, got.ClosingMonth)
	assert.Equal(t, budget.Indices{"5.1": "10", "7.2": "0"}, got.Indices)

	back := sqlite.RecordsToOverrides(got.Overrides)
	require.Len(t, back, 1)
	v := back[budget.OverrideKey{RowKey: "5.1.2 - Manutenção", Column: budget.ColumnTotalProj}]
	assert.True(t, v.Equal(decimal.RequireFromString("999.99")))
}

func TestStore_SaveReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sqlite.SessionRecord{
		ID:           "sess-1",
		PropertyID:   "prop-1",
		ClosingMonth: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Indices:      budget.Indices{"5.1": "5"},
	}
	require.NoError(t, store.SaveSession(ctx, rec))

	rec.Indices = budget.Indices{"5.1": "12"}
	require.NoError(t, store.SaveSession(ctx, rec))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "12", got.Indices["5.1"])

	list, err := store.ListSessions(ctx, "prop-1")
	require.NoError(t, err)
	assert.Len(t, list, 1, "upsert must not duplicate")
}

func TestStore_ListSessionsByProperty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	closing := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.SaveSession(ctx, sqlite.SessionRecord{
			ID: id, PropertyID: "prop-1", ClosingMonth: closing, Indices: budget.Indices{},
		}))
	}
	require.NoError(t, store.SaveSession(ctx, sqlite.SessionRecord{
		ID: "c", PropertyID: "prop-2", ClosingMonth: closing, Indices: budget.Indices{},
	}))

	list, err := store.ListSessions(ctx, "prop-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStore_GetAndDeleteMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, sqlite.ErrSessionNotFound)

	err = store.DeleteSession(ctx, "nope")
	assert.ErrorIs(t, err, sqlite.ErrSessionNotFound)
}

func TestStore_DeleteSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, sqlite.SessionRecord{
		ID: "sess-1", PropertyID: "prop-1",
		ClosingMonth: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Indices:      budget.Indices{},
	}))
	require.NoError(t, store.DeleteSession(ctx, "sess-1"))

	_, err := store.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, sqlite.ErrSessionNotFound)
}
