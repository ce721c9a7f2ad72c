/*
Package sqlite persists saved projection sessions.

PURPOSE:
  A projection is recomputed from upstream data on demand; the only
  state worth keeping across reloads is the operator's two maps - the
  reajustment indices and the manual cell overrides - plus the property
  and closing month they belong to. This package stores exactly that.

KEY TABLE:
  projection_sessions: one row per saved workspace, maps serialized as
  JSON. Saving an existing ID replaces the maps (upsert).

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  and crash recovery is cheap.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.

SEE ALSO:
  - budget/session.go: the state being serialized
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/budget"
)

// ErrSessionNotFound is returned when a saved session ID does not exist.
var ErrSessionNotFound = errors.New("projection session not found")

// =============================================================================
// RECORDS
// =============================================================================

// OverrideRecord is the serializable form of one manual cell override.
// (The in-memory map keys on a struct, which JSON objects cannot.)
type OverrideRecord struct {
	RowKey string          `json:"row_key"`
	Column string          `json:"column"`
	Value  decimal.Decimal `json:"value"`
}

// SessionRecord is one saved projection workspace.
type SessionRecord struct {
	ID           string
	PropertyID   string
	Name         string
	ClosingMonth time.Time // first day of the closing month
	Indices      budget.Indices
	Overrides    []OverrideRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OverridesToRecords flattens the override map for storage.
func OverridesToRecords(ov budget.Overrides) []OverrideRecord {
	out := make([]OverrideRecord, 0, len(ov))
	for k, v := range ov {
		out = append(out, OverrideRecord{RowKey: k.RowKey, Column: string(k.Column), Value: v})
	}
	return out
}

// RecordsToOverrides rebuilds the override map from storage.
func RecordsToOverrides(records []OverrideRecord) budget.Overrides {
	out := make(budget.Overrides, len(records))
	for _, r := range records {
		out[budget.OverrideKey{RowKey: r.RowKey, Column: budget.ColumnKey(r.Column)}] = r.Value
	}
	return out
}

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projection_sessions (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		closing_month TEXT NOT NULL,
		indices_json TEXT NOT NULL,
		overrides_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_property
		ON projection_sessions(property_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSession inserts or replaces one saved workspace.
func (s *Store) SaveSession(ctx context.Context, rec SessionRecord) error {
	indices, err := json.Marshal(rec.Indices)
	if err != nil {
		return fmt.Errorf("marshal indices: %w", err)
	}
	overrides, err := json.Marshal(rec.Overrides)
	if err != nil {
		return fmt.Errorf("marshal overrides: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projection_sessions
			(id, property_id, name, closing_month, indices_json, overrides_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			property_id = excluded.property_id,
			name = excluded.name,
			closing_month = excluded.closing_month,
			indices_json = excluded.indices_json,
			overrides_json = excluded.overrides_json,
			updated_at = excluded.updated_at`,
		rec.ID, rec.PropertyID, rec.Name,
		rec.ClosingMonth.UTC().Format("2006-01-02"),
		string(indices), string(overrides), now, now)
	return err
}

// GetSession loads one saved workspace by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, name, closing_month, indices_json, overrides_json, created_at, updated_at
		FROM projection_sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return rec, err
}

// ListSessions returns the saved workspaces of one property, newest
// first.
func (s *Store) ListSessions(ctx context.Context, propertyID string) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, name, closing_month, indices_json, overrides_json, created_at, updated_at
		FROM projection_sessions WHERE property_id = ?
		ORDER BY updated_at DESC`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// DeleteSession removes one saved workspace.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projection_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*SessionRecord, error) {
	var rec SessionRecord
	var closing, indicesJSON, overridesJSON, createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.PropertyID, &rec.Name, &closing,
		&indicesJSON, &overridesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.ClosingMonth, err = time.ParseInLocation("2006-01-02", closing, time.UTC); err != nil {
		return nil, fmt.Errorf("bad closing_month %q: %w", closing, err)
	}
	if err = json.Unmarshal([]byte(indicesJSON), &rec.Indices); err != nil {
		return nil, fmt.Errorf("bad indices_json: %w", err)
	}
	if err = json.Unmarshal([]byte(overridesJSON), &rec.Overrides); err != nil {
		return nil, fmt.Errorf("bad overrides_json: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}
