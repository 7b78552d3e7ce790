/*
Package sqlite provides the SQLite-backed history.Store.

PURPOSE:
  Persists the full application state: drink catalog, managers, the
  transient working state (pending deliveries, counted quantities), and
  the reconciliation history with its embedded correction log.

ATOMIC COMMITS:
  CommitReconciliation writes the history entry AND clears the working
  state inside one database transaction. Readers never observe a saved
  entry alongside stale deliveries or counts. CommitCorrection
  overwrites the entry row in place; the correction log travels inside
  the entry document, so the overwrite and the audit append are one
  write.

DOCUMENT COLUMNS:
  Nested structures (snapshots, correction logs, package sizes) live in
  JSON document columns next to the few fields queries need (dates,
  names, ids). The same pattern applies to PostgreSQL with jsonb.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - history/history.go: Store interface definition
  - history/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/history"
	"github.com/barstock/inventory-engine/valuation"
)

// Store implements history.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the
// schema. Use ":memory:" for an in-memory database.
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

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Drink catalog. Name is the identity; sizes and special pricing
	-- live in the document.
	CREATE TABLE IF NOT EXISTS drinks (
		name TEXT PRIMARY KEY,
		doc_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Managers
	CREATE TABLE IF NOT EXISTS managers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		doc_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Pending deliveries awaiting the next reconciliation. Cleared by
	-- CommitReconciliation.
	CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		received_at TEXT NOT NULL,
		doc_json TEXT NOT NULL
	);

	-- Current stock counts keyed by drink name. Quantities are decimal
	-- strings; fractional packages are legal. Cleared by
	-- CommitReconciliation.
	CREATE TABLE IF NOT EXISTS stock_state (
		name TEXT PRIMARY KEY,
		quantity TEXT NOT NULL
	);

	-- Reconciliation history. The entry document embeds the ledger,
	-- the detail snapshots and the correction log.
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		period_date TEXT NOT NULL,
		manager TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		doc_json TEXT NOT NULL
	);

	-- Listing order (hot path): most recent period first.
	CREATE INDEX IF NOT EXISTS idx_history_period
		ON history(period_date DESC, saved_at DESC);
	CREATE INDEX IF NOT EXISTS idx_history_manager
		ON history(manager);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ATOMIC COMMITS
// =============================================================================

// CommitReconciliation writes the entry and clears the working state
// in a single transaction.
func (s *Store) CommitReconciliation(ctx context.Context, entry history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history (id, period_date, manager, saved_at, doc_json) VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Ledger.Date.UTC().Format(time.RFC3339),
		entry.Ledger.Manager,
		entry.SavedAt.UTC().Format(time.RFC3339),
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM deliveries`); err != nil {
		return fmt.Errorf("failed to clear deliveries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stock_state`); err != nil {
		return fmt.Errorf("failed to clear stock state: %w", err)
	}

	return tx.Commit()
}

// CommitCorrection overwrites an existing entry. The revised document
// already carries the appended correction log.
func (s *Store) CommitCorrection(ctx context.Context, entry history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE history SET period_date = ?, manager = ?, doc_json = ? WHERE id = ?`,
		entry.Ledger.Date.UTC().Format(time.RFC3339),
		entry.Ledger.Manager,
		string(doc),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return history.ErrEntryNotFound
	}
	return nil
}

// =============================================================================
// HISTORY READS
// =============================================================================

func (s *Store) GetEntry(ctx context.Context, id string) (history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc_json FROM history WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Entry{}, history.ErrEntryNotFound
	}
	if err != nil {
		return history.Entry{}, fmt.Errorf("failed to query entry: %w", err)
	}
	return decodeEntry(doc)
}

func (s *Store) ListEntries(ctx context.Context) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_json FROM history ORDER BY period_date DESC, saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry, err := decodeEntry(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) LatestEntry(ctx context.Context) (*history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc_json FROM history ORDER BY period_date DESC, saved_at DESC LIMIT 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest entry: %w", err)
	}
	entry, err := decodeEntry(doc)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return history.ErrEntryNotFound
	}
	return nil
}

func decodeEntry(doc string) (history.Entry, error) {
	var entry history.Entry
	if err := json.Unmarshal([]byte(doc), &entry); err != nil {
		return history.Entry{}, fmt.Errorf("failed to decode entry: %w", err)
	}
	return entry, nil
}

// =============================================================================
// CATALOG DOCUMENTS
// =============================================================================

func (s *Store) ListDrinks(ctx context.Context) ([]catalog.Drink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT doc_json FROM drinks ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query drinks: %w", err)
	}
	defer rows.Close()

	var drinks []catalog.Drink
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan drink: %w", err)
		}
		var d catalog.Drink
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			return nil, fmt.Errorf("failed to decode drink: %w", err)
		}
		drinks = append(drinks, d)
	}
	return drinks, rows.Err()
}

func (s *Store) SaveDrink(ctx context.Context, d catalog.Drink) error {
	if err := d.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode drink: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drinks (name, doc_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			doc_json = excluded.doc_json,
			updated_at = excluded.updated_at`,
		d.Name, string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save drink: %w", err)
	}
	return nil
}

func (s *Store) DeleteDrink(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM drinks WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete drink: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrDrinkNotFound
	}
	return nil
}

// =============================================================================
// MANAGERS
// =============================================================================

func (s *Store) ListManagers(ctx context.Context) ([]history.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT doc_json FROM managers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query managers: %w", err)
	}
	defer rows.Close()

	var managers []history.Manager
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		var m history.Manager
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("failed to decode manager: %w", err)
		}
		managers = append(managers, m)
	}
	return managers, rows.Err()
}

func (s *Store) SaveManager(ctx context.Context, m history.Manager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manager: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO managers (id, name, doc_json, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			doc_json = excluded.doc_json,
			updated_at = excluded.updated_at`,
		m.ID, m.Name, string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save manager: %w", err)
	}
	return nil
}

func (s *Store) DeleteManager(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM managers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete manager: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return history.ErrManagerNotFound
	}
	return nil
}

// =============================================================================
// TRANSIENT WORKING STATE
// =============================================================================

func (s *Store) ListDeliveries(ctx context.Context) ([]valuation.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT doc_json FROM deliveries ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []valuation.Delivery
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		var d valuation.Delivery
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			return nil, fmt.Errorf("failed to decode delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func (s *Store) AddDelivery(ctx context.Context, d valuation.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode delivery: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO deliveries (id, received_at, doc_json) VALUES (?, ?, ?)`,
		d.ID, d.Date.UTC().Format(time.RFC3339), string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to add delivery: %w", err)
	}
	return nil
}

func (s *Store) DeleteDelivery(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM deliveries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return history.ErrDeliveryNotFound
	}
	return nil
}

func (s *Store) StockQuantities(ctx context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name, quantity FROM stock_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock state: %w", err)
	}
	defer rows.Close()

	quantities := make(map[string]decimal.Decimal)
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan stock state: %w", err)
		}
		q, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt quantity for %s: %w", name, err)
		}
		quantities[name] = q
	}
	return quantities, rows.Err()
}

// SetStockQuantities replaces the full set of counts in one
// transaction.
func (s *Store) SetStockQuantities(ctx context.Context, quantities map[string]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stock_state`); err != nil {
		return fmt.Errorf("failed to clear stock state: %w", err)
	}
	for name, q := range quantities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stock_state (name, quantity) VALUES (?, ?)`,
			name, q.String(),
		); err != nil {
			return fmt.Errorf("failed to write stock state for %s: %w", name, err)
		}
	}

	return tx.Commit()
}
