/*
Package history defines the persistent record of finalized reconciliations.

PURPOSE:
  One Entry per period per manager: the derived ledger, the stock/
  delivery/expense details exactly as valued at save time, and an
  append-only correction log. The engine creates entries and corrects
  them; it never deletes them (deletion is an administrative action on
  the admin surface).

KEY INTERFACES:
  Store: the document-oriented persistence boundary. The core depends
  on nothing beyond "read by key", "list", and "write a set of
  documents atomically".

ATOMIC COMMITS:
  CommitReconciliation writes the new entry AND clears the transient
  per-period working state (current deliveries, stock quantities) in
  one transaction: a reader never observes the entry without the
  cleanup or the cleanup without the entry. CommitCorrection likewise
  commits the field overwrite and the appended Modification together.
  A failed commit leaves prior state entirely unchanged.

SEE ALSO:
  - recorder.go: Orchestrates save and correction commits
  - store/memory.go: In-memory Store for tests and dev
  - store/sqlite (module root): Production Store
*/
package history

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barstock/inventory-engine/audit"
	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/reconcile"
	"github.com/barstock/inventory-engine/valuation"
)

// =============================================================================
// ENTRY - One finalized reconciliation
// =============================================================================

// Entry is a persisted reconciliation. The identity and SavedAt are
// immutable; corrections overwrite the ledger and details and append
// to CorrectionLog, never rewrite it.
type Entry struct {
	ID string

	Ledger          reconcile.Ledger
	StockDetails    valuation.Snapshot
	DeliveryDetails []valuation.Delivery
	ExpenseDetails  []reconcile.Expense

	SavedAt         time.Time
	LastCorrectedAt time.Time // zero when never corrected

	// CorrectionLog is strictly append-only, ordered by timestamp.
	CorrectionLog []audit.Modification
}

// Revision returns the comparable view of this entry for diffing.
func (e Entry) Revision() audit.Revision {
	return audit.Revision{
		Ledger:     e.Ledger,
		Stock:      e.StockDetails,
		Deliveries: e.DeliveryDetails,
		Expenses:   e.ExpenseDetails,
	}
}

// =============================================================================
// MANAGER - Cash manager registry
// =============================================================================

type Manager struct {
	ID        string
	Name      string
	Phone     string
	StartDate time.Time
}

// =============================================================================
// STORE - Document-oriented persistence boundary
// =============================================================================

// Store is the persistence boundary. Implementations must make the
// Commit* operations atomic: partial application is never acceptable.
// The engine does not retry; retry policy belongs to the caller.
type Store interface {
	// CommitReconciliation atomically writes the new entry, deletes all
	// current delivery documents, and resets the stock-quantity working
	// document.
	CommitReconciliation(ctx context.Context, entry Entry) error

	// CommitCorrection atomically overwrites the existing entry (same
	// ID) with revised fields and the extended correction log.
	// Fails with ErrEntryNotFound if the entry does not exist.
	CommitCorrection(ctx context.Context, entry Entry) error

	GetEntry(ctx context.Context, id string) (Entry, error)

	// ListEntries returns all entries, most recent period first.
	ListEntries(ctx context.Context) ([]Entry, error)

	// LatestEntry returns the most recent entry, or nil when the
	// history is empty. Its ending stock total seeds the next period's
	// carried stock.
	LatestEntry(ctx context.Context) (*Entry, error)

	// DeleteEntry removes an entry. Administrative action only; the
	// reconciliation engine never calls it.
	DeleteEntry(ctx context.Context, id string) error

	// Catalog documents.
	ListDrinks(ctx context.Context) ([]catalog.Drink, error)
	SaveDrink(ctx context.Context, d catalog.Drink) error
	DeleteDrink(ctx context.Context, name string) error

	// Manager registry.
	ListManagers(ctx context.Context) ([]Manager, error)
	SaveManager(ctx context.Context, m Manager) error
	DeleteManager(ctx context.Context, id string) error

	// Transient per-period working state.
	ListDeliveries(ctx context.Context) ([]valuation.Delivery, error)
	AddDelivery(ctx context.Context, d valuation.Delivery) error
	DeleteDelivery(ctx context.Context, id string) error
	StockQuantities(ctx context.Context) (map[string]decimal.Decimal, error)
	SetStockQuantities(ctx context.Context, q map[string]decimal.Decimal) error
}
