/*
recorder.go - Orchestrates save and correction commits

PURPOSE:
  The Recorder sits between a computed reconciliation session and the
  Store. A normal save becomes a fresh Entry committed atomically with
  the working-state cleanup. A correction diffs the revised session
  against the persisted original, and either appends exactly one
  Modification in the same commit as the field overwrite, or - when the
  diff is empty - skips the write entirely ("no effective change").

  The empty-diff policy is SKIP: no Modification is appended, nothing
  is written, the session simply resets. Applied consistently.
*/
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/barstock/inventory-engine/audit"
	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/reconcile"
)

// Recorder commits computed sessions to the Store.
type Recorder struct {
	Store Store

	// Now is the clock for SavedAt / modification timestamps.
	// Defaults to time.Now; tests override it.
	Now func() time.Time
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{Store: store, Now: time.Now}
}

// Save commits a computed normal session as a new history entry. On
// success the session is marked Saved. On persistence failure nothing
// is written and the session stays Computed so the caller can retry.
func (r *Recorder) Save(ctx context.Context, s *reconcile.Session) (Entry, error) {
	input, ok := s.Input()
	if !ok {
		return Entry{}, ErrNotComputed
	}
	ledger, _ := s.Ledger()
	if s.IsCorrection() {
		return Entry{}, fmt.Errorf("%w: correction session cannot be saved as a new entry", reconcile.ErrInvalidTransition)
	}

	entry := Entry{
		ID:              uuid.NewString(),
		Ledger:          ledger,
		StockDetails:    input.EndingStock,
		DeliveryDetails: input.Deliveries,
		ExpenseDetails:  input.Expenses,
		SavedAt:         r.Now(),
	}

	if err := r.Store.CommitReconciliation(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if err := s.MarkSaved(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Correct applies a computed correction session against its target
// entry. Returns the updated entry and the change records. An empty
// diff skips the write and returns no changes; the persisted entry is
// untouched either way on failure.
func (r *Recorder) Correct(ctx context.Context, s *reconcile.Session) (Entry, []audit.ChangeRecord, error) {
	input, ok := s.Input()
	if !ok {
		return Entry{}, nil, ErrNotComputed
	}
	ledger, _ := s.Ledger()
	if !s.IsCorrection() {
		return Entry{}, nil, fmt.Errorf("%w: normal session cannot be committed as a correction", reconcile.ErrInvalidTransition)
	}

	original, err := r.Store.GetEntry(ctx, s.CorrectionOf())
	if err != nil {
		return Entry{}, nil, err
	}

	revised := audit.Revision{
		Ledger:     ledger,
		Stock:      input.EndingStock,
		Deliveries: input.Deliveries,
		Expenses:   input.Expenses,
	}

	changes := audit.Diff(original.Revision(), revised)
	if len(changes) == 0 {
		// No effective change: skip the Modification and the write.
		if err := s.Cancel(); err != nil {
			return Entry{}, nil, err
		}
		return original, nil, nil
	}

	now := r.Now()
	updated := original
	updated.Ledger = ledger
	updated.StockDetails = input.EndingStock
	updated.DeliveryDetails = input.Deliveries
	updated.ExpenseDetails = input.Expenses
	updated.LastCorrectedAt = now
	updated.CorrectionLog = append(append([]audit.Modification(nil), original.CorrectionLog...),
		audit.Modification{Timestamp: now, Changes: changes})

	if err := r.Store.CommitCorrection(ctx, updated); err != nil {
		return Entry{}, nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if err := s.MarkCorrectionApplied(); err != nil {
		return Entry{}, nil, err
	}
	return updated, changes, nil
}

// CarriedStock returns the next period's opening stock: the latest
// entry's ending stock total, or 0 when the history is empty.
func (r *Recorder) CarriedStock(ctx context.Context) (catalog.Money, error) {
	latest, err := r.Store.LatestEntry(ctx)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}
	return latest.Ledger.EndingStockTotal, nil
}
