/*
Package audit computes structured diffs between reconciliations.

PURPOSE:
  When a saved period is corrected, the audit engine compares the
  original persisted state against the revised one and produces change
  records - one per effective difference. The records become a
  Modification appended, immutably, to the entry's correction log.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: a Modification is never mutated or removed once
     appended; the log is ordered by timestamp
  2. COMPLETE: identical revisions diff to an empty list; a single
     changed scalar yields exactly one field record naming it
  3. SYMMETRIC: an item present only on one side of a stock map is
     treated as quantity 0 on the missing side
  4. DETERMINISTIC: records come out in a fixed order (fields, stock in
     sorted name order, expenses, delivery items) so repeated diffs of
     the same revisions are identical

DOCUMENTED POLICY (not a bug):
  Expenses are matched by (motive, amount) identity. Editing only the
  amount of an expense therefore shows as one removal plus one
  addition. Changing this would change audit semantics; flag to
  stakeholders before altering.

SEE ALSO:
  - history/history.go: Stores the correction log
  - reconcile/ledger.go: The ledger fields compared here
*/
package audit

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/reconcile"
	"github.com/barstock/inventory-engine/valuation"
)

// =============================================================================
// CHANGE RECORDS
// =============================================================================

type ChangeKind string

const (
	ChangeField                ChangeKind = "field"
	ChangeStockQuantity        ChangeKind = "stockQuantity"
	ChangeExpenseAdded         ChangeKind = "expenseAdded"
	ChangeExpenseRemoved       ChangeKind = "expenseRemoved"
	ChangeDeliveryItemAdded    ChangeKind = "deliveryItemAdded"
	ChangeDeliveryItemModified ChangeKind = "deliveryItemModified"
	ChangeDeliveryItemRemoved  ChangeKind = "deliveryItemRemoved"
)

// ChangeRecord is one observed difference. Old and New carry the
// rendered values; absent sides are "0" for quantities and "" for
// one-sided expense/delivery records.
type ChangeRecord struct {
	Kind  ChangeKind
	Label string
	Old   string
	New   string
}

// Modification is one correction event: a timestamp plus everything
// that changed. Appended to a HistoryEntry's correction log.
type Modification struct {
	Timestamp time.Time
	Changes   []ChangeRecord
}

// =============================================================================
// REVISION - The comparable shape of a reconciliation
// =============================================================================

// Revision is the plain-data view of a persisted or revised
// reconciliation: the derived ledger plus the snapshot details.
type Revision struct {
	Ledger     reconcile.Ledger
	Stock      valuation.Snapshot
	Deliveries []valuation.Delivery
	Expenses   []reconcile.Expense
}

// =============================================================================
// DIFF ENGINE
// =============================================================================

// Diff compares the original revision against the revised one and
// returns every effective change. An empty result means "no effective
// change"; callers skip the correction entirely in that case.
func Diff(original, revised Revision) []ChangeRecord {
	var changes []ChangeRecord
	changes = append(changes, diffFields(original.Ledger, revised.Ledger)...)
	changes = append(changes, diffStock(original.Stock, revised.Stock)...)
	changes = append(changes, diffExpenses(original.Expenses, revised.Expenses)...)
	changes = append(changes, diffDeliveries(original.Deliveries, revised.Deliveries)...)
	return changes
}

// diffFields compares the independent scalar ledger fields. Derived
// fields (gross stock, remainders, final result) follow from these by
// construction, so they are not separately recorded.
func diffFields(o, n reconcile.Ledger) []ChangeRecord {
	var changes []ChangeRecord

	if o.Manager != n.Manager {
		changes = append(changes, ChangeRecord{
			Kind: ChangeField, Label: "manager", Old: o.Manager, New: n.Manager,
		})
	}
	moneyFields := []struct {
		label         string
		before, after catalog.Money
	}{
		{"carriedStock", o.CarriedStock, n.CarriedStock},
		{"cashCollected", o.CashCollected, n.CashCollected},
		{"managerCashOnHand", o.ManagerCashOnHand, n.ManagerCashOnHand},
	}
	for _, f := range moneyFields {
		if f.before != f.after {
			changes = append(changes, ChangeRecord{
				Kind: ChangeField, Label: f.label, Old: money(f.before), New: money(f.after),
			})
		}
	}
	return changes
}

func diffStock(o, n valuation.Snapshot) []ChangeRecord {
	oldQty := o.QuantityMap()
	newQty := n.QuantityMap()

	names := make(map[string]bool, len(oldQty)+len(newQty))
	for name := range oldQty {
		names[name] = true
	}
	for name := range newQty {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var changes []ChangeRecord
	for _, name := range sorted {
		oq, nq := oldQty[name], newQty[name] // missing side is zero
		if !oq.Equal(nq) {
			changes = append(changes, ChangeRecord{
				Kind: ChangeStockQuantity, Label: name, Old: qty(oq), New: qty(nq),
			})
		}
	}
	return changes
}

// diffExpenses matches by (motive, amount) identity over multisets:
// duplicate expenses are matched one-for-one.
func diffExpenses(original, revised []reconcile.Expense) []ChangeRecord {
	type expKey struct {
		motive string
		amount catalog.Money
	}
	counts := make(map[expKey]int)
	for _, e := range revised {
		counts[expKey{e.Motive, e.Amount}]++
	}

	var changes []ChangeRecord
	for _, e := range original {
		k := expKey{e.Motive, e.Amount}
		if counts[k] > 0 {
			counts[k]--
			continue
		}
		changes = append(changes, ChangeRecord{
			Kind: ChangeExpenseRemoved, Label: e.Motive, Old: money(e.Amount), New: "",
		})
	}

	remaining := make(map[expKey]int)
	for _, e := range original {
		remaining[expKey{e.Motive, e.Amount}]++
	}
	for _, e := range revised {
		k := expKey{e.Motive, e.Amount}
		if remaining[k] > 0 {
			remaining[k]--
			continue
		}
		changes = append(changes, ChangeRecord{
			Kind: ChangeExpenseAdded, Label: e.Motive, Old: "", New: money(e.Amount),
		})
	}
	return changes
}

// diffDeliveries matches line items by (delivery date, drink name).
func diffDeliveries(original, revised []valuation.Delivery) []ChangeRecord {
	oldItems, oldOrder := deliveryItems(original)
	newItems, newOrder := deliveryItems(revised)

	var changes []ChangeRecord
	for _, k := range newOrder {
		nq := newItems[k]
		oq, existed := oldItems[k]
		switch {
		case !existed:
			changes = append(changes, ChangeRecord{
				Kind: ChangeDeliveryItemAdded, Label: k.name, Old: "", New: qty(nq),
			})
		case !oq.Equal(nq):
			changes = append(changes, ChangeRecord{
				Kind: ChangeDeliveryItemModified, Label: k.name, Old: qty(oq), New: qty(nq),
			})
		}
	}
	for _, k := range oldOrder {
		if _, still := newItems[k]; !still {
			changes = append(changes, ChangeRecord{
				Kind: ChangeDeliveryItemRemoved, Label: k.name, Old: qty(oldItems[k]), New: "",
			})
		}
	}
	return changes
}

type deliveryKey struct {
	date string
	name string
}

func deliveryItems(deliveries []valuation.Delivery) (map[deliveryKey]decimal.Decimal, []deliveryKey) {
	items := make(map[deliveryKey]decimal.Decimal)
	var order []deliveryKey
	for _, d := range deliveries {
		date := d.Date.Format("2006-01-02")
		for _, l := range d.Lines {
			k := deliveryKey{date: date, name: l.Name}
			if _, seen := items[k]; !seen {
				order = append(order, k)
			}
			items[k] = l.Quantity
		}
	}
	return items, order
}

func money(m catalog.Money) string { return strconv.FormatInt(int64(m), 10) }
func qty(q decimal.Decimal) string { return q.String() }
