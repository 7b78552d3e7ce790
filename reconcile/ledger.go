/*
Package reconcile derives the period ledger from collected inputs.

PURPOSE:
  Reconciliation chains the period quantities - carried-over stock,
  deliveries, ending stock, cash collected, expenses, cash on hand -
  into a single derived ledger ending in a signed result: surplus,
  shortage, or balanced.

CRITICAL INVARIANTS:
  1. FIXED ORDER: every ledger field is a pure function of the fields
     before it. Later fields are derived from earlier ones, never
     recomputed independently, so additive consistency holds by
     construction:
       theoreticalSales == carriedStock + deliveryTotal - endingStockTotal
       finalResult == managerCashOnHand - (theoreticalSales - cashCollected - totalExpenses)
  2. TOTAL: every business value combination produces a defined ledger.
     Negative theoretical sales is legal (over-delivery vs consumption).
     Only malformed input is rejected, never "unusual" values.
  3. EXACT: all monetary fields are integer francs; the chain cannot
     accumulate rounding drift.

SEE ALSO:
  - session.go: The collect/compute/save workflow around this pipeline
  - audit/diff.go: Compares two reconciliations during corrections
*/
package reconcile

import (
	"strings"
	"time"

	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/valuation"
)

// =============================================================================
// INPUTS
// =============================================================================

// Expense is one cash outflow during the period.
type Expense struct {
	Motive string
	Amount catalog.Money
}

// PeriodInput is the immutable input value for one reconciliation.
// Collect everything first, then reconcile once; the pipeline never
// re-reads live state mid-computation.
type PeriodInput struct {
	Date    time.Time
	Manager string

	CarriedStock      catalog.Money // previous period's ending stock, or 0
	Deliveries        []valuation.Delivery
	EndingStock       valuation.Snapshot
	CashCollected     catalog.Money
	Expenses          []Expense
	ManagerCashOnHand catalog.Money
}

// Validate rejects malformed input. Business values are never clamped
// or coerced; only structurally invalid input fails.
func (in PeriodInput) Validate() error {
	if strings.TrimSpace(in.Manager) == "" {
		return &InvalidInputError{Field: "manager", Reason: "empty"}
	}
	if in.Date.IsZero() {
		return &InvalidInputError{Field: "date", Reason: "missing"}
	}
	for _, e := range in.Expenses {
		if strings.TrimSpace(e.Motive) == "" {
			return &InvalidInputError{Field: "expense motive", Reason: "empty"}
		}
		if e.Amount <= 0 {
			return &InvalidInputError{Field: "expense amount", Reason: "must be positive"}
		}
	}
	return nil
}

// =============================================================================
// LEDGER - Derived chain, fixed order
// =============================================================================

// Ledger holds the derived reconciliation chain. Field order mirrors
// derivation order.
type Ledger struct {
	Date    time.Time
	Manager string

	CarriedStock      catalog.Money
	DeliveryTotal     catalog.Money
	GrossStock        catalog.Money // CarriedStock + DeliveryTotal
	EndingStockTotal  catalog.Money
	TheoreticalSales  catalog.Money // GrossStock - EndingStockTotal
	CashCollected     catalog.Money
	CashRemainder     catalog.Money // TheoreticalSales - CashCollected
	TotalExpenses     catalog.Money
	FinalRemainder    catalog.Money // CashRemainder - TotalExpenses
	ManagerCashOnHand catalog.Money
	FinalResult       catalog.Money // ManagerCashOnHand - FinalRemainder
}

// Outcome is the sign of the final result.
type Outcome string

const (
	OutcomeSurplus  Outcome = "surplus"
	OutcomeShortage Outcome = "shortage"
	OutcomeBalanced Outcome = "balanced"
)

func (l Ledger) Outcome() Outcome {
	switch {
	case l.FinalResult > 0:
		return OutcomeSurplus
	case l.FinalResult < 0:
		return OutcomeShortage
	default:
		return OutcomeBalanced
	}
}

// =============================================================================
// PIPELINE
// =============================================================================

// Reconcile derives the ledger from the period input. Pure and total:
// no I/O, no retries, no clamping.
func Reconcile(in PeriodInput) (Ledger, error) {
	if err := in.Validate(); err != nil {
		return Ledger{}, err
	}

	l := Ledger{
		Date:    in.Date,
		Manager: in.Manager,
	}

	l.CarriedStock = in.CarriedStock
	for _, d := range in.Deliveries {
		l.DeliveryTotal += d.Total
	}
	l.GrossStock = l.CarriedStock + l.DeliveryTotal
	l.EndingStockTotal = in.EndingStock.Total
	l.TheoreticalSales = l.GrossStock - l.EndingStockTotal
	l.CashCollected = in.CashCollected
	l.CashRemainder = l.TheoreticalSales - l.CashCollected
	for _, e := range in.Expenses {
		l.TotalExpenses += e.Amount
	}
	l.FinalRemainder = l.CashRemainder - l.TotalExpenses
	l.ManagerCashOnHand = in.ManagerCashOnHand
	l.FinalResult = l.ManagerCashOnHand - l.FinalRemainder

	return l, nil
}
