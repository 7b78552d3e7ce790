package reconcile_test

import (
	"errors"
	"testing"
	"time"

	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/reconcile"
	"github.com/barstock/inventory-engine/valuation"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func delivery(total catalog.Money) valuation.Delivery {
	return valuation.Delivery{ID: "dl", Snapshot: valuation.Snapshot{Total: total}}
}

func stock(total catalog.Money) valuation.Snapshot {
	return valuation.Snapshot{Total: total}
}

func baseInput() reconcile.PeriodInput {
	return reconcile.PeriodInput{
		Date:              day(2025, time.March, 10),
		Manager:           "Koffi",
		CarriedStock:      10000,
		Deliveries:        []valuation.Delivery{delivery(5000)},
		EndingStock:       stock(8000),
		CashCollected:     6500,
		Expenses:          []reconcile.Expense{{Motive: "Transport", Amount: 200}},
		ManagerCashOnHand: 300,
	}
}

func TestReconcile_BalancedScenario(t *testing.T) {
	// GIVEN: carried 10000, deliveries 5000, ending stock 8000,
	//        cash 6500, expenses 200, cash on hand 300
	// THEN: the chain lands exactly on zero (balanced)
	l, err := reconcile.Reconcile(baseInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if l.GrossStock != 15000 {
		t.Errorf("grossStock: expected 15000, got %d", l.GrossStock)
	}
	if l.TheoreticalSales != 7000 {
		t.Errorf("theoreticalSales: expected 7000, got %d", l.TheoreticalSales)
	}
	if l.CashRemainder != 500 {
		t.Errorf("cashRemainder: expected 500, got %d", l.CashRemainder)
	}
	if l.FinalRemainder != 300 {
		t.Errorf("finalRemainder: expected 300, got %d", l.FinalRemainder)
	}
	if l.FinalResult != 0 {
		t.Errorf("finalResult: expected 0, got %d", l.FinalResult)
	}
	if l.Outcome() != reconcile.OutcomeBalanced {
		t.Errorf("expected balanced, got %s", l.Outcome())
	}
}

func TestReconcile_SurplusScenario(t *testing.T) {
	in := baseInput()
	in.ManagerCashOnHand = 500

	l, err := reconcile.Reconcile(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.FinalResult != 200 {
		t.Errorf("expected surplus of 200, got %d", l.FinalResult)
	}
	if l.Outcome() != reconcile.OutcomeSurplus {
		t.Errorf("expected surplus, got %s", l.Outcome())
	}
}

func TestReconcile_ShortageScenario(t *testing.T) {
	in := baseInput()
	in.ManagerCashOnHand = 100

	l, err := reconcile.Reconcile(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.FinalResult != -200 {
		t.Errorf("expected shortage of 200, got %d", l.FinalResult)
	}
	if l.Outcome() != reconcile.OutcomeShortage {
		t.Errorf("expected shortage, got %s", l.Outcome())
	}
}

func TestReconcile_AdditiveConsistency(t *testing.T) {
	// The chained invariants must hold for arbitrary business values,
	// including negative theoretical sales.
	cases := []struct {
		name                                string
		carried, endStock, cash, cashOnHand catalog.Money
		deliveries                          []catalog.Money
		expenses                            []catalog.Money
	}{
		{"all zeros", 0, 0, 0, 0, nil, nil},
		{"balanced example", 10000, 8000, 6500, 300, []catalog.Money{5000}, []catalog.Money{200}},
		{"over-delivery", 1000, 50000, 0, 0, []catalog.Money{2000, 3000}, nil},
		{"many expenses", 20000, 5000, 9000, 6000, []catalog.Money{1000}, []catalog.Money{500, 250, 250}},
		{"no deliveries", 7500, 2500, 4000, 1000, nil, []catalog.Money{100}},
	}

	for _, tc := range cases {
		in := reconcile.PeriodInput{
			Date:              day(2025, time.June, 1),
			Manager:           "Afi",
			CarriedStock:      tc.carried,
			EndingStock:       stock(tc.endStock),
			CashCollected:     tc.cash,
			ManagerCashOnHand: tc.cashOnHand,
		}
		for _, d := range tc.deliveries {
			in.Deliveries = append(in.Deliveries, delivery(d))
		}
		for _, e := range tc.expenses {
			in.Expenses = append(in.Expenses, reconcile.Expense{Motive: "divers", Amount: e})
		}

		l, err := reconcile.Reconcile(in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}

		if l.TheoreticalSales != l.CarriedStock+l.DeliveryTotal-l.EndingStockTotal {
			t.Errorf("%s: theoreticalSales inconsistent", tc.name)
		}
		if l.FinalResult != l.ManagerCashOnHand-(l.TheoreticalSales-l.CashCollected-l.TotalExpenses) {
			t.Errorf("%s: finalResult inconsistent", tc.name)
		}
	}
}

func TestReconcile_NegativeTheoreticalSalesIsLegal(t *testing.T) {
	// Ending stock above gross stock signals over-delivery, not an error.
	in := baseInput()
	in.EndingStock = stock(50000)

	l, err := reconcile.Reconcile(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.TheoreticalSales != -35000 {
		t.Errorf("expected -35000, got %d", l.TheoreticalSales)
	}
}

func TestReconcile_RejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*reconcile.PeriodInput)
	}{
		{"empty manager", func(in *reconcile.PeriodInput) { in.Manager = "  " }},
		{"zero date", func(in *reconcile.PeriodInput) { in.Date = time.Time{} }},
		{"empty expense motive", func(in *reconcile.PeriodInput) {
			in.Expenses = []reconcile.Expense{{Motive: "", Amount: 100}}
		}},
		{"non-positive expense", func(in *reconcile.PeriodInput) {
			in.Expenses = []reconcile.Expense{{Motive: "Transport", Amount: 0}}
		}},
	}

	for _, tc := range cases {
		in := baseInput()
		tc.mutate(&in)
		if _, err := reconcile.Reconcile(in); !errors.Is(err, reconcile.ErrInvalidLedgerInput) {
			t.Errorf("%s: expected ErrInvalidLedgerInput, got %v", tc.name, err)
		}
	}
}
