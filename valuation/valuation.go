/*
Package valuation converts counted quantities into money.

PURPOSE:
  The valuation engine is the only place where a (drink, quantity,
  package size) triple becomes a monetary value. Stock counts and
  delivery records both go through it, so a case of Castel is worth the
  same francs no matter which snapshot it appears in.

KEY CONCEPTS IN THIS FILE (valuation.go):
  - Value(): the single valuation contract
  - Package-size selection: multi-size drinks default to the first
    listed size when the caller does not choose (deliberate policy)
  - Special rules: non-linear formulas for drinks priced per group

CRITICAL INVARIANTS:
  1. PURE: no I/O, no clock, no state; same inputs, same output
  2. ZERO: Value(drink, 0, any size) == 0 for every drink
  3. EXPLICIT FAILURE: a negative quantity or a package size the drink
     does not ship in is rejected, never silently valued as zero
  4. UNKNOWN refs (drinks deleted from the catalog) value to zero -
     they are placeholders reconstructed during corrections

SEE ALSO:
  - snapshot.go: Aggregates valuations into itemized snapshots
  - catalog/catalog.go: Drink, Ref, Money definitions
*/
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/barstock/inventory-engine/catalog"
)

var (
	fifty = decimal.NewFromInt(50)
	ten   = decimal.NewFromInt(10)
)

// Value computes the monetary value of qty of the referenced drink.
//
// size selects among the drink's package sizes; pass 0 to use the
// drink's default (first) size. For unit-packaged drinks size is
// ignored. Unknown refs always value to zero.
func Value(ref catalog.Ref, qty decimal.Decimal, size int) (catalog.Money, error) {
	if qty.IsNegative() {
		return 0, &InvalidInputError{Drink: ref.Name(), Reason: "negative quantity"}
	}

	d, known := ref.Drink()
	if !known {
		return 0, nil
	}

	if size == 0 {
		size = d.DefaultSize()
	} else if !d.AllowsSize(size) {
		return 0, &InvalidInputError{Drink: d.Name, Reason: "package size not offered", Size: size}
	}

	if qty.IsZero() {
		return 0, nil
	}

	if d.Special != nil {
		return specialValue(d, qty, size), nil
	}

	price := decimal.NewFromInt(int64(d.UnitPrice))
	if d.Packaging == catalog.PackagingUnit {
		return toMoney(qty.Mul(price)), nil
	}
	return toMoney(qty.Mul(decimal.NewFromInt(int64(size))).Mul(price)), nil
}

// specialValue applies the drink's non-linear pricing rule.
func specialValue(d catalog.Drink, qty decimal.Decimal, size int) catalog.Money {
	groupSize := decimal.NewFromInt(int64(d.Special.GroupSize))
	groupPrice := decimal.NewFromInt(int64(d.Special.GroupPrice))

	switch d.Special.Rule {
	case catalog.RuleGroup:
		// groups counted to one decimal place, then priced per group.
		groups := qty.Div(groupSize).Round(1)
		return toMoney(groups.Mul(groupPrice))

	default: // RuleLot
		// All units in the lot, priced per group, rounded up to the
		// nearest 50 francs.
		totalUnits := qty.Mul(decimal.NewFromInt(int64(size)))
		raw := totalUnits.Div(groupSize).Mul(groupPrice)
		return catalog.Money(raw.Div(fifty).Ceil().Mul(fifty).IntPart())
	}
}

func toMoney(v decimal.Decimal) catalog.Money {
	return catalog.Money(v.Round(0).IntPart())
}
