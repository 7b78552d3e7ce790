/*
Package catalog defines the trackable items (drinks) and their pricing rules.

PURPOSE:
  This package is the leaf of the system: every other package consumes it
  read-only. A Drink describes how a beverage is packaged and priced; the
  valuation engine turns (drink, quantity, package size) into money.

KEY CONCEPTS IN THIS FILE:
  - Money: integer amount in the smallest currency unit (CFA franc).
    All monetary fields across the system are Money so the
    reconciliation chain never accumulates floating-point drift.
  - Drink: a catalog item with packaging, package sizes, and optionally
    a special (non-linear) pricing rule.
  - Ref: tagged reference to a drink that is either Known (present in
    the current catalog) or Unknown (deleted from the catalog but still
    referenced by a historical quantity map).

DESIGN PRINCIPLES:
  1. Immutability: catalog values are treated as read-only by consumers
  2. Precision: quantities are decimal.Decimal (half-cases are legal)
  3. Explicitness: a deleted drink is an Unknown ref, never a fabricated
     zero-priced Drink

SEE ALSO:
  - valuation/valuation.go: Turns Refs and quantities into Money
  - factory/catalog.go: Parses JSON drink definitions
*/
package catalog

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Integer amount in the smallest currency unit
// =============================================================================

// Money is an amount in CFA francs. The franc has no subunit, so Money
// is exact; all derived ledger fields stay integers by construction.
type Money int64

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10) + " FCFA"
}

// =============================================================================
// PACKAGING
// =============================================================================

type Packaging string

const (
	PackagingCase   Packaging = "case"
	PackagingBag    Packaging = "bag"
	PackagingCarton Packaging = "carton"
	PackagingUnit   Packaging = "unit"
)

func (p Packaging) Valid() bool {
	switch p {
	case PackagingCase, PackagingBag, PackagingCarton, PackagingUnit:
		return true
	}
	return false
}

// =============================================================================
// SPECIAL PRICING - Non-linear valuation rules
// =============================================================================

// SpecialRule selects which non-linear formula applies to a special drink.
// The two rules co-existed in the business's history; rather than merging
// them, each special drink names the rule it uses.
type SpecialRule string

const (
	// RuleLot: totalUnits = qty x size; raw = totalUnits / GroupSize x
	// GroupPrice; value rounds up to the nearest 50 francs.
	RuleLot SpecialRule = "lot"

	// RuleGroup: groups = round((qty / GroupSize) x 10) / 10;
	// value = round(groups x GroupPrice).
	RuleGroup SpecialRule = "group"
)

// SpecialPricing overrides the standard qty x price formula.
// It complements, but does not replace, Packaging/PackageSizes.
type SpecialPricing struct {
	Rule       SpecialRule
	GroupSize  int   // units per priced group (e.g. 3)
	GroupPrice Money // price per group (e.g. 1000)
}

// =============================================================================
// DRINK - A trackable catalog item
// =============================================================================

type Drink struct {
	Name      string    // unique, stable across the catalog
	UnitPrice Money     // meaning depends on Packaging
	Packaging Packaging

	// PackageSizes holds the units-per-package alternatives, in order.
	// Most drinks have exactly one size; some cases ship as 12 or 20.
	// The first entry is the default when the caller does not choose.
	PackageSizes []int

	Special *SpecialPricing // nil for standard pricing
}

// DefaultSize returns the size used when the caller does not pick one.
func (d Drink) DefaultSize() int {
	if len(d.PackageSizes) == 0 {
		return 1
	}
	return d.PackageSizes[0]
}

// AllowsSize reports whether size is one of the drink's package sizes.
func (d Drink) AllowsSize(size int) bool {
	for _, s := range d.PackageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Validate checks the catalog invariants.
func (d Drink) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDrink)
	}
	if d.UnitPrice < 0 {
		return fmt.Errorf("%w: %s has negative unit price", ErrInvalidDrink, d.Name)
	}
	if !d.Packaging.Valid() {
		return fmt.Errorf("%w: %s has unknown packaging %q", ErrInvalidDrink, d.Name, d.Packaging)
	}
	if len(d.PackageSizes) == 0 {
		return fmt.Errorf("%w: %s has no package sizes", ErrInvalidDrink, d.Name)
	}
	for _, s := range d.PackageSizes {
		if s <= 0 {
			return fmt.Errorf("%w: %s has non-positive package size %d", ErrInvalidDrink, d.Name, s)
		}
	}
	if d.Special != nil {
		if d.Special.GroupSize <= 0 {
			return fmt.Errorf("%w: %s has non-positive special group size", ErrInvalidDrink, d.Name)
		}
		if d.Special.GroupPrice < 0 {
			return fmt.Errorf("%w: %s has negative special group price", ErrInvalidDrink, d.Name)
		}
		switch d.Special.Rule {
		case RuleLot, RuleGroup:
		default:
			return fmt.Errorf("%w: %s has unknown special rule %q", ErrInvalidDrink, d.Name, d.Special.Rule)
		}
	}
	return nil
}

// =============================================================================
// REF - Known/Unknown reference to a drink
// =============================================================================

// Ref points at a drink by name. During corrections, historical quantity
// maps may reference drinks that have since been deleted from the
// catalog; those resolve to Unknown refs, which value to zero.
type Ref struct {
	name  string
	drink *Drink
}

// Known wraps a catalog drink.
func Known(d Drink) Ref {
	return Ref{name: d.Name, drink: &d}
}

// Unknown references a drink no longer in the catalog.
func Unknown(name string) Ref {
	return Ref{name: name}
}

func (r Ref) Name() string { return r.name }

// Drink returns the catalog drink and whether the ref is Known.
func (r Ref) Drink() (Drink, bool) {
	if r.drink == nil {
		return Drink{}, false
	}
	return *r.drink, true
}

// =============================================================================
// CATALOG - Lookup over the current drink list
// =============================================================================

// Catalog is an ordered, name-indexed view of the current drinks.
type Catalog struct {
	drinks []Drink
	byName map[string]int
}

func New(drinks []Drink) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(drinks))}
	for _, d := range drinks {
		if _, dup := c.byName[d.Name]; dup {
			continue // first definition wins
		}
		c.byName[d.Name] = len(c.drinks)
		c.drinks = append(c.drinks, d)
	}
	return c
}

// Drinks returns the drinks in catalog order.
func (c *Catalog) Drinks() []Drink {
	out := make([]Drink, len(c.drinks))
	copy(out, c.drinks)
	return out
}

// Resolve returns a Known ref when the name is in the catalog,
// otherwise an Unknown placeholder ref.
func (c *Catalog) Resolve(name string) Ref {
	if i, ok := c.byName[name]; ok {
		return Known(c.drinks[i])
	}
	return Unknown(name)
}

func (c *Catalog) Len() int { return len(c.drinks) }

// =============================================================================
// QUANTITY HELPERS
// =============================================================================

// Qty builds a quantity from an integer count.
func Qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// QtyFromFloat builds a quantity from a float (API boundary only).
func QtyFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
