/*
snapshot.go - Itemized valuations of a stock count or a delivery

PURPOSE:
  A Snapshot freezes "what was there and what it was worth" at a moment
  in time: one line per drink with a non-zero quantity, plus a total
  over the full quantity base. Stock counts and deliveries share the
  same shape; a delivery additionally carries an identity so it can be
  listed and deleted individually before reconciliation.

INVARIANTS:
  1. Total == sum of every valued entry, including zero-quantity ones
     (which contribute zero) - recomputing from the same quantity map
     always yields the same Snapshot
  2. Lines keep catalog order, then unknown names in sorted order, so
     snapshots are deterministic and diffable
  3. Drinks deleted from the catalog but present in a historical
     quantity map become zero-valued placeholder lines, never an error

SEE ALSO:
  - valuation.go: Per-line valuation
  - audit/diff.go: Compares snapshots during corrections
*/
package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barstock/inventory-engine/catalog"
)

// =============================================================================
// SNAPSHOT TYPES
// =============================================================================

// Line is one valued drink within a snapshot.
type Line struct {
	Name        string
	Quantity    decimal.Decimal
	PackageSize int // size used for valuation; 0 for unknown placeholders
	Value       catalog.Money
	Unknown     bool // drink was not in the catalog at build time
}

// Snapshot is a dated, itemized valuation.
type Snapshot struct {
	Date  time.Time
	Lines []Line
	Total catalog.Money
}

// Delivery is a snapshot of one incoming delivery. The ID lets the
// record be listed, viewed, and deleted individually before the period
// is reconciled.
type Delivery struct {
	ID string
	Snapshot
}

// Entry is a caller-supplied (drink, quantity, package size) triple.
// PackageSize 0 means the drink's default size.
type Entry struct {
	Name        string
	Quantity    decimal.Decimal
	PackageSize int
}

// =============================================================================
// SNAPSHOT BUILDER
// =============================================================================

// BuildStockSnapshot values a stock count. quantities maps drink name
// to counted quantity; catalog drinks not present default to zero.
// Names absent from the current catalog (possible during corrections)
// become zero-valued placeholder lines.
func BuildStockSnapshot(date time.Time, quantities map[string]decimal.Decimal, cat *catalog.Catalog) (Snapshot, error) {
	snap := Snapshot{Date: date}

	seen := make(map[string]bool, cat.Len())
	for _, d := range cat.Drinks() {
		seen[d.Name] = true
		qty := quantities[d.Name]
		value, err := Value(catalog.Known(d), qty, 0)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Total += value
		if qty.IsZero() {
			continue // zero lines stay out of the itemized list
		}
		snap.Lines = append(snap.Lines, Line{
			Name:        d.Name,
			Quantity:    qty,
			PackageSize: d.DefaultSize(),
			Value:       value,
		})
	}

	// Historical names no longer in the catalog: keep them visible as
	// placeholders so a correction does not lose the quantity.
	var unknown []string
	for name := range quantities {
		if !seen[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		qty := quantities[name]
		if _, err := Value(catalog.Unknown(name), qty, 0); err != nil {
			return Snapshot{}, err
		}
		if qty.IsZero() {
			continue
		}
		snap.Lines = append(snap.Lines, Line{Name: name, Quantity: qty, Unknown: true})
	}

	return snap, nil
}

// BuildDeliverySnapshot values one delivery from its explicit entries.
// Zero-quantity entries are dropped; an entry naming a drink outside
// the catalog becomes an unknown placeholder line.
func BuildDeliverySnapshot(id string, date time.Time, entries []Entry, cat *catalog.Catalog) (Delivery, error) {
	snap := Snapshot{Date: date}

	for _, e := range entries {
		ref := cat.Resolve(e.Name)
		value, err := Value(ref, e.Quantity, e.PackageSize)
		if err != nil {
			return Delivery{}, err
		}
		snap.Total += value
		if e.Quantity.IsZero() {
			continue
		}

		line := Line{Name: e.Name, Quantity: e.Quantity, Value: value}
		if d, known := ref.Drink(); known {
			line.PackageSize = e.PackageSize
			if line.PackageSize == 0 {
				line.PackageSize = d.DefaultSize()
			}
		} else {
			line.Unknown = true
		}
		snap.Lines = append(snap.Lines, line)
	}

	return Delivery{ID: id, Snapshot: snap}, nil
}

// QuantityMap rebuilds the name -> quantity base from snapshot lines.
// Used when reloading a saved entry into a correction session.
func (s Snapshot) QuantityMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s.Lines))
	for _, l := range s.Lines {
		m[l.Name] = l.Quantity
	}
	return m
}
