/*
Package factory provides JSON to Go drink conversion.

PURPOSE:
  Converts JSON drink definitions into catalog.Drink values. This
  enables catalog configuration without code changes - the bar owner
  can define drinks in JSON, and the factory creates the proper Go
  structs for seeding or import.

WHY JSON?
  - Non-developers can maintain the catalog
  - Easy integration with admin UI
  - Version control for catalog definitions
  - Database storage of drink documents

JSON SCHEMA:
  {
    "name": "Castel",
    "price": 500,
    "sizes": 12,              // or [12, 20]
    "packaging": "case",      // case, bag, carton, unit
    "special": true           // or {"rule": "group", "group_size": 3, "group_price": 1000}
  }

KEY FEATURES:
  - Accepts a single size or a list (first entry is the default)
  - "special": true applies the historical lot rule (3 units per 1000)
  - Validates the result through catalog.Drink.Validate

USAGE:
  factory := NewDrinkFactory()

  drink, err := factory.ParseDrink(jsonString)

  drinks, err := factory.ParseCatalog(jsonArray)

SEE ALSO:
  - catalog/catalog.go: Drink type definition
  - catalog/defaults.go: Go-based catalog presets
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/barstock/inventory-engine/catalog"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DrinkJSON is the JSON representation of a drink.
type DrinkJSON struct {
	Name      string       `json:"name"`
	Price     int64        `json:"price"`
	Sizes     SizesJSON    `json:"sizes"`
	Packaging string       `json:"packaging"`
	Special   *SpecialJSON `json:"special,omitempty"`
}

// SizesJSON accepts either a single number or a list of numbers, since
// both forms appear in exported catalogs.
type SizesJSON []int

func (s *SizesJSON) UnmarshalJSON(data []byte) error {
	var many []int
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one int
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("sizes must be a number or a list of numbers: %w", err)
	}
	*s = []int{one}
	return nil
}

// SpecialJSON accepts either a bare boolean (historical exports) or a
// full rule object.
type SpecialJSON struct {
	Rule       string `json:"rule"` // "lot" or "group"
	GroupSize  int    `json:"group_size"`
	GroupPrice int64  `json:"group_price"`
}

func (sp *SpecialJSON) UnmarshalJSON(data []byte) error {
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		if flag {
			// Historical shorthand: the lot rule at 3 units per 1000.
			*sp = SpecialJSON{Rule: "lot", GroupSize: 3, GroupPrice: 1000}
		}
		return nil
	}
	type plain SpecialJSON
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("special must be a boolean or a rule object: %w", err)
	}
	*sp = SpecialJSON(obj)
	return nil
}

// =============================================================================
// DRINK FACTORY
// =============================================================================

// DrinkFactory converts JSON definitions into catalog drinks.
type DrinkFactory struct{}

func NewDrinkFactory() *DrinkFactory {
	return &DrinkFactory{}
}

// ParseDrink converts one JSON drink definition into a validated
// catalog.Drink.
func (f *DrinkFactory) ParseDrink(jsonStr string) (catalog.Drink, error) {
	var def DrinkJSON
	if err := json.Unmarshal([]byte(jsonStr), &def); err != nil {
		return catalog.Drink{}, fmt.Errorf("invalid drink JSON: %w", err)
	}
	return f.build(def)
}

// ParseCatalog converts a JSON array of drink definitions. The whole
// batch is rejected on the first invalid drink.
func (f *DrinkFactory) ParseCatalog(jsonStr string) ([]catalog.Drink, error) {
	var defs []DrinkJSON
	if err := json.Unmarshal([]byte(jsonStr), &defs); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	drinks := make([]catalog.Drink, 0, len(defs))
	for i, def := range defs {
		d, err := f.build(def)
		if err != nil {
			return nil, fmt.Errorf("drink %d (%s): %w", i, def.Name, err)
		}
		drinks = append(drinks, d)
	}
	return drinks, nil
}

func (f *DrinkFactory) build(def DrinkJSON) (catalog.Drink, error) {
	d := catalog.Drink{
		Name:         def.Name,
		UnitPrice:    catalog.Money(def.Price),
		Packaging:    catalog.Packaging(def.Packaging),
		PackageSizes: def.Sizes,
	}

	// Unit-priced items need no package size; default to 1 when the
	// definition omits it.
	if d.Packaging == catalog.PackagingUnit && len(d.PackageSizes) == 0 {
		d.PackageSizes = []int{1}
	}

	if def.Special != nil && def.Special.Rule != "" {
		sp := catalog.SpecialPricing{
			GroupSize:  def.Special.GroupSize,
			GroupPrice: catalog.Money(def.Special.GroupPrice),
		}
		switch def.Special.Rule {
		case "lot":
			sp.Rule = catalog.RuleLot
		case "group":
			sp.Rule = catalog.RuleGroup
		default:
			return catalog.Drink{}, fmt.Errorf("%w: unknown special rule %q", catalog.ErrInvalidDrink, def.Special.Rule)
		}
		if sp.GroupSize <= 0 || sp.GroupPrice <= 0 {
			return catalog.Drink{}, fmt.Errorf("%w: special rule needs a positive group size and price", catalog.ErrInvalidDrink)
		}
		d.Special = &sp
	}

	if err := d.Validate(); err != nil {
		return catalog.Drink{}, err
	}
	return d, nil
}
