package catalog

import (
	"errors"
	"testing"
)

func TestDefaults_AllValid(t *testing.T) {
	for _, d := range Defaults() {
		if err := d.Validate(); err != nil {
			t.Errorf("default drink %q fails validation: %v", d.Name, err)
		}
	}
}

func TestDefaults_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range Defaults() {
		if seen[d.Name] {
			t.Errorf("duplicate default drink name %q", d.Name)
		}
		seen[d.Name] = true
	}
}

func TestDrink_Validate(t *testing.T) {
	cases := []struct {
		name  string
		drink Drink
		ok    bool
	}{
		{"valid case drink", Drink{Name: "Castel", UnitPrice: 500, Packaging: PackagingCase, PackageSizes: []int{12, 20}}, true},
		{"empty name", Drink{UnitPrice: 500, Packaging: PackagingCase, PackageSizes: []int{12}}, false},
		{"negative price", Drink{Name: "X", UnitPrice: -1, Packaging: PackagingUnit, PackageSizes: []int{1}}, false},
		{"zero price is legal", Drink{Name: "Henessy", UnitPrice: 0, Packaging: PackagingUnit, PackageSizes: []int{1}}, true},
		{"bad packaging", Drink{Name: "X", UnitPrice: 500, Packaging: "pallet", PackageSizes: []int{12}}, false},
		{"no sizes", Drink{Name: "X", UnitPrice: 500, Packaging: PackagingCase}, false},
		{"zero size", Drink{Name: "X", UnitPrice: 500, Packaging: PackagingCase, PackageSizes: []int{0}}, false},
		{"special needs group size", Drink{Name: "X", UnitPrice: 350, Packaging: PackagingCase, PackageSizes: []int{24},
			Special: &SpecialPricing{Rule: RuleLot, GroupSize: 0, GroupPrice: 1000}}, false},
		{"special unknown rule", Drink{Name: "X", UnitPrice: 350, Packaging: PackagingCase, PackageSizes: []int{24},
			Special: &SpecialPricing{Rule: "bulk", GroupSize: 3, GroupPrice: 1000}}, false},
	}

	for _, tc := range cases {
		err := tc.drink.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s: expected error, got nil", tc.name)
			} else if !errors.Is(err, ErrInvalidDrink) {
				t.Errorf("%s: error does not wrap ErrInvalidDrink: %v", tc.name, err)
			}
		}
	}
}

func TestCatalog_Resolve(t *testing.T) {
	c := New([]Drink{
		{Name: "Castel", UnitPrice: 500, Packaging: PackagingCase, PackageSizes: []int{12, 20}},
	})

	ref := c.Resolve("Castel")
	d, known := ref.Drink()
	if !known {
		t.Fatal("Castel should resolve to a Known ref")
	}
	if d.UnitPrice != 500 {
		t.Errorf("expected price 500, got %d", d.UnitPrice)
	}

	// A name missing from the catalog resolves to an Unknown placeholder,
	// not an error. Corrections rely on this.
	gone := c.Resolve("Chill")
	if _, known := gone.Drink(); known {
		t.Error("deleted drink should resolve to Unknown")
	}
	if gone.Name() != "Chill" {
		t.Errorf("Unknown ref should keep its name, got %q", gone.Name())
	}
}

func TestDrink_SizeSelection(t *testing.T) {
	d := Drink{Name: "Castel", UnitPrice: 500, Packaging: PackagingCase, PackageSizes: []int{12, 20}}

	if got := d.DefaultSize(); got != 12 {
		t.Errorf("default size should be the first listed, got %d", got)
	}
	if !d.AllowsSize(20) {
		t.Error("20 should be an allowed size")
	}
	if d.AllowsSize(24) {
		t.Error("24 is not an allowed size")
	}
}
