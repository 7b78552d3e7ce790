/*
defaults.go - Factory catalog shipped with new deployments

The default drink list mirrors the stock actually carried by the pilot
bars. A fresh deployment is seeded with these; operators then add,
reprice, or delete drinks through the catalog API.
*/
package catalog

func cased(name string, price Money, sizes ...int) Drink {
	return Drink{Name: name, UnitPrice: price, Packaging: PackagingCase, PackageSizes: sizes}
}

func carton(name string, price Money, size int) Drink {
	return Drink{Name: name, UnitPrice: price, Packaging: PackagingCarton, PackageSizes: []int{size}}
}

func bag(name string, price Money, size int) Drink {
	return Drink{Name: name, UnitPrice: price, Packaging: PackagingBag, PackageSizes: []int{size}}
}

func unit(name string, price Money) Drink {
	return Drink{Name: name, UnitPrice: price, Packaging: PackagingUnit, PackageSizes: []int{1}}
}

// Defaults returns the factory catalog. The returned slice is fresh on
// every call; callers may mutate it freely.
func Defaults() []Drink {
	beninoisePt := cased("La Beninoise Pt", 350, 24)
	beninoisePt.Special = &SpecialPricing{Rule: RuleLot, GroupSize: 3, GroupPrice: 1000}

	return []Drink{
		cased("AWOYO", 1000, 12),
		cased("B.fort gr", 600, 12, 20),
		cased("B.Fort pt", 400, 24),
		unit("Black Label", 25000),
		cased("Budweiser", 600, 12),
		unit("Campari", 12000),
		cased("Castel", 500, 12, 20),
		cased("Chill", 600, 12, 20),
		carton("Desperados Can.", 500, 24),
		carton("Desperados Bt.", 1300, 24),
		cased("Doppel Energy", 500, 24),
		cased("Doppel_NOIR", 600, 12, 20),
		cased("Doppel_Lager", 500, 24),
		bag("EAUX", 600, 6),
		cased("EKU", 600, 24),
		cased("Flag", 600, 12),
		cased("Guiness", 700, 24),
		cased("Gulder", 500, 12),
		cased("Hagbe", 500, 12, 20),
		carton("Heinecken Bt.", 1000, 24),
		carton("Heinecken Can.", 500, 24),
		unit("Henessy", 0),
		unit("Imperial", 0),
		carton("J.P Chenet", 6000, 6),
		unit("Label CINQ", 10000),
		cased("La Beninoise Gr", 600, 12),
		beninoisePt,
		cased("Legend", 600, 12),
		cased("Lion-force", 600, 24),
		cased("Malta Café", 350, 24),
		bag("Malta Guiness", 500, 24),
		bag("Muscador", 6000, 6),
		cased("Pils gr", 800, 12),
		cased("Pils pt", 500, 24),
		cased("Racines", 700, 12, 20),
		carton("Rox", 800, 24),
		unit("Red Label", 10000),
		carton("Savana", 1500, 24),
		cased("Sucrerie gr", 500, 12, 20),
		cased("Sucrerie pt", 300, 24),
		cased("Tequila", 500, 24),
		cased("VIN", 3000, 6),
		cased("Vin Valmond", 1000, 20),
		unit("Vodka", 8000),
		carton("Vody", 800, 24),
		cased("Whisky cola", 600, 12, 20),
		bag("XXL", 600, 6),
	}
}
