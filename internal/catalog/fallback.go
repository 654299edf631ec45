package catalog

import "storefront/internal/models"

var burgerExtras = []models.Extra{
	{ID: "extra-doble-cheddar", Name: "Doble Cheddar", Price: 1500},
	{ID: "extra-doble-bacon", Name: "Doble Bacon", Price: 1500},
	{ID: "extra-cheddar-papas", Name: "Cheddar en Papas", Price: 2000},
	{ID: "extra-bacon-papas", Name: "Bacon en Papas", Price: 2000},
	{ID: "extra-cheddar-bacon-papas", Name: "Cheddar y Bacon en Papas", Price: 3000},
	{ID: "extra-medallon", Name: "Medallón Extra 120g", Price: 3000},
}

var fallbackProducts = []models.Product{
	{
		ID:          "combo-bajonero-individual",
		Name:        "COMBO BAJONERO INDIVIDUAL",
		Description: "Cualquier hamburguesa a elección + Papas Fritas + Chocotorta Individual. ¡El bajón perfecto!",
		Price:       16000,
		Image:       "/combos/comboindividualul-1769139267385.png",
		Category:    models.CategoryCombos,
		IsPopular:   true,
		IsCombo:     true,
	},
	{
		ID:              "combo-bajonero-compartir",
		Name:            "COMBO BAJONERO PARA COMPARTIR",
		Description:     "2 Hamburguesas a elección + Papas Fritas + Chocotorta para Compartir. ¡Un festín para dos!",
		Price:           30000,
		Image:           "/combos/combox2ultimo-1769139297872.png",
		Category:        models.CategoryCombos,
		IsCombo:         true,
		BurgersToSelect: 2,
	},
	{
		ID:          "burger-doble-bacon",
		Name:        "DOBLE BACON",
		Description: "Doble carne (240g), 4 fetas de cheddar y 4 tiras de bacon crocante en pan de papa dorado en manteca.",
		Price:       14000,
		Image:       "/burgers/doblebaconultimo-1769139529253.png",
		Category:    models.CategoryBurgers,
		IsPopular:   true,
		Extras:      burgerExtras,
	},
	{
		ID:          "burger-super-mell",
		Name:        "CHEESEBURGER",
		Description: "Doble carne (240g), 4 fetas de cheddar y extra salsa cheddar en pan de papa dorado en manteca.",
		Price:       14000,
		Image:       "/burgers/supermellul-1769139391647.png",
		Category:    models.CategoryBurgers,
		IsPopular:   true,
		Extras:      burgerExtras,
	},
	{
		ID:          "burger-oklahoma",
		Name:        "OKLAHOMA",
		Description: "Doble carne (240g) smasheada con cebolla, 4 fetas de cheddar y salsa cheddar en pan de papa dorado.",
		Price:       14000,
		Image:       "/burgers/oklajomaul-1769139419558.png",
		Category:    models.CategoryBurgers,
		Extras:      burgerExtras,
	},
	{
		ID:          "chocotorta-grande",
		Name:        "CHOCOTORTA GRANDE",
		Description: "Nuestra clásica Chocotorta XXL. Capas infinitas de galletitas, dulce de leche y queso crema. ¡Perfecta para compartir!",
		Price:       7000,
		Image:       "/postres/chocograndeul-1769139461931.png",
		Category:    models.CategoryPostres,
		IsPopular:   true,
	},
	{
		ID:          "chocotorta-chica",
		Name:        "CHOCOTORTA CHICA",
		Description: "Nuestra deliciosa Chocotorta en porción individual. Capas de galletitas, dulce de leche y queso crema. ¡Para disfrutar solo!",
		Price:       4000,
		Image:       "/postres/chocochicaul-1769139502516.png",
		Category:    models.CategoryPostres,
	},
}

// Fallback returns a copy of the built-in catalog served when the store is
// unreachable or empty
func Fallback() []models.Product {
	return cloneAll(fallbackProducts)
}

func cloneAll(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
