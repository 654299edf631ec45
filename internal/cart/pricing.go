package cart

import "storefront/internal/models"

// UnitPrice is the base price plus the selected extras plus the extras of every combo burger
func UnitPrice(item models.CartItem) int64 {
	total := item.Price + sumExtras(item.SelectedExtras)
	for _, cb := range item.ComboBurgers {
		total += sumExtras(cb.Extras)
	}
	return total
}

// LineTotal is the unit price times the quantity
func LineTotal(item models.CartItem) int64 {
	return UnitPrice(item) * int64(item.Quantity)
}

// Total sums the line totals of items
func Total(items []models.CartItem) int64 {
	var total int64
	for _, it := range items {
		total += LineTotal(it)
	}
	return total
}

func sumExtras(extras []models.Extra) int64 {
	var sum int64
	for _, e := range extras {
		sum += e.Price
	}
	return sum
}
