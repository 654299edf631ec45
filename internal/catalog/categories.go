package catalog

import (
	"sort"
	"strings"

	"storefront/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var categoryRank = map[string]int{
	strings.ToLower(models.CategoryCombos):  0,
	strings.ToLower(models.CategoryBurgers): 1,
	strings.ToLower(models.CategoryPostres): 2,
}

func rank(name string) int {
	if r, ok := categoryRank[strings.ToLower(strings.TrimSpace(name))]; ok {
		return r
	}
	return 999
}

// SortCategories orders names Combos, Burgers, Postres first and keeps the
// given order for the rest
func SortCategories(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return rank(names[i]) < rank(names[j])
	})
}

// NormalizeCategoryName trims and title-cases a category name
func NormalizeCategoryName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.Spanish).String(strings.Join(fields, " "))
}

// Categories lists the distinct categories of products in display order,
// followed by pending categories that have no products yet
func Categories(products []models.Product, pending []string) []models.Category {
	var names []string
	counts := map[string]int{}
	display := map[string]string{}

	add := func(name string) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return
		}
		if _, seen := display[key]; !seen {
			display[key] = strings.TrimSpace(name)
			names = append(names, key)
		}
	}
	for _, p := range products {
		add(p.Category)
		counts[strings.ToLower(strings.TrimSpace(p.Category))]++
	}
	for _, name := range pending {
		add(name)
	}

	SortCategories(names)
	out := make([]models.Category, 0, len(names))
	for _, key := range names {
		out = append(out, models.Category{
			Name:         display[key],
			ProductCount: counts[key],
			Empty:        counts[key] == 0,
		})
	}
	return out
}

// Filter returns the products in category, or all of them for AllCategories
func Filter(products []models.Product, category string) []models.Product {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, models.AllCategories) {
		return cloneAll(products)
	}
	out := []models.Product{}
	for _, p := range products {
		if p.InCategory(category) {
			out = append(out, p.Clone())
		}
	}
	return out
}
