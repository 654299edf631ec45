package catalog

import (
	"strings"

	"storefront/internal/models"
)

// EnrichExtras fills in extras for remote products that have none. The local
// definition with the same id or name wins; otherwise the product inherits
// every extra offered in its category locally.
func EnrichExtras(remote, local []models.Product) []models.Product {
	out := make([]models.Product, len(remote))
	for i, p := range remote {
		out[i] = p.Clone()
		if len(p.Extras) > 0 {
			continue
		}
		if def, ok := findLocal(p, local); ok && len(def.Extras) > 0 {
			out[i].Extras = models.CloneExtras(def.Extras)
			continue
		}
		if pool := categoryExtras(p.Category, local); len(pool) > 0 {
			out[i].Extras = pool
		}
	}
	return out
}

func findLocal(p models.Product, local []models.Product) (models.Product, bool) {
	for _, l := range local {
		if l.ID == p.ID {
			return l, true
		}
	}
	name := strings.ToLower(strings.TrimSpace(p.Name))
	for _, l := range local {
		if strings.ToLower(strings.TrimSpace(l.Name)) == name {
			return l, true
		}
	}
	return models.Product{}, false
}

func categoryExtras(category string, local []models.Product) []models.Extra {
	if strings.TrimSpace(category) == "" {
		return nil
	}
	var pool []models.Extra
	seen := map[string]int{}
	for _, l := range local {
		if !l.InCategory(category) {
			continue
		}
		for _, e := range l.Extras {
			if idx, ok := seen[e.ID]; ok {
				pool[idx] = e
				continue
			}
			seen[e.ID] = len(pool)
			pool = append(pool, e)
		}
	}
	return pool
}
