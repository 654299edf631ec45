package catalog

import (
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
)

// Editor is an admin working copy of the catalog. Nothing is persisted until
// the caller saves Products().
type Editor struct {
	products []models.Product
	pending  []string
}

// NewEditor starts an editing session over a copy of products and the
// categories that have no products yet
func NewEditor(products []models.Product, pending []string) *Editor {
	return &Editor{
		products: cloneAll(products),
		pending:  append([]string(nil), pending...),
	}
}

// Products returns the working copy
func (e *Editor) Products() []models.Product { return cloneAll(e.products) }

// Pending returns the categories that exist without products
func (e *Editor) Pending() []string {
	var out []string
	for _, name := range e.pending {
		if e.countIn(name) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// Categories lists categories in display order
func (e *Editor) Categories() []models.Category {
	return Categories(e.products, e.pending)
}

// CreateProduct adds a product. A product without id gets a temporary one
// that the store replaces on save.
func (e *Editor) CreateProduct(p models.Product) (models.Product, error) {
	p = p.Clone()
	p.Category = strings.TrimSpace(p.Category)
	if err := Validate(p); err != nil {
		return models.Product{}, err
	}
	if p.ID == "" {
		p.ID = "new-" + uuid.New().String()
	}
	if e.index(p.ID) >= 0 {
		return models.Product{}, apperr.Validation("product %q already exists", p.ID)
	}
	e.products = append(e.products, p)
	return p.Clone(), nil
}

// UpdateProduct applies a patch to the product with id
func (e *Editor) UpdateProduct(id string, patch ProductPatch) (models.Product, error) {
	i := e.index(id)
	if i < 0 {
		return models.Product{}, apperr.NotFound("product %q not found", id)
	}
	updated := patch.Apply(e.products[i])
	updated.Category = strings.TrimSpace(updated.Category)
	if err := Validate(updated); err != nil {
		return models.Product{}, err
	}
	e.products[i] = updated
	return updated.Clone(), nil
}

// DeleteProduct removes the product with id
func (e *Editor) DeleteProduct(id string) error {
	i := e.index(id)
	if i < 0 {
		return apperr.NotFound("product %q not found", id)
	}
	e.products = append(e.products[:i], e.products[i+1:]...)
	return nil
}

// CreateCategory registers a new, empty category and returns its normalized name
func (e *Editor) CreateCategory(name string) (string, error) {
	normalized := NormalizeCategoryName(name)
	if normalized == "" {
		return "", apperr.Validation("category name is required")
	}
	if strings.EqualFold(normalized, models.AllCategories) {
		return "", apperr.Validation("%q is reserved and cannot be a category", models.AllCategories)
	}
	for _, c := range e.Categories() {
		if strings.EqualFold(c.Name, normalized) {
			return "", apperr.Validation("category %q already exists", c.Name)
		}
	}
	e.pending = append(e.pending, normalized)
	return normalized, nil
}

// DeleteCategory removes a category. A category with products is only
// removed together with them when cascade is set. It returns the number of
// products deleted.
func (e *Editor) DeleteCategory(name string, cascade bool) (int, error) {
	name = strings.TrimSpace(name)
	count := e.countIn(name)
	pendingIdx := -1
	for i, p := range e.pending {
		if strings.EqualFold(p, name) {
			pendingIdx = i
			break
		}
	}
	if count == 0 && pendingIdx < 0 {
		return 0, apperr.NotFound("category %q not found", name)
	}
	if count > 0 && !cascade {
		return 0, apperr.Validation("category %q has %d products; delete them too with cascade", name, count)
	}

	if count > 0 {
		kept := e.products[:0]
		for _, p := range e.products {
			if !p.InCategory(name) {
				kept = append(kept, p)
			}
		}
		e.products = kept
	}
	if pendingIdx >= 0 {
		e.pending = append(e.pending[:pendingIdx], e.pending[pendingIdx+1:]...)
	}
	return count, nil
}

func (e *Editor) countIn(category string) int {
	n := 0
	for _, p := range e.products {
		if p.InCategory(category) {
			n++
		}
	}
	return n
}

func (e *Editor) index(id string) int {
	for i := range e.products {
		if e.products[i].ID == id {
			return i
		}
	}
	return -1
}
