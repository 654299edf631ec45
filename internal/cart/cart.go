// Package cart holds the ordered list of cart lines and the pricing rules
// applied to them. It performs no I/O.
package cart

import (
	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
)

// MaxQuantity is the largest quantity a single line may hold
const MaxQuantity = 99

// ErrItemNotFound is returned when a cart item id does not exist
var ErrItemNotFound = apperr.NotFound("cart item not found")

// Cart is an ordered sequence of cart lines
type Cart struct {
	items []models.CartItem
	newID func() string
}

// New creates an empty cart
func New() *Cart {
	return &Cart{newID: uuid.NewString}
}

// FromItems rebuilds a cart from persisted lines
func FromItems(items []models.CartItem) *Cart {
	c := New()
	for _, it := range items {
		c.items = append(c.items, it.Clone())
	}
	return c
}

// Add appends a new line with quantity 1 and returns its cart item id.
// The product, extras and combo selections are copied.
func (c *Cart) Add(product models.Product, extras []models.Extra, notes string, comboBurgers []models.ComboBurgerSelection) string {
	item := models.CartItem{
		Product:        product.Clone(),
		CartItemID:     c.newID(),
		Quantity:       1,
		SelectedExtras: models.CloneExtras(extras),
		Notes:          notes,
		ComboBurgers:   models.CloneSelections(comboBurgers),
	}
	c.items = append(c.items, item)
	return item.CartItemID
}

// Remove deletes the line with the given id. It reports whether a line was removed.
func (c *Cart) Remove(cartItemID string) bool {
	for i := range c.items {
		if c.items[i].CartItemID == cartItemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity adds delta to the line's quantity, clamped to [1, MaxQuantity]
func (c *Cart) UpdateQuantity(cartItemID string, delta int) error {
	i := c.index(cartItemID)
	if i < 0 {
		return ErrItemNotFound
	}
	q := c.items[i].Quantity
	switch {
	case delta > MaxQuantity-q:
		q = MaxQuantity
	case delta < 1-q:
		q = 1
	default:
		q += delta
	}
	c.items[i].Quantity = q
	return nil
}

// ItemUpdate lists the fields of a line that may be changed after it was added.
// Nil fields are left untouched.
type ItemUpdate struct {
	SelectedExtras *[]models.Extra
	Notes          *string
	ComboBurgers   *[]models.ComboBurgerSelection
}

// UpdateItem applies a partial update, preserving the line's id and quantity
func (c *Cart) UpdateItem(cartItemID string, upd ItemUpdate) error {
	i := c.index(cartItemID)
	if i < 0 {
		return ErrItemNotFound
	}
	if upd.SelectedExtras != nil {
		c.items[i].SelectedExtras = models.CloneExtras(*upd.SelectedExtras)
	}
	if upd.Notes != nil {
		c.items[i].Notes = *upd.Notes
	}
	if upd.ComboBurgers != nil {
		c.items[i].ComboBurgers = models.CloneSelections(*upd.ComboBurgers)
	}
	return nil
}

// Find returns a copy of the line with the given id
func (c *Cart) Find(cartItemID string) (models.CartItem, bool) {
	i := c.index(cartItemID)
	if i < 0 {
		return models.CartItem{}, false
	}
	return c.items[i].Clone(), true
}

// Items returns a copy of the lines in insertion order
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	for i, it := range c.items {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of lines
func (c *Cart) Len() int { return len(c.items) }

// TotalItems returns the sum of quantities
func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice returns the sum of line totals
func (c *Cart) TotalPrice() int64 {
	return Total(c.items)
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) index(cartItemID string) int {
	for i := range c.items {
		if c.items[i].CartItemID == cartItemID {
			return i
		}
	}
	return -1
}
