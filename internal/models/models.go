package models

import (
	"strings"
	"time"
)

// Category names with a fixed position in listings
const (
	CategoryCombos  = "Combos"
	CategoryBurgers = "Burgers"
	CategoryPostres = "Postres"

	// AllCategories is the synthetic filter value matching every product
	AllCategories = "Todos"
)

// Payment methods
const (
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"
)

// DeliveryMethodDelivery is the only supported delivery method
const DeliveryMethodDelivery = "delivery"

// Extra is an optional add-on with its own price
type Extra struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Product represents a product in the catalog
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	IsPopular   bool    `json:"is_popular,omitempty"`
	IsPromo     bool    `json:"is_promo,omitempty"`
	IsCombo     bool    `json:"is_combo,omitempty"`
	Extras      []Extra `json:"extras,omitempty"`

	BurgersToSelect       int      `json:"burgers_to_select,omitempty"`
	AllowDuplicateBurgers *bool    `json:"allow_duplicate_burgers,omitempty"`
	AllowedBurgers        []string `json:"allowed_burgers,omitempty"`

	PriorityOrder      int      `json:"priority_order,omitempty"`
	ActiveDays         []string `json:"active_days,omitempty"`
	DiscountLabel      string   `json:"discount_label,omitempty"`
	DiscountPercentage float64  `json:"discount_percentage,omitempty"`
}

// Clone returns a deep copy so later catalog edits never reach a snapshot
func (p Product) Clone() Product {
	out := p
	out.Extras = CloneExtras(p.Extras)
	if p.AllowDuplicateBurgers != nil {
		v := *p.AllowDuplicateBurgers
		out.AllowDuplicateBurgers = &v
	}
	if p.AllowedBurgers != nil {
		out.AllowedBurgers = append([]string(nil), p.AllowedBurgers...)
	}
	if p.ActiveDays != nil {
		out.ActiveDays = append([]string(nil), p.ActiveDays...)
	}
	return out
}

// FindExtra looks up one of the product's extras by id
func (p Product) FindExtra(id string) (Extra, bool) {
	for _, e := range p.Extras {
		if e.ID == id {
			return e, true
		}
	}
	return Extra{}, false
}

// InCategory compares categories case-insensitively after trimming
func (p Product) InCategory(category string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Category), strings.TrimSpace(category))
}

// ComboBurgerSelection is one burger chosen inside a combo
type ComboBurgerSelection struct {
	Burger Product `json:"burger"`
	Extras []Extra `json:"extras"`
	Notes  string  `json:"notes"`
}

// Clone returns a deep copy of the selection
func (s ComboBurgerSelection) Clone() ComboBurgerSelection {
	return ComboBurgerSelection{
		Burger: s.Burger.Clone(),
		Extras: CloneExtras(s.Extras),
		Notes:  s.Notes,
	}
}

// CartItem is a product snapshot plus the customer's customization
type CartItem struct {
	Product
	CartItemID     string                 `json:"cart_item_id"`
	Quantity       int                    `json:"quantity"`
	SelectedExtras []Extra                `json:"selected_extras,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	ComboBurgers   []ComboBurgerSelection `json:"combo_burgers,omitempty"`
}

// Clone returns a deep copy of the item
func (i CartItem) Clone() CartItem {
	out := i
	out.Product = i.Product.Clone()
	out.SelectedExtras = CloneExtras(i.SelectedExtras)
	out.ComboBurgers = CloneSelections(i.ComboBurgers)
	return out
}

// Category is a catalog category as listed to clients
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
	Empty        bool   `json:"empty"`
}

// Session is the per-customer ordering state kept between requests
type Session struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	Checkout  Checkout   `json:"checkout"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Checkout is the persisted form of a checkout draft
type Checkout struct {
	Step                   int    `json:"step"`
	CustomerName           string `json:"customer_name"`
	CustomerAddress        string `json:"customer_address"`
	CustomerBetweenStreets string `json:"customer_between_streets"`
	PaymentMethod          string `json:"payment_method"`
	DeliveryMethod         string `json:"delivery_method"`
}

// CloneExtras copies a slice of extras, keeping nil as nil
func CloneExtras(in []Extra) []Extra {
	if in == nil {
		return nil
	}
	return append([]Extra(nil), in...)
}

// CloneSelections deep-copies combo selections
func CloneSelections(in []ComboBurgerSelection) []ComboBurgerSelection {
	if in == nil {
		return nil
	}
	out := make([]ComboBurgerSelection, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool { return &b }
