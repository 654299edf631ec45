package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// ProductPatch is a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name                  *string         `json:"name"`
	Description           *string         `json:"description"`
	Price                 *int64          `json:"price"`
	Image                 *string         `json:"image"`
	Category              *string         `json:"category"`
	IsPopular             *bool           `json:"is_popular"`
	IsPromo               *bool           `json:"is_promo"`
	IsCombo               *bool           `json:"is_combo"`
	Extras                *[]models.Extra `json:"extras"`
	BurgersToSelect       *int            `json:"burgers_to_select"`
	AllowDuplicateBurgers *bool           `json:"allow_duplicate_burgers"`
	AllowedBurgers        *[]string       `json:"allowed_burgers"`
	PriorityOrder         *int            `json:"priority_order"`
	ActiveDays            *[]string       `json:"active_days"`
	DiscountLabel         *string         `json:"discount_label"`
	DiscountPercentage    *float64        `json:"discount_percentage"`
}

// DecodePatch reads a patch from JSON, rejecting unknown fields
func DecodePatch(r io.Reader) (ProductPatch, error) {
	var patch ProductPatch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		if errors.Is(err, io.EOF) {
			return patch, apperr.Validation("empty product patch")
		}
		return patch, apperr.Validation("invalid product patch: %v", err)
	}
	return patch, nil
}

// Apply returns p with the patch applied
func (pp ProductPatch) Apply(p models.Product) models.Product {
	out := p.Clone()
	if pp.Name != nil {
		out.Name = *pp.Name
	}
	if pp.Description != nil {
		out.Description = *pp.Description
	}
	if pp.Price != nil {
		out.Price = *pp.Price
	}
	if pp.Image != nil {
		out.Image = *pp.Image
	}
	if pp.Category != nil {
		out.Category = *pp.Category
	}
	if pp.IsPopular != nil {
		out.IsPopular = *pp.IsPopular
	}
	if pp.IsPromo != nil {
		out.IsPromo = *pp.IsPromo
	}
	if pp.IsCombo != nil {
		out.IsCombo = *pp.IsCombo
	}
	if pp.Extras != nil {
		out.Extras = models.CloneExtras(*pp.Extras)
	}
	if pp.BurgersToSelect != nil {
		out.BurgersToSelect = *pp.BurgersToSelect
	}
	if pp.AllowDuplicateBurgers != nil {
		out.AllowDuplicateBurgers = models.BoolPtr(*pp.AllowDuplicateBurgers)
	}
	if pp.AllowedBurgers != nil {
		out.AllowedBurgers = append([]string(nil), *pp.AllowedBurgers...)
	}
	if pp.PriorityOrder != nil {
		out.PriorityOrder = *pp.PriorityOrder
	}
	if pp.ActiveDays != nil {
		out.ActiveDays = append([]string(nil), *pp.ActiveDays...)
	}
	if pp.DiscountLabel != nil {
		out.DiscountLabel = *pp.DiscountLabel
	}
	if pp.DiscountPercentage != nil {
		out.DiscountPercentage = *pp.DiscountPercentage
	}
	return out
}

// Validate checks the fields every stored product must satisfy
func Validate(p models.Product) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		problems = append(problems, "category is required")
	} else if strings.EqualFold(category, models.AllCategories) {
		problems = append(problems, fmt.Sprintf("%q is reserved and cannot be a category", models.AllCategories))
	}
	if p.BurgersToSelect < 0 {
		problems = append(problems, "burgers_to_select must not be negative")
	}
	if p.DiscountPercentage < 0 || p.DiscountPercentage > 100 {
		problems = append(problems, "discount_percentage must be between 0 and 100")
	}
	seen := map[string]bool{}
	for _, e := range p.Extras {
		switch {
		case strings.TrimSpace(e.ID) == "":
			problems = append(problems, "extra id is required")
		case seen[e.ID]:
			problems = append(problems, fmt.Sprintf("duplicate extra id %q", e.ID))
		case e.Price < 0:
			problems = append(problems, fmt.Sprintf("extra %q price must not be negative", e.ID))
		}
		seen[e.ID] = true
	}
	if len(problems) > 0 {
		label := p.Name
		if label == "" {
			label = p.ID
		}
		return apperr.Validation("invalid product %q: %s", label, strings.Join(problems, "; "))
	}
	return nil
}
