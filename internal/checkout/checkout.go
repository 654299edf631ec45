// Package checkout implements the three-step checkout stepper:
// review cart, customer details, confirm.
package checkout

import (
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// Steps
const (
	StepCart     = 0
	StepCustomer = 1
	StepConfirm  = 2
)

// Draft holds the customer's checkout data until the order is sent
type Draft struct {
	Step                   int
	CustomerName           string
	CustomerAddress        string
	CustomerBetweenStreets string
	PaymentMethod          string
	DeliveryMethod         string
}

// NewDraft returns a draft at the cart step paying cash on delivery
func NewDraft() *Draft {
	return &Draft{
		Step:           StepCart,
		PaymentMethod:  models.PaymentCash,
		DeliveryMethod: models.DeliveryMethodDelivery,
	}
}

// FromModel rebuilds a draft from its persisted form
func FromModel(m models.Checkout) *Draft {
	d := &Draft{
		Step:                   m.Step,
		CustomerName:           m.CustomerName,
		CustomerAddress:        m.CustomerAddress,
		CustomerBetweenStreets: m.CustomerBetweenStreets,
		PaymentMethod:          m.PaymentMethod,
		DeliveryMethod:         models.DeliveryMethodDelivery,
	}
	if d.Step < StepCart || d.Step > StepConfirm {
		d.Step = StepCart
	}
	if d.PaymentMethod != models.PaymentTransfer {
		d.PaymentMethod = models.PaymentCash
	}
	return d
}

// Model returns the persisted form of the draft
func (d *Draft) Model() models.Checkout {
	return models.Checkout{
		Step:                   d.Step,
		CustomerName:           d.CustomerName,
		CustomerAddress:        d.CustomerAddress,
		CustomerBetweenStreets: d.CustomerBetweenStreets,
		PaymentMethod:          d.PaymentMethod,
		DeliveryMethod:         d.DeliveryMethod,
	}
}

// Next advances one step if the current step is complete
func (d *Draft) Next(cartLen int) error {
	switch d.Step {
	case StepCart:
		if cartLen == 0 {
			return apperr.Validation("cart is empty")
		}
	case StepCustomer:
		if missing := d.MissingFields(); len(missing) > 0 {
			return apperr.Validation("missing customer fields: %s", strings.Join(missing, ", "))
		}
	default:
		return apperr.Validation("already at the last checkout step")
	}
	d.Step++
	return nil
}

// Back returns to the previous step without validation. No-op at the first step.
func (d *Draft) Back() {
	if d.Step > StepCart {
		d.Step--
	}
}

// MissingFields lists the required customer fields that are blank
func (d *Draft) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(d.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(d.CustomerAddress) == "" {
		missing = append(missing, "customer_address")
	}
	if strings.TrimSpace(d.CustomerBetweenStreets) == "" {
		missing = append(missing, "customer_between_streets")
	}
	return missing
}

// SetCustomer replaces the customer fields
func (d *Draft) SetCustomer(name, address, betweenStreets string) {
	d.CustomerName = name
	d.CustomerAddress = address
	d.CustomerBetweenStreets = betweenStreets
}

// SetPaymentMethod selects cash or transfer
func (d *Draft) SetPaymentMethod(method string) error {
	switch method {
	case models.PaymentCash, models.PaymentTransfer:
		d.PaymentMethod = method
		return nil
	default:
		return apperr.Validation("unknown payment method %q", method)
	}
}

// TogglePaymentMethod switches between cash and transfer
func (d *Draft) TogglePaymentMethod() {
	if d.PaymentMethod == models.PaymentCash {
		d.PaymentMethod = models.PaymentTransfer
		return
	}
	d.PaymentMethod = models.PaymentCash
}

// Reset clears the draft back to its initial state
func (d *Draft) Reset() {
	*d = *NewDraft()
}
