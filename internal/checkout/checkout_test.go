package checkout

import (
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRequiresNonEmptyCart(t *testing.T) {
	d := NewDraft()

	err := d.Next(0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, StepCart, d.Step)

	require.NoError(t, d.Next(1))
	assert.Equal(t, StepCustomer, d.Step)
}

func TestNextRequiresCustomerFields(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.Next(2))

	d.SetCustomer("Ana", "   ", "")
	err := d.Next(2)
	require.Error(t, err)
	assert.Equal(t, []string{"customer_address", "customer_between_streets"}, d.MissingFields())
	assert.Equal(t, StepCustomer, d.Step)

	d.SetCustomer("Ana", "Rivadavia 1234", "Sarmiento y Belgrano")
	require.NoError(t, d.Next(2))
	assert.Equal(t, StepConfirm, d.Step)

	assert.Error(t, d.Next(2))
	assert.Equal(t, StepConfirm, d.Step)
}

func TestBackNeverValidates(t *testing.T) {
	d := NewDraft()
	d.Back()
	assert.Equal(t, StepCart, d.Step)

	d.Step = StepConfirm
	d.SetCustomer("", "", "")
	d.Back()
	assert.Equal(t, StepCustomer, d.Step)
	d.Back()
	assert.Equal(t, StepCart, d.Step)
}

func TestPaymentMethod(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, models.PaymentCash, d.PaymentMethod)

	d.TogglePaymentMethod()
	assert.Equal(t, models.PaymentTransfer, d.PaymentMethod)
	d.TogglePaymentMethod()
	assert.Equal(t, models.PaymentCash, d.PaymentMethod)

	require.NoError(t, d.SetPaymentMethod(models.PaymentTransfer))
	assert.Error(t, d.SetPaymentMethod("crypto"))
	assert.Equal(t, models.PaymentTransfer, d.PaymentMethod)
}

func TestResetAndModelRoundTrip(t *testing.T) {
	d := NewDraft()
	d.SetCustomer("Ana", "Rivadavia 1234", "Sarmiento")
	d.Step = StepConfirm
	d.TogglePaymentMethod()

	restored := FromModel(d.Model())
	assert.Equal(t, d, restored)

	d.Reset()
	assert.Equal(t, NewDraft(), d)
}

func TestFromModelSanitizes(t *testing.T) {
	d := FromModel(models.Checkout{Step: 7, PaymentMethod: "bitcoin"})
	assert.Equal(t, StepCart, d.Step)
	assert.Equal(t, models.PaymentCash, d.PaymentMethod)
	assert.Equal(t, models.DeliveryMethodDelivery, d.DeliveryMethod)
}
