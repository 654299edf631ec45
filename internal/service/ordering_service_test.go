package service

import (
	"context"
	"math"
	"net/url"
	"strings"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/customize"
	"storefront/internal/dispatch"
	"storefront/internal/models"
	"storefront/internal/redisclient"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	products []models.Product
}

func (c *stubCatalog) Lookup(id string) (models.Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Product{}, false
}

func (c *stubCatalog) Products() []models.Product {
	out := make([]models.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

var bacon = models.Extra{ID: "e1", Name: "Bacon", Price: 1500}

func newTestService(t *testing.T) *OrderingService {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	sessions := redisclient.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	catalog := &stubCatalog{products: []models.Product{
		{ID: "p1", Name: "DOBLE BACON", Price: 14000, Category: "Burgers", Extras: []models.Extra{bacon}},
		{ID: "p2", Name: "CHOCOTORTA CHICA", Price: 4000, Category: "Postres"},
		{ID: "c2", Name: "COMBO PARA COMPARTIR", Price: 30000, Category: "Combos", IsCombo: true, BurgersToSelect: 2},
	}}
	settings := dispatch.NewSettings("Bajoneras Burger", "541128422773", "https://wa.me", "$", "en")
	return NewOrderingService(sessions, catalog, dispatch.NewDispatcher(settings, nil))
}

func TestCartScenario(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	session, err := s.CreateSession(ctx)
	require.NoError(t, err)

	view, id1, err := s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "p1", ExtraIDs: []string{"e1"}})
	require.NoError(t, err)
	assert.Equal(t, int64(15500), view.Items[0].UnitPrice)

	view, err = s.UpdateQuantity(ctx, session.ID, id1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(46500), view.Items[0].LineTotal)

	view, id2, err := s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "p2"})
	require.NoError(t, err)
	assert.Equal(t, int64(50500), view.TotalPrice)

	view, err = s.RemoveItem(ctx, session.ID, id2)
	require.NoError(t, err)
	assert.Equal(t, int64(46500), view.TotalPrice)
	assert.Equal(t, 3, view.TotalItems)
}

func TestAddItemErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	session, err := s.CreateSession(ctx)
	require.NoError(t, err)

	_, _, err = s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "missing"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, _, err = s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "p2", ExtraIDs: []string{"e1"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "c2", ComboBurgers: []customize.BurgerPick{{BurgerID: "p1"}}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = s.AddItem(ctx, "no-such-session", &AddItemRequest{ProductID: "p1"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddItemQuantityBounds(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	session, err := s.CreateSession(ctx)
	require.NoError(t, err)

	_, _, err = s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "p1", Quantity: math.MaxInt64 / 1000})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, _, err = s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "p1", Quantity: -3})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	view, id, err := s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "p1", Quantity: cart.MaxQuantity})
	require.NoError(t, err)
	assert.Equal(t, cart.MaxQuantity, view.TotalItems)

	view, err = s.UpdateQuantity(ctx, session.ID, id, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, cart.MaxQuantity, view.Items[0].Quantity)
	assert.Equal(t, int64(14000*cart.MaxQuantity), view.TotalPrice)
}

func TestAddComboAndEdit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	session, err := s.CreateSession(ctx)
	require.NoError(t, err)

	view, id, err := s.AddItem(ctx, session.ID, &AddItemRequest{
		ProductID: "c2",
		Quantity:  2,
		ComboBurgers: []customize.BurgerPick{
			{BurgerID: "p1", ExtraIDs: []string{"e1"}},
			{BurgerID: "p1", Notes: "sin cebolla"},
		},
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, int64(31500), view.Items[0].UnitPrice)
	assert.Equal(t, int64(63000), view.TotalPrice)

	picks := []customize.BurgerPick{{BurgerID: "p1"}, {BurgerID: "p1"}}
	notes := "tocar timbre"
	view, err = s.UpdateItem(ctx, session.ID, id, &UpdateItemRequest{ComboBurgers: &picks, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, id, view.Items[0].CartItemID)
	assert.Equal(t, int64(30000), view.Items[0].UnitPrice)
	assert.Equal(t, "tocar timbre", view.Items[0].Notes)

	_, err = s.UpdateItem(ctx, session.ID, "missing", &UpdateItemRequest{Notes: &notes})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCheckoutGatingAndSend(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	session, err := s.CreateSession(ctx)
	require.NoError(t, err)

	_, err = s.NextStep(ctx, session.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "empty cart")

	_, _, err = s.AddItem(ctx, session.ID, &AddItemRequest{ProductID: "p1", ExtraIDs: []string{"e1"}, Quantity: 3})
	require.NoError(t, err)

	co, err := s.NextStep(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepCustomer, co.Checkout.Step)
	assert.Len(t, co.MissingFields, 3)

	_, err = s.NextStep(ctx, session.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "missing customer")

	_, err = s.Send(ctx, session.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "not at confirm")

	co, err = s.SetCustomer(ctx, session.ID, &CustomerRequest{
		Name: "Ana", Address: "Rivadavia 1234", BetweenStreets: "Sarmiento y Belgrano", PaymentMethod: models.PaymentTransfer,
	})
	require.NoError(t, err)
	assert.Empty(t, co.MissingFields)

	co, err = s.NextStep(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepConfirm, co.Checkout.Step)

	co, err = s.PrevStep(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepCustomer, co.Checkout.Step)
	_, err = s.NextStep(ctx, session.ID)
	require.NoError(t, err)

	res, err := s.Send(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(46500), res.TotalPrice)

	u, err := url.Parse(res.Link)
	require.NoError(t, err)
	assert.Equal(t, "/541128422773", u.Path)
	msg := u.Query().Get("text")
	assert.True(t, strings.HasPrefix(msg, "🍔 *NUEVO PEDIDO - Bajoneras Burger*"))
	assert.Contains(t, msg, "💳 *Pago:* Transferencia")

	cv, err := s.GetCart(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, cv.Items)
	assert.Zero(t, cv.TotalPrice)

	co, err = s.GetCheckout(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.NewDraft().Model(), co.Checkout)
}

func TestSetCustomerRejectsUnknownPayment(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	session, err := s.CreateSession(ctx)
	require.NoError(t, err)

	_, err = s.SetCustomer(ctx, session.ID, &CustomerRequest{Name: "Ana", PaymentMethod: "crypto"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	co, err := s.GetCheckout(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, co.Checkout.CustomerName)
}
