package service

import (
	"context"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/customize"
	"storefront/internal/dispatch"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SessionStore persists ordering sessions
type SessionStore interface {
	SaveSession(ctx context.Context, s *models.Session) error
	LoadSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error)
}

// ProductCatalog resolves products added to a cart
type ProductCatalog interface {
	Lookup(id string) (models.Product, bool)
	Products() []models.Product
}

// OrderDispatcher hands a finished order to the shop
type OrderDispatcher interface {
	Dispatch(ctx context.Context, order dispatch.Order) (string, error)
}

// OrderingService handles the customer's cart and checkout
type OrderingService struct {
	sessions   SessionStore
	catalog    ProductCatalog
	dispatcher OrderDispatcher
	logger     *zap.Logger
}

// NewOrderingService creates a new ordering service
func NewOrderingService(sessions SessionStore, catalog ProductCatalog, dispatcher OrderDispatcher) *OrderingService {
	return &OrderingService{
		sessions:   sessions,
		catalog:    catalog,
		dispatcher: dispatcher,
		logger:     util.GetLogger(),
	}
}

// AddItemRequest represents a request to add a product to the cart
type AddItemRequest struct {
	ProductID    string                 `json:"product_id" binding:"required"`
	ExtraIDs     []string               `json:"extra_ids"`
	Notes        string                 `json:"notes"`
	ComboBurgers []customize.BurgerPick `json:"combo_burgers"`
	Quantity     int                    `json:"quantity" binding:"omitempty,min=1,max=99"`
}

// UpdateItemRequest represents a change to a cart line's customization
type UpdateItemRequest struct {
	ExtraIDs     *[]string               `json:"extra_ids"`
	Notes        *string                 `json:"notes"`
	ComboBurgers *[]customize.BurgerPick `json:"combo_burgers"`
}

// CustomerRequest carries the checkout form fields
type CustomerRequest struct {
	Name           string `json:"customer_name"`
	Address        string `json:"customer_address"`
	BetweenStreets string `json:"customer_between_streets"`
	PaymentMethod  string `json:"payment_method"`
}

// CartLine is a cart item with its computed prices
type CartLine struct {
	models.CartItem
	UnitPrice int64 `json:"unit_price"`
	LineTotal int64 `json:"line_total"`
}

// CartView is the cart as returned to clients
type CartView struct {
	SessionID  string     `json:"session_id"`
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice int64      `json:"total_price"`
}

// CheckoutView is the checkout draft as returned to clients
type CheckoutView struct {
	SessionID     string          `json:"session_id"`
	Checkout      models.Checkout `json:"checkout"`
	MissingFields []string        `json:"missing_fields"`
	TotalPrice    int64           `json:"total_price"`
}

// SendResult is returned after an order was handed off
type SendResult struct {
	Link       string `json:"link"`
	TotalPrice int64  `json:"total_price"`
}

// CreateSession starts an empty ordering session
func (s *OrderingService) CreateSession(ctx context.Context) (*models.Session, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.CreateSession")
	defer span.End()

	session := &models.Session{
		ID:        uuid.New().String(),
		Items:     []models.CartItem{},
		Checkout:  checkout.NewDraft().Model(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Debug("Ordering session created", zap.String("session_id", session.ID))
	return session, nil
}

// GetCart returns the cart of a session
func (s *OrderingService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	session, err := s.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return cartView(session), nil
}

// AddItem customizes a product and appends it to the cart as a new line
func (s *OrderingService) AddItem(ctx context.Context, sessionID string, req *AddItemRequest) (*CartView, string, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.AddItem", attribute.String("session_id", sessionID))
	defer span.End()

	if req.Quantity < 0 || req.Quantity > cart.MaxQuantity {
		return nil, "", apperr.Validation("quantity must be between 1 and %d", cart.MaxQuantity)
	}
	product, ok := s.catalog.Lookup(req.ProductID)
	if !ok {
		return nil, "", apperr.NotFound("product %q not found", req.ProductID)
	}
	sel, err := customize.Apply(product, req.ExtraIDs, req.Notes)
	if err != nil {
		return nil, "", err
	}
	var combo []models.ComboBurgerSelection
	if product.IsCombo {
		if combo, err = customize.Replay(product, s.catalog.Products(), req.ComboBurgers); err != nil {
			return nil, "", err
		}
	} else if len(req.ComboBurgers) > 0 {
		return nil, "", apperr.Validation("%s is not a combo", product.Name)
	}

	var itemID string
	session, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		c := cart.FromItems(session.Items)
		itemID = c.Add(product, sel.Extras, sel.Notes, combo)
		if req.Quantity > 1 {
			if err := c.UpdateQuantity(itemID, req.Quantity-1); err != nil {
				return err
			}
		}
		session.Items = c.Items()
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Info("Item added to cart",
		zap.String("session_id", sessionID),
		zap.String("product_id", product.ID),
		zap.String("cart_item_id", itemID))
	return cartView(session), itemID, nil
}

// UpdateQuantity changes a line's quantity by delta, within 1 and cart.MaxQuantity
func (s *OrderingService) UpdateQuantity(ctx context.Context, sessionID, cartItemID string, delta int) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.UpdateQuantity", attribute.String("session_id", sessionID))
	defer span.End()

	session, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		c := cart.FromItems(session.Items)
		if err := c.UpdateQuantity(cartItemID, delta); err != nil {
			return err
		}
		session.Items = c.Items()
		return nil
	})
	if err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues("quantity").Inc()
	return cartView(session), nil
}

// UpdateItem re-customizes a cart line. Extras are checked against the
// product snapshot stored in the line; combo burgers against the current catalog.
func (s *OrderingService) UpdateItem(ctx context.Context, sessionID, cartItemID string, req *UpdateItemRequest) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.UpdateItem", attribute.String("session_id", sessionID))
	defer span.End()

	session, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		c := cart.FromItems(session.Items)
		item, ok := c.Find(cartItemID)
		if !ok {
			return cart.ErrItemNotFound
		}

		var upd cart.ItemUpdate
		if req.ExtraIDs != nil {
			sel, err := customize.Apply(item.Product, *req.ExtraIDs, "")
			if err != nil {
				return err
			}
			upd.SelectedExtras = &sel.Extras
		}
		if req.Notes != nil {
			sel, err := customize.Apply(item.Product, nil, *req.Notes)
			if err != nil {
				return err
			}
			upd.Notes = &sel.Notes
		}
		if req.ComboBurgers != nil {
			if !item.IsCombo {
				return apperr.Validation("%s is not a combo", item.Name)
			}
			combo, err := customize.Replay(item.Product, s.catalog.Products(), *req.ComboBurgers)
			if err != nil {
				return err
			}
			upd.ComboBurgers = &combo
		}

		if err := c.UpdateItem(cartItemID, upd); err != nil {
			return err
		}
		session.Items = c.Items()
		return nil
	})
	if err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues("update").Inc()
	return cartView(session), nil
}

// RemoveItem deletes a line. Removing an unknown line is not an error.
func (s *OrderingService) RemoveItem(ctx context.Context, sessionID, cartItemID string) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.RemoveItem", attribute.String("session_id", sessionID))
	defer span.End()

	session, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		c := cart.FromItems(session.Items)
		c.Remove(cartItemID)
		session.Items = c.Items()
		return nil
	})
	if err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	return cartView(session), nil
}

// GetCheckout returns the checkout draft of a session
func (s *OrderingService) GetCheckout(ctx context.Context, sessionID string) (*CheckoutView, error) {
	session, err := s.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return checkoutView(session), nil
}

// SetCustomer stores the customer fields and payment method
func (s *OrderingService) SetCustomer(ctx context.Context, sessionID string, req *CustomerRequest) (*CheckoutView, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.SetCustomer", attribute.String("session_id", sessionID))
	defer span.End()

	session, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		d := checkout.FromModel(session.Checkout)
		d.SetCustomer(req.Name, req.Address, req.BetweenStreets)
		if req.PaymentMethod != "" {
			if err := d.SetPaymentMethod(req.PaymentMethod); err != nil {
				return err
			}
		}
		session.Checkout = d.Model()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkoutView(session), nil
}

// NextStep advances the checkout if the current step is complete
func (s *OrderingService) NextStep(ctx context.Context, sessionID string) (*CheckoutView, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.NextStep", attribute.String("session_id", sessionID))
	defer span.End()

	var from int
	session, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		d := checkout.FromModel(session.Checkout)
		from = d.Step
		if err := d.Next(len(session.Items)); err != nil {
			return err
		}
		session.Checkout = d.Model()
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			util.CheckoutBlockedTotal.WithLabelValues(stepLabel(from)).Inc()
		}
		return nil, err
	}
	return checkoutView(session), nil
}

// PrevStep goes back one checkout step
func (s *OrderingService) PrevStep(ctx context.Context, sessionID string) (*CheckoutView, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.PrevStep", attribute.String("session_id", sessionID))
	defer span.End()

	session, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		d := checkout.FromModel(session.Checkout)
		d.Back()
		session.Checkout = d.Model()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkoutView(session), nil
}

// Send hands the order off and resets the cart and checkout draft.
// The session must be at the confirm step.
func (s *OrderingService) Send(ctx context.Context, sessionID string) (*SendResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderingService.Send", attribute.String("session_id", sessionID))
	defer span.End()

	var order dispatch.Order
	_, err := s.sessions.UpdateSession(ctx, sessionID, func(session *models.Session) error {
		d := checkout.FromModel(session.Checkout)
		if d.Step != checkout.StepConfirm {
			return apperr.Validation("checkout is not at the confirm step")
		}
		if len(session.Items) == 0 {
			return apperr.Validation("cart is empty")
		}
		if missing := d.MissingFields(); len(missing) > 0 {
			return apperr.Validation("missing customer fields")
		}
		order = dispatch.Order{SessionID: sessionID, Items: session.Items, Draft: d}

		session.Items = []models.CartItem{}
		session.Checkout = checkout.NewDraft().Model()
		return nil
	})
	if err != nil {
		return nil, err
	}

	link, err := s.dispatcher.Dispatch(ctx, order)
	if err != nil {
		return nil, err
	}
	return &SendResult{Link: link, TotalPrice: cart.Total(order.Items)}, nil
}

func cartView(session *models.Session) *CartView {
	c := cart.FromItems(session.Items)
	view := &CartView{
		SessionID:  session.ID,
		Items:      make([]CartLine, 0, c.Len()),
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
	for _, it := range c.Items() {
		view.Items = append(view.Items, CartLine{
			CartItem:  it,
			UnitPrice: cart.UnitPrice(it),
			LineTotal: cart.LineTotal(it),
		})
	}
	return view
}

func checkoutView(session *models.Session) *CheckoutView {
	d := checkout.FromModel(session.Checkout)
	missing := d.MissingFields()
	if missing == nil {
		missing = []string{}
	}
	return &CheckoutView{
		SessionID:     session.ID,
		Checkout:      d.Model(),
		MissingFields: missing,
		TotalPrice:    cart.Total(session.Items),
	}
}

func stepLabel(step int) string {
	switch step {
	case checkout.StepCart:
		return "cart"
	case checkout.StepCustomer:
		return "customer"
	default:
		return "confirm"
	}
}
