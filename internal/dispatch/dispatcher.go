package dispatch

import (
	"context"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher announces dispatched orders
type Publisher interface {
	PublishOrderDispatched(ctx context.Context, event *models.OrderDispatchedEvent) error
}

// Order is a cart ready to be handed off with its checkout draft
type Order struct {
	SessionID string
	Items     []models.CartItem
	Draft     *checkout.Draft
}

// Dispatcher builds the deep link for an order and announces it
type Dispatcher struct {
	settings  Settings
	publisher Publisher
	logger    *zap.Logger
}

// NewDispatcher creates a new dispatcher. publisher may be nil.
func NewDispatcher(settings Settings, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		settings:  settings,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Settings returns the shop settings
func (d *Dispatcher) Settings() Settings { return d.settings }

// Dispatch returns the chat link for the order. Publishing the event is
// best-effort: failures are logged and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, order Order) (string, error) {
	ctx, span := util.StartSpan(ctx, "Dispatcher.Dispatch")
	defer span.End()

	if len(order.Items) == 0 {
		return "", apperr.Validation("cannot dispatch an empty cart")
	}
	if order.Draft == nil {
		return "", apperr.Validation("checkout draft is missing")
	}

	msg := FormatMessage(d.settings, order.Items, order.Draft)
	link := Link(d.settings.ChatBaseURL, d.settings.WhatsAppNumber, msg)
	total := cart.Total(order.Items)

	util.OrdersDispatchedTotal.WithLabelValues(order.Draft.PaymentMethod).Inc()
	util.OrderValue.Observe(float64(total))
	d.logger.Info("Order dispatched",
		zap.String("session_id", order.SessionID),
		zap.Int("lines", len(order.Items)),
		zap.Int64("total", total))

	if d.publisher != nil {
		items := make([]models.OrderItemData, 0, len(order.Items))
		for _, it := range order.Items {
			items = append(items, models.OrderItemData{
				ProductID: it.ID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: cart.UnitPrice(it),
			})
		}
		event := &models.OrderDispatchedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderDispatched,
				Timestamp: time.Now(),
			},
			SessionID:     order.SessionID,
			CustomerName:  order.Draft.CustomerName,
			PaymentMethod: order.Draft.PaymentMethod,
			TotalAmount:   total,
			Items:         items,
		}
		if err := d.publisher.PublishOrderDispatched(ctx, event); err != nil {
			d.logger.Warn("Failed to publish OrderDispatched event",
				zap.String("session_id", order.SessionID),
				zap.Error(err))
		}
	}

	return link, nil
}
