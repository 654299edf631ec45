package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is satisfied by *Producer
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer EventWriter) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderDispatched publishes OrderDispatched event
func (ep *EventPublisher) PublishOrderDispatched(ctx context.Context, event *models.OrderDispatchedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCatalogReplaced publishes CatalogReplaced event
func (ep *EventPublisher) PublishCatalogReplaced(ctx context.Context, event *models.CatalogReplacedEvent) error {
	return ep.producer.PublishEvent(ctx, "catalog", event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onCatalogReplaced func(context.Context, *models.CatalogReplacedEvent) error
	onOrderDispatched func(context.Context, *models.OrderDispatchedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnCatalogReplaced registers a handler for CatalogReplaced events
func (eh *EventHandler) OnCatalogReplaced(handler func(context.Context, *models.CatalogReplacedEvent) error) {
	eh.onCatalogReplaced = handler
}

// OnOrderDispatched registers a handler for OrderDispatched events
func (eh *EventHandler) OnOrderDispatched(handler func(context.Context, *models.OrderDispatchedEvent) error) {
	eh.onOrderDispatched = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypeCatalogReplaced:
		if eh.onCatalogReplaced != nil {
			var event models.CatalogReplacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogReplaced event: %w", err)
			}
			return eh.onCatalogReplaced(ctx, &event)
		}

	case models.EventTypeOrderDispatched:
		if eh.onOrderDispatched != nil {
			var event models.OrderDispatchedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderDispatched event: %w", err)
			}
			return eh.onOrderDispatched(ctx, &event)
		}

	default:
		util.GetLogger().Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
