package models

import "time"

// Event types
const (
	EventTypeOrderDispatched = "ORDER_DISPATCHED"
	EventTypeCatalogReplaced = "CATALOG_REPLACED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	// Source identifies the publishing instance so it can skip its own events
	Source string `json:"source,omitempty"`
}

// OrderDispatchedEvent published when an order is handed off to the chat channel
type OrderDispatchedEvent struct {
	BaseEvent
	SessionID     string          `json:"session_id"`
	CustomerName  string          `json:"customer_name"`
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   int64           `json:"total_amount"`
	Items         []OrderItemData `json:"items"`
}

// CatalogReplacedEvent published after a bulk catalog replace
type CatalogReplacedEvent struct {
	BaseEvent
	ProductCount int `json:"product_count"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}
