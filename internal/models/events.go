package models

import "time"

// Event types for order lifecycle events
const (
	EventTypeOrderCreated    = "order.created"
	EventTypeOrderAccepted   = "order.accepted"
	EventTypeOrderDispatched = "order.dispatched"
	EventTypeOrderDelivered  = "order.delivered"
	EventTypeOrderCancelled  = "order.cancelled"
)

// BaseEvent contains common event fields
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderLineData is an order line carried inside events
type OrderLineData struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// OrderCreatedEvent is published when checkout creates an order
type OrderCreatedEvent struct {
	BaseEvent
	OrderID      int64           `json:"order_id"`
	UserID       int64           `json:"user_id"`
	DeliverySlot string          `json:"delivery_slot"`
	Lines        []OrderLineData `json:"lines"`
}

// OrderStatusEvent is published on every operator-driven transition
type OrderStatusEvent struct {
	BaseEvent
	OrderID      int64       `json:"order_id"`
	UserID       int64       `json:"user_id"`
	Status       OrderStatus `json:"status"`
	CancelReason string      `json:"cancel_reason,omitempty"`
}

// NotificationMessage is a best-effort status message for a user,
// delivered by the downstream chat gateway
type NotificationMessage struct {
	MessageID   string    `json:"message_id"`
	RecipientID int64     `json:"recipient_id"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
}
