package broker

import (
	"context"
	"fmt"
	"time"

	"grocery-service/internal/models"

	"github.com/google/uuid"
)

// EventPublisher publishes order lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCreated publishes an order.created event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	eventLines := make([]models.OrderLineData, 0, len(lines))
	for _, l := range lines {
		eventLines = append(eventLines, models.OrderLineData{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:    newBaseEvent(models.EventTypeOrderCreated),
		OrderID:      order.ID,
		UserID:       order.UserID,
		DeliverySlot: order.DeliverySlot,
		Lines:        eventLines,
	}
	return ep.producer.Publish(ctx, orderKey(order.ID), event)
}

// PublishOrderStatus publishes a status-transition event for an order
func (ep *EventPublisher) PublishOrderStatus(ctx context.Context, eventType string, order *models.Order) error {
	event := &models.OrderStatusEvent{
		BaseEvent:    newBaseEvent(eventType),
		OrderID:      order.ID,
		UserID:       order.UserID,
		Status:       order.Status,
		CancelReason: order.CancelReason,
	}
	return ep.producer.Publish(ctx, orderKey(order.ID), event)
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}
