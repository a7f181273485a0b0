package worker

import (
	"context"
	"encoding/json"

	"grocery-service/internal/broker"
	"grocery-service/internal/models"
	"grocery-service/internal/redisclient"
	"grocery-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StatusCacheWorker consumes order lifecycle events and keeps the Redis
// order-status cache current for the status fast path.
type StatusCacheWorker struct {
	consumer *broker.Consumer
	cache    *redisclient.Client
	logger   *zap.Logger
}

// NewStatusCacheWorker creates a new status cache worker
func NewStatusCacheWorker(consumer *broker.Consumer, cache *redisclient.Client) *StatusCacheWorker {
	return &StatusCacheWorker{
		consumer: consumer,
		cache:    cache,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker
func (w *StatusCacheWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting status cache worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *StatusCacheWorker) Stop() error {
	w.logger.Info("Stopping status cache worker")
	return w.consumer.Close()
}

func (w *StatusCacheWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		w.logger.Error("Failed to unmarshal event", zap.Error(err))
		// malformed message, commit and move on
		return nil
	}

	var orderID int64
	var status models.OrderStatus

	switch base.EventType {
	case models.EventTypeOrderCreated:
		var event models.OrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return nil
		}
		orderID = event.OrderID
		status = models.StatusPending

	case models.EventTypeOrderAccepted, models.EventTypeOrderDispatched,
		models.EventTypeOrderDelivered, models.EventTypeOrderCancelled:
		var event models.OrderStatusEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return nil
		}
		orderID = event.OrderID
		status = event.Status

	default:
		w.logger.Debug("Unhandled event type", zap.String("type", base.EventType))
		return nil
	}

	if err := w.cache.SetOrderStatus(ctx, orderID, string(status)); err != nil {
		w.logger.Error("Failed to cache order status",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return err
	}
	return nil
}
