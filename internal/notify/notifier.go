// Package notify delivers status-change messages to users. Delivery is
// best-effort: callers log and swallow errors, they never roll back the
// state transition that triggered the message.
package notify

import (
	"context"
	"fmt"
	"time"

	"grocery-service/internal/broker"
	"grocery-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a message to a user
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, text string) error
}

// KafkaNotifier publishes notification messages to a topic consumed by the
// downstream chat gateway.
type KafkaNotifier struct {
	producer *broker.Producer
}

// NewKafkaNotifier creates a Kafka-backed notifier
func NewKafkaNotifier(producer *broker.Producer) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (n *KafkaNotifier) Notify(ctx context.Context, recipientID int64, text string) error {
	msg := &models.NotificationMessage{
		MessageID:   uuid.New().String(),
		RecipientID: recipientID,
		Text:        text,
		SentAt:      time.Now(),
	}
	return n.producer.Publish(ctx, fmt.Sprintf("user-%d", recipientID), msg)
}

// LogNotifier writes messages to the log; used in development when no
// gateway is running.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipientID int64, text string) error {
	n.logger.Info("notification",
		zap.Int64("recipient_id", recipientID),
		zap.String("text", text))
	return nil
}
