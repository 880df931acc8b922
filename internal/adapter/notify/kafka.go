package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes JSON envelopes keyed by the aggregate id.
type KafkaNotifier struct {
	w      messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewKafkaNotifier creates a synchronous writer for topic.
func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaNotifier{w: w, logger: logger, now: time.Now}
}

func (n *KafkaNotifier) OrderPlaced(ctx context.Context, event OrderPlaced) error {
	return n.publish(ctx, TypeOrderPlaced, event.OrderID.String(), event)
}

func (n *KafkaNotifier) PasswordResetRequested(ctx context.Context, event PasswordResetRequested) error {
	return n.publish(ctx, TypePasswordResetRequested, event.ProfileID.String(), event)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType, key string, data any) error {
	now := n.now().UTC()
	value, err := json.Marshal(envelope{Type: eventType, OccurredAt: now, Data: data})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    now,
		Headers: []kafka.Header{{Key: "type", Value: []byte(eventType)}},
	}
	if err := n.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	n.logger.Debug("event published", slog.String("type", eventType), slog.String("key", key))
	return nil
}

// Close flushes pending messages.
func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}
