package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/segmentio/kafka-go"
)

const (
	TypeCartUpdated = "cart.updated"
	TypeOrderPlaced = "order.placed"
)

// Envelope is the wire form of every storefront event.
type Envelope struct {
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher broadcasts cart and order changes to Kafka so other surfaces
// (admin dashboard, projections) can refresh without polling.
type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

func (p *Publisher) publish(eventType string, key string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal event payload", slog.String("type", eventType),
			slog.String("error", err.Error()))

		return
	}

	envelope, err := json.Marshal(Envelope{Type: eventType, At: time.Now(), Payload: body})
	if err != nil {
		slog.Error("Failed to marshal event envelope", slog.String("type", eventType),
			slog.String("error", err.Error()))

		return
	}

	// Async writer: errors surface in the writer's completion callback,
	// not here.
	if err := p.w.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(key),
		Value: envelope,
		Time:  time.Now(),
	}); err != nil {
		slog.Warn("Failed to publish event", slog.String("type", eventType),
			slog.String("error", err.Error()))
	}
}

// CartObserver adapts the publisher to the cart's mutation hook.
func (p *Publisher) CartObserver() func(models.CartSummary) {
	return func(summary models.CartSummary) {
		p.publish(TypeCartUpdated, TypeCartUpdated, summary)
	}
}

// OrderPlaced lets the publisher act as a checkout sink.
func (p *Publisher) OrderPlaced(_ context.Context, order *models.Order) error {
	p.publish(TypeOrderPlaced, order.OrderID, order)

	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
