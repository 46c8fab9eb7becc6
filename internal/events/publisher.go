package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"cafeorders/internal/domain"
)

// Publisher announces placed orders to downstream consumers (kitchen display).
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o domain.Order) error
	Close() error
}

// OrderPlaced is the message body. Unlike the stored document it carries the id.
type OrderPlaced struct {
	Type          string             `json:"type"`
	OrderID       string             `json:"orderId"`
	Status        domain.OrderStatus `json:"status"`
	Items         []domain.CartItem  `json:"items"`
	Total         string             `json:"total"`
	TotalQuantity int                `json:"totalQuantity"`
	Timestamp     string             `json:"timestamp"`
}

func newOrderPlaced(o domain.Order) OrderPlaced {
	return OrderPlaced{
		Type:          "order.placed",
		OrderID:       o.ID,
		Status:        o.Status,
		Items:         o.Items,
		Total:         o.Total,
		TotalQuantity: o.TotalQuantity,
		Timestamp:     o.Timestamp,
	}
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, domain.Order) error { return nil }
func (Nop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: NewKafkaWriter(brokers, topic)}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, o domain.Order) error {
	body, err := json.Marshal(newOrderPlaced(o))
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-placed-%s", o.ID)),
		Value: body,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order %s: %w", o.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// New picks the Kafka publisher when brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(brokers, topic)
}
