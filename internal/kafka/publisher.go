package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
)

const (
	TopicPurchaseCompleted = "purchase.completed"
	TopicPurchaseFailed    = "purchase.failed"
)

// PurchaseEvent is the JSON payload written to the purchase topics.
type PurchaseEvent struct {
	TransactionID string    `json:"transactionId"`
	Customer      string    `json:"customer"`
	Amount        string    `json:"amount"`
	ItemCount     int       `json:"itemCount"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes purchase lifecycle events to Kafka, keyed by
// transaction id.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string) *Publisher {
	return newPublisher(&kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: true,
	})
}

func newPublisher(writer messageWriter) *Publisher {
	return &Publisher{writer: writer}
}

func (p *Publisher) PublishPurchaseCompleted(ctx context.Context, txn domain.Transaction) error {
	return p.publish(ctx, TopicPurchaseCompleted, txn, "")
}

func (p *Publisher) PublishPurchaseFailed(ctx context.Context, txn domain.Transaction, reason string) error {
	return p.publish(ctx, TopicPurchaseFailed, txn, reason)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, topic string, txn domain.Transaction, reason string) error {
	payload, err := json.Marshal(PurchaseEvent{
		TransactionID: txn.ID,
		Customer:      txn.Customer,
		Amount:        txn.Amount().StringFixed(2),
		ItemCount:     txn.ItemCount,
		Status:        string(txn.Status),
		Reason:        reason,
		OccurredAt:    txn.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(txn.ID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(topic)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", topic, err)
	}
	return nil
}
