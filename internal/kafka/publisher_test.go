package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
)

type fakeWriter struct {
	messages []kafkago.Message
	writeErr error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleTransaction(status domain.Status) domain.Transaction {
	return domain.Transaction{
		ID:          "txn-1",
		Customer:    "ada@errorfix.io",
		AmountCents: 6037,
		ItemCount:   2,
		Status:      status,
		UpdatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("writes completed events keyed by transaction id", func(t *testing.T) {
		writer := &fakeWriter{}
		p := newPublisher(writer)

		require.NoError(t, p.PublishPurchaseCompleted(ctx, sampleTransaction(domain.StatusCompleted)))

		require.Len(t, writer.messages, 1)
		msg := writer.messages[0]
		assert.Equal(t, TopicPurchaseCompleted, msg.Topic)
		assert.Equal(t, "txn-1", string(msg.Key))

		var event PurchaseEvent
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		assert.Equal(t, "60.37", event.Amount)
		assert.Equal(t, "completed", event.Status)
		assert.Empty(t, event.Reason)
	})

	t.Run("writes failure reason on failed events", func(t *testing.T) {
		writer := &fakeWriter{}
		p := newPublisher(writer)

		require.NoError(t, p.PublishPurchaseFailed(ctx, sampleTransaction(domain.StatusFailed), "Card declined"))

		require.Len(t, writer.messages, 1)
		assert.Equal(t, TopicPurchaseFailed, writer.messages[0].Topic)

		var event PurchaseEvent
		require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
		assert.Equal(t, "Card declined", event.Reason)
	})

	t.Run("wraps writer errors", func(t *testing.T) {
		brokerErr := errors.New("broker unavailable")
		p := newPublisher(&fakeWriter{writeErr: brokerErr})

		err := p.PublishPurchaseCompleted(ctx, sampleTransaction(domain.StatusCompleted))
		assert.ErrorIs(t, err, brokerErr)
	})

	t.Run("closes the writer", func(t *testing.T) {
		writer := &fakeWriter{}
		require.NoError(t, newPublisher(writer).Close())
		assert.True(t, writer.closed)
	})
}
