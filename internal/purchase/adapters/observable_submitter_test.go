package adapters

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dejobratic/errorfix/internal/purchase/domain"
	"github.com/dejobratic/errorfix/internal/purchase/metrics"
)

type stubSubmitter struct {
	receipt domain.Receipt
	err     error
}

func (s stubSubmitter) Submit(context.Context, domain.Request, string, string) (domain.Receipt, error) {
	return s.receipt, s.err
}

func setupTracing(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func newMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	m, err := metrics.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m
}

func TestObservableSubmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("marks the span ok on success", func(t *testing.T) {
		recorder := setupTracing(t)
		sub := NewObservableSubmitter(stubSubmitter{receipt: domain.Receipt{Success: true, TransactionID: "txn"}}, logger, newMetrics(t))

		receipt, err := sub.Submit(context.Background(), domain.Request{}, "tok", "key")
		if err != nil || receipt.TransactionID != "txn" {
			t.Fatalf("unexpected result %+v, %v", receipt, err)
		}

		spans := recorder.Ended()
		if len(spans) != 1 || spans[0].Name() != "PurchaseSubmitter.Submit" {
			t.Fatalf("expected one submit span, got %d", len(spans))
		}
		if spans[0].Status().Code != codes.Ok {
			t.Errorf("expected ok status, got %v", spans[0].Status())
		}
	})

	t.Run("records the error on failure", func(t *testing.T) {
		recorder := setupTracing(t)
		rejected := &domain.RejectedError{StatusCode: 402, Message: "Card declined"}
		sub := NewObservableSubmitter(stubSubmitter{err: rejected}, logger, newMetrics(t))

		_, err := sub.Submit(context.Background(), domain.Request{}, "tok", "key")
		if !errors.Is(err, domain.ErrPurchaseRejected) {
			t.Fatalf("expected rejection to pass through, got %v", err)
		}

		spans := recorder.Ended()
		if len(spans) != 1 || spans[0].Status().Code != codes.Error {
			t.Errorf("expected error span, got %+v", spans)
		}
	})
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&domain.RejectedError{StatusCode: 400}, "rejected"},
		{context.DeadlineExceeded, "timeout"},
		{domain.ErrTransport, "transport"},
	}
	for _, tt := range tests {
		if got := outcomeOf(tt.err); got != tt.want {
			t.Errorf("outcomeOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
