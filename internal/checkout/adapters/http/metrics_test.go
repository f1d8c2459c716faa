package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectRoutes(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	routes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "storefront_api_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("expected Sum[int64], got %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("route"))
				code, _ := dp.Attributes.Value(attribute.Key("status_code"))
				routes[route.AsString()+" "+code.Emit()] += dp.Value
			}
		}
	}
	return routes
}

func TestWithMetrics(t *testing.T) {
	t.Run("records status codes and collapses ids in routes", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		handler := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/products/404" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}), metrics)

		for _, path := range []string{"/api/products", "/api/products/1", "/api/products/404", TransactionsPath + "/abc"} {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		}

		routes := collectRoutes(t, reader)
		want := map[string]int64{
			"/api/products 200":                   1,
			"/api/products/{id} 200":              1,
			"/api/products/{id} 404":              1,
			"/api/checkout/transactions/{id} 200": 1,
		}
		for key, count := range want {
			if routes[key] != count {
				t.Errorf("expected %d requests for %q, got %v", count, key, routes)
			}
		}
	})
}

func TestWithMetricsIdempotency(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	handler := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Idempotency-Key") {
		case "done":
			w.Header().Set(replayedHeader, "true")
		case "running":
			w.WriteHeader(http.StatusConflict)
		}
	}), metrics)

	for _, key := range []string{"done", "done", "running", "fresh"} {
		req := httptest.NewRequest(http.MethodPost, PurchasePath, nil)
		req.Header.Set("Idempotency-Key", key)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "storefront_purchase_idempotency_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				outcomes[outcome.AsString()] += dp.Value
			}
		}
	}

	if outcomes[IdempotencyReplayed] != 2 || outcomes[IdempotencyInFlight] != 1 || len(outcomes) != 2 {
		t.Errorf("unexpected idempotency outcomes %v", outcomes)
	}
}
