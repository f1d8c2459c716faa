package http

import (
	"net/http"
	"strings"
	"time"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// WithMetrics records every request passing through next, plus purchases
// answered from an Idempotency-Key.
func WithMetrics(next http.Handler, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		route := routeOf(r.URL.Path)
		metrics.RecordRequest(r.Context(), r.Method, route, rw.statusCode, time.Since(start).Seconds())

		if route != PurchasePath {
			return
		}
		switch {
		case rw.Header().Get(replayedHeader) == "true":
			metrics.RecordIdempotency(r.Context(), IdempotencyReplayed)
		case rw.statusCode == http.StatusConflict:
			metrics.RecordIdempotency(r.Context(), IdempotencyInFlight)
		}
	})
}

// routeOf collapses resource ids so the route label stays bounded.
func routeOf(path string) string {
	for _, prefix := range []string{"/api/products/", TransactionsPath + "/"} {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return prefix + "{id}"
		}
	}
	return path
}
