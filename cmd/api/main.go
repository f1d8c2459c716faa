package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authhttp "github.com/dejobratic/errorfix/internal/auth/adapters/http"
	"github.com/dejobratic/errorfix/internal/auth/token"
	catalogadapters "github.com/dejobratic/errorfix/internal/catalog/adapters"
	cataloghttp "github.com/dejobratic/errorfix/internal/catalog/adapters/http"
	catalogmemory "github.com/dejobratic/errorfix/internal/catalog/adapters/memory"
	catalogpostgres "github.com/dejobratic/errorfix/internal/catalog/adapters/postgres"
	catalogports "github.com/dejobratic/errorfix/internal/catalog/ports"
	checkoutadapters "github.com/dejobratic/errorfix/internal/checkout/adapters"
	checkouthttp "github.com/dejobratic/errorfix/internal/checkout/adapters/http"
	checkoutmemory "github.com/dejobratic/errorfix/internal/checkout/adapters/memory"
	"github.com/dejobratic/errorfix/internal/checkout/adapters/payment"
	checkoutpostgres "github.com/dejobratic/errorfix/internal/checkout/adapters/postgres"
	checkoutapp "github.com/dejobratic/errorfix/internal/checkout/app"
	checkoutmetrics "github.com/dejobratic/errorfix/internal/checkout/metrics"
	checkoutports "github.com/dejobratic/errorfix/internal/checkout/ports"
	"github.com/dejobratic/errorfix/internal/config"
	"github.com/dejobratic/errorfix/internal/database"
	idemmemory "github.com/dejobratic/errorfix/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/errorfix/internal/idempotency/postgres"
	idemredis "github.com/dejobratic/errorfix/internal/idempotency/redis"
	"github.com/dejobratic/errorfix/internal/kafka"
	storageredis "github.com/dejobratic/errorfix/internal/storage/redis"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := telemetry.NewLogger(os.Stdout, level, cfg.Telemetry.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

// backend is the storage side of the API for the configured API_BACKEND.
type backend struct {
	products     catalogports.ProductRepository
	transactions checkoutports.TransactionRepository
	idempotency  checkoutports.IdempotencyStore
	ready        func(ctx context.Context) error
	close        func()
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()
	meter := tel.Meter()

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}
	purchaseMetrics, err := checkoutmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := checkouthttp.NewMetrics(meter)
	if err != nil {
		return err
	}

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	if cfg.Redis.URL != "" {
		client, err := storageredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		store.idempotency = idemredis.NewStore(client, cfg.Checkout.IdempotencyTTL)
		logger.Info("idempotency keys stored in redis", "ttl", cfg.Checkout.IdempotencyTTL)
	}

	var events checkoutports.EventBus = kafka.NewNoopEventBus(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("failed to close kafka publisher", "error", err)
			}
		}()
		events = publisher
		logger.Info("publishing purchase events to kafka", "brokers", cfg.Kafka.Brokers)
	}

	service := checkoutapp.NewService(
		checkoutadapters.NewObservableRepository(store.transactions, dbMetrics),
		checkoutadapters.NewObservableEventBus(events, kafkaMetrics),
		store.idempotency,
		payment.NewMockProcessor(cfg.Checkout.PaymentDelay, cfg.Checkout.DeclinedCards, logger),
		logger,
		purchaseMetrics,
	)

	var verifier token.Verifier = token.NewJWTVerifier(cfg.Auth.Secret)
	if cfg.Auth.Mode == config.AuthModeOpaque {
		verifier = token.OpaqueVerifier{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.ready(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc(cfg.HTTP.MetricsPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("# metrics are exported over OTLP\n"))
	})

	cataloghttp.NewHandler(catalogadapters.NewObservableRepository(store.products, dbMetrics), logger).Register(mux)
	authhttp.NewHandler(token.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL), logger).Register(mux)
	checkouthttp.NewHandler(service, verifier, logger).Register(mux)

	handler := withRecovery(withLogging(checkouthttp.WithMetrics(mux, httpMetrics), logger), logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           telemetry.InstrumentHandler(handler, cfg.Service.Name),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			"port", cfg.HTTP.Port,
			"backend", cfg.Backend,
			"auth_mode", cfg.Auth.Mode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.Backend == config.BackendMemory {
		logger.Info("using in-memory backend; data is lost on restart")
		return &backend{
			products:     catalogmemory.NewRepository(),
			transactions: checkoutmemory.NewRepository(),
			idempotency:  idemmemory.NewStore(idemmemory.WithTTL(cfg.Checkout.IdempotencyTTL)),
			ready:        func(context.Context) error { return nil },
			close:        func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		version, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations completed successfully", "schema_version", version)
	}

	return &backend{
		products:     catalogpostgres.NewRepository(pool),
		transactions: checkoutpostgres.NewRepository(pool),
		idempotency:  idempostgres.NewStore(pool, cfg.Checkout.IdempotencyTTL),
		ready:        func(ctx context.Context) error { return database.CheckHealth(ctx, pool) },
		close:        pool.Close,
	}, nil
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
		)
	})
}

func withRecovery(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
