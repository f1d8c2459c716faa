package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"

	authhttp "github.com/dejobratic/errorfix/internal/auth/adapters/http"
	"github.com/dejobratic/errorfix/internal/auth/adapters/local"
	authapp "github.com/dejobratic/errorfix/internal/auth/app"
	authports "github.com/dejobratic/errorfix/internal/auth/ports"
	cartapp "github.com/dejobratic/errorfix/internal/cart/app"
	cataloghttp "github.com/dejobratic/errorfix/internal/catalog/adapters/http"
	"github.com/dejobratic/errorfix/internal/clientconfig"
	"github.com/dejobratic/errorfix/internal/database"
	purchaseadapters "github.com/dejobratic/errorfix/internal/purchase/adapters"
	purchasehttp "github.com/dejobratic/errorfix/internal/purchase/adapters/http"
	purchaseapp "github.com/dejobratic/errorfix/internal/purchase/app"
	purchasemetrics "github.com/dejobratic/errorfix/internal/purchase/metrics"
	"github.com/dejobratic/errorfix/internal/storage"
	"github.com/dejobratic/errorfix/internal/storage/memory"
	storagepostgres "github.com/dejobratic/errorfix/internal/storage/postgres"
	storageredis "github.com/dejobratic/errorfix/internal/storage/redis"
	"github.com/dejobratic/errorfix/internal/storage/sqlite"
	"github.com/dejobratic/errorfix/internal/storefront"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

const meterName = "github.com/dejobratic/errorfix/storefront"

// Session is one restored storefront client plus the resources it holds.
type Session struct {
	Client  *storefront.Client
	closers []func() error
}

func (s *Session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Opener builds a restored Session from cfg.
type Opener func(ctx context.Context, cfg *clientconfig.Config, logger *slog.Logger) (*Session, error)

// OpenSession wires the storefront client to the API at cfg.API.URL and to
// the snapshot store named by cfg.Storage.Driver, then restores the
// persisted cart and session.
func OpenSession(ctx context.Context, cfg *clientconfig.Config, logger *slog.Logger) (*Session, error) {
	session := &Session{}

	store, err := openStorage(ctx, cfg.Storage, session)
	if err != nil {
		return nil, errors.Join(err, session.Close())
	}

	apiClient := telemetry.NewHTTPClient(cfg.API.Timeout)

	var authenticator authports.Authenticator
	switch cfg.Auth.Mode {
	case clientconfig.AuthLocal:
		authenticator = local.NewAuthenticator()
	default:
		authenticator = authhttp.NewClient(cfg.API.URL, apiClient)
	}

	metrics, err := purchasemetrics.NewMetrics(otel.GetMeterProvider().Meter(meterName))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create purchase metrics: %w", err), session.Close())
	}

	// The workflow bounds each attempt with cfg.Purchase.Timeout.
	submitter := purchaseadapters.NewObservableSubmitter(
		purchasehttp.NewClient(cfg.API.URL, telemetry.NewHTTPClient(0)),
		logger,
		metrics,
	)

	catalog := cataloghttp.NewClient(cfg.API.URL, apiClient, cataloghttp.DefaultBreakerSettings(), logger)
	cart := cartapp.NewStore(store, logger)
	auth := authapp.NewStore(authenticator, store, logger)
	workflow := purchaseapp.NewWorkflow(submitter, auth, logger, purchaseapp.WithTimeout(cfg.Purchase.Timeout))

	session.Client = storefront.New(catalog, cart, auth, workflow, logger)
	if err := session.Client.Restore(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("restore state: %w", err), session.Close())
	}

	logger.DebugContext(ctx, "storefront session opened",
		"api_url", cfg.API.URL,
		"storage_driver", cfg.Storage.Driver,
		"auth_mode", cfg.Auth.Mode,
	)
	return session, nil
}

func openStorage(ctx context.Context, cfg clientconfig.StorageConfig, session *Session) (storage.Store, error) {
	switch cfg.Driver {
	case clientconfig.DriverMemory:
		return memory.NewStore(), nil

	case clientconfig.DriverRedis:
		client, err := storageredis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		session.closers = append(session.closers, client.Close)
		return storageredis.NewStore(client, cfg.Owner, 0), nil

	case clientconfig.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		session.closers = append(session.closers, func() error {
			pool.Close()
			return nil
		})
		return storagepostgres.NewStore(pool, cfg.Owner), nil

	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("create storage directory: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		session.closers = append(session.closers, store.Close)
		return store, nil
	}
}
