package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selects where the API keeps catalog and checkout data.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Config captures runtime configuration for the API service.
type Config struct {
	Backend   Backend
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Checkout  CheckoutConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type KafkaConfig struct {
	Brokers []string
}

// RedisConfig enables the Redis idempotency store when URL is set.
type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	Secret   string
	Mode     string
	TokenTTL time.Duration
}

type CheckoutConfig struct {
	PaymentDelay   time.Duration
	DeclinedCards  []string
	IdempotencyTTL time.Duration
}

type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	AuthModeJWT    = "jwt"
	AuthModeOpaque = "opaque"
)

const (
	defaultHTTPPort       = 8080
	defaultMetricsPath    = "/metrics"
	defaultShutdownGrace  = 15
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultAuthSecret     = "errorfix-dev-secret"
	defaultTokenTTL       = time.Hour
	defaultPaymentDelay   = 1500 * time.Millisecond
	defaultDeclinedCard   = "4000000000000002"
	defaultIdemTTL        = 24 * time.Hour
	defaultServiceName    = "errorfix-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultOTelSampleRate = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	backend := Backend(getEnvOrDefault("API_BACKEND", string(BackendPostgres)))
	if backend != BackendPostgres && backend != BackendMemory {
		return nil, fmt.Errorf("invalid API_BACKEND %q: want postgres or memory", backend)
	}

	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	authCfg, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}

	checkoutCfg, err := loadCheckoutConfig()
	if err != nil {
		return nil, fmt.Errorf("loading checkout config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		Backend:   backend,
		HTTP:      httpCfg,
		Database:  loadDatabaseConfig(),
		Kafka:     KafkaConfig{Brokers: getListEnv("KAFKA_BROKERS", nil)},
		Redis:     RedisConfig{URL: os.Getenv("REDIS_URL")},
		Auth:      authCfg,
		Checkout:  checkoutCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		MetricsPath:   getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadAuthConfig() (AuthConfig, error) {
	mode := getEnvOrDefault("AUTH_MODE", AuthModeJWT)
	if mode != AuthModeJWT && mode != AuthModeOpaque {
		return AuthConfig{}, fmt.Errorf("invalid AUTH_MODE %q: want jwt or opaque", mode)
	}

	ttlSeconds, err := getIntEnv("AUTH_TOKEN_TTL", int(defaultTokenTTL.Seconds()))
	if err != nil {
		return AuthConfig{}, err
	}
	if ttlSeconds <= 0 {
		return AuthConfig{}, fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %d", ttlSeconds)
	}

	return AuthConfig{
		Secret:   getEnvOrDefault("AUTH_SECRET", defaultAuthSecret),
		Mode:     mode,
		TokenTTL: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func loadCheckoutConfig() (CheckoutConfig, error) {
	delay, err := getDurationEnv("CHECKOUT_PAYMENT_DELAY", defaultPaymentDelay)
	if err != nil {
		return CheckoutConfig{}, err
	}
	idemTTL, err := getDurationEnv("IDEMPOTENCY_TTL", defaultIdemTTL)
	if err != nil {
		return CheckoutConfig{}, err
	}
	return CheckoutConfig{
		PaymentDelay:   delay,
		DeclinedCards:  getListEnv("CHECKOUT_DECLINED_CARDS", []string{defaultDeclinedCard}),
		IdempotencyTTL: idemTTL,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", defaultLogFormat),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "errorfix")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")
	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s",
		user, password, host, port, dbName, sslMode, maxConns,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getListEnv(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
