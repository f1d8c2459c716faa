package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		ServiceName:    "errorfix-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "sample rate zero", mutate: func(c *Config) { c.SampleRate = 0 }},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: ErrMissingServiceName},
		{name: "missing service version", mutate: func(c *Config) { c.ServiceVersion = "" }, wantErr: ErrMissingServiceVersion},
		{name: "negative sample rate", mutate: func(c *Config) { c.SampleRate = -0.1 }, wantErr: ErrInvalidSampleRate},
		{name: "sample rate above one", mutate: func(c *Config) { c.SampleRate = 1.5 }, wantErr: ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected %v wrapped in ErrInvalidConfig, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.ServiceName = ""
		if _, err := Initialize(context.Background(), cfg); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("runs without a collector endpoint", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableTracing = true
		cfg.EnableMetrics = true

		tel, err := Initialize(context.Background(), cfg)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tel.tracerProvider == nil || tel.meterProvider == nil {
			t.Error("expected both providers to be installed")
		}

		counter, err := tel.Meter().Int64Counter("test_total")
		if err != nil {
			t.Fatalf("create counter: %v", err)
		}
		counter.Add(context.Background(), 1)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	})

	t.Run("installs nothing when both signals are disabled", func(t *testing.T) {
		tel, err := Initialize(context.Background(), testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tel.tracerProvider != nil || tel.meterProvider != nil {
			t.Error("expected no providers")
		}
		if err := tel.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	})
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: -1, want: "AlwaysOffSampler"},
		{rate: 0, want: "AlwaysOffSampler"},
		{rate: 1, want: "AlwaysOnSampler"},
		{rate: 2, want: "AlwaysOnSampler"},
	}

	for _, tt := range tests {
		if got := createSampler(tt.rate).Description(); got != tt.want {
			t.Errorf("rate %v: expected %s, got %s", tt.rate, tt.want, got)
		}
	}

	if got := createSampler(0.25).Description(); got == "AlwaysOnSampler" || got == "AlwaysOffSampler" {
		t.Errorf("expected ratio sampler for 0.25, got %s", got)
	}
}
