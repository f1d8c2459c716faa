package clientconfig_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/errorfix/internal/clientconfig"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("uses defaults when the default file is absent", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		cfg, err := clientconfig.Load("")
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:8080", cfg.API.URL)
		assert.Equal(t, 15*time.Second, cfg.Purchase.Timeout)
		assert.Equal(t, clientconfig.DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, clientconfig.AuthRemote, cfg.Auth.Mode)
		assert.Empty(t, cfg.Telemetry.Endpoint)
	})

	t.Run("reads the named file over defaults", func(t *testing.T) {
		path := writeFile(t, `
api:
  url: https://shop.errorfix.io
  timeout: 3s
purchase:
  timeout: 30s
storage:
  driver: redis
  redis_url: redis://localhost:6379/1
telemetry:
  endpoint: otel-collector:4317
  sample_rate: 0.5
`)

		cfg, err := clientconfig.Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://shop.errorfix.io", cfg.API.URL)
		assert.Equal(t, 3*time.Second, cfg.API.Timeout)
		assert.Equal(t, 30*time.Second, cfg.Purchase.Timeout)
		assert.Equal(t, clientconfig.DriverRedis, cfg.Storage.Driver)
		assert.Equal(t, "redis://localhost:6379/1", cfg.Storage.RedisURL)
		assert.Equal(t, "default", cfg.Storage.Owner)
		assert.Equal(t, "otel-collector:4317", cfg.Telemetry.Endpoint)
		assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := writeFile(t, "storage:\n  driver: sqlite\n")
		t.Setenv("ERRORFIX_STORAGE_DRIVER", "postgres")
		t.Setenv("ERRORFIX_STORAGE_DATABASE_URL", "postgres://localhost/errorfix")
		t.Setenv("ERRORFIX_AUTH_MODE", "local")
		t.Setenv("ERRORFIX_PURCHASE_TIMEOUT", "5s")

		cfg, err := clientconfig.Load(path)
		require.NoError(t, err)

		assert.Equal(t, clientconfig.DriverPostgres, cfg.Storage.Driver)
		assert.Equal(t, "postgres://localhost/errorfix", cfg.Storage.DatabaseURL)
		assert.Equal(t, clientconfig.AuthLocal, cfg.Auth.Mode)
		assert.Equal(t, 5*time.Second, cfg.Purchase.Timeout)
	})

	t.Run("fails when a named file is missing", func(t *testing.T) {
		_, err := clientconfig.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("rejects unknown drivers and modes", func(t *testing.T) {
		_, err := clientconfig.Load(writeFile(t, "storage:\n  driver: dynamo\n"))
		assert.ErrorContains(t, err, "storage.driver")

		_, err = clientconfig.Load(writeFile(t, "auth:\n  mode: oauth\n"))
		assert.ErrorContains(t, err, "auth.mode")
	})
}
