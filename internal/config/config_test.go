package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, 168*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 20*time.Second, cfg.Pesapal.Timeout)
	assert.Equal(t, 200, cfg.Diagnostics.Capacity)
	assert.Equal(t, "@every 5m", cfg.Payments.ReconcileSchedule)
	assert.Equal(t, 60*time.Second, cfg.Payments.WebhookProcessTimeout)
	assert.Equal(t, "booking-notifications", cfg.Kafka.NotificationTopic)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":7000"
jwt:
  ttl: 2h
kafka:
  brokers: ["k1:9092"]
pesapal:
  env: production
  timeout: 25s
`), 0o600))

	t.Setenv("APP_ENV", "dev")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Pesapal.Live())
	assert.Equal(t, 25*time.Second, cfg.Pesapal.Timeout)
}

func TestLoad_ProdRejectsDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("PESAPAL_CONSUMER_KEY", "")
	_, err = Load()
	assert.ErrorContains(t, err, "PESAPAL_CONSUMER_KEY")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PESAPAL_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "PESAPAL_TIMEOUT")
}
