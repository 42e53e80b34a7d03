package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "data/buses.json", cfg.Storage.DataFile)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, "log", cfg.Notifier.Mode)
	assert.Equal(t, 10*time.Second, cfg.Notifier.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Checkout.SessionTTL)
	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, "0 30 3 * * *", cfg.Reconcile.Schedule)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/seats?sslmode=disable")
	t.Setenv("NOTIFIER_MODE", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CHECKOUT_SESSION_TTL_MINUTES", "30")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("DATABASE_MAX_CONNECTIONS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notifier.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.Checkout.SessionTTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:  StorageConfig{Driver: "file", DataFile: "data/buses.json"},
			JWT:      JWTConfig{Secret: "secret"},
			Notifier: NotifierConfig{Mode: "log"},
			Checkout: CheckoutConfig{SessionTTL: time.Minute},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, "invalid storage driver"},
		{"postgres without url", func(c *Config) { c.Storage.Driver = "postgres" }, "DATABASE_URL"},
		{"file without path", func(c *Config) { c.Storage.DataFile = "" }, "DATA_FILE"},
		{"unknown notifier", func(c *Config) { c.Notifier.Mode = "pigeon" }, "invalid notifier mode"},
		{"smtp without host", func(c *Config) { c.Notifier.Mode = "smtp" }, "SMTP_HOST"},
		{"amqp without url", func(c *Config) { c.Notifier.Mode = "amqp" }, "AMQP_URL"},
		{"kafka without topic", func(c *Config) { c.Notifier.Mode = "kafka"; c.Notifier.KafkaBrokers = []string{"k:9092"} }, "KAFKA_TOPIC"},
		{"new relic without key", func(c *Config) { c.NewRelic.Enabled = true }, "NEW_RELIC_LICENSE_KEY"},
		{"zero session ttl", func(c *Config) { c.Checkout.SessionTTL = 0 }, "CHECKOUT_SESSION_TTL_MINUTES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadStorage_IgnoresServerSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("NOTIFIER_MODE", "pigeon")

	cfg, err := LoadStorage()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Driver)
}
