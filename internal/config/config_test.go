package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults from env only", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/rentals")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 600*time.Millisecond, cfg.Mail.SendInterval())
		assert.Equal(t, 1, cfg.Mail.Burst)
		assert.Equal(t, 17, cfg.Business.RefundCutoffHour)
		assert.Equal(t, "5", cfg.Business.HotelPickupFee)
		assert.Equal(t, "https://ccapi-stg.paymentez.com", cfg.Paymentez.BaseURL)
		assert.False(t, cfg.Kafka.Enabled())
		assert.False(t, cfg.Twilio.Enabled())
	})

	t.Run("Env overrides yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		yml := `
server:
  port: 9000
database:
  url: postgres://yaml/rentals
jwt:
  secret: from-yaml
mail:
  send_interval_ms: 1000
kafka:
  brokers: [localhost:9092]
  topic: orders
`
		require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
		t.Setenv("DATABASE_URL", "postgres://env/rentals")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "postgres://env/rentals", cfg.Database.URL)
		assert.Equal(t, "from-yaml", cfg.JWT.Secret)
		assert.Equal(t, time.Second, cfg.Mail.SendInterval())
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
		assert.True(t, cfg.Kafka.Enabled())
	})

	t.Run("Missing database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "secret")
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{URL: "postgres://x"},
		JWT:      JWTConfig{Secret: "s"},
		Business: BusinessConfig{RefundCutoffHour: 25},
	}
	assert.Error(t, cfg.Validate())
	assert.Empty(t, cfg.Paymentez.BaseURL)
	assert.Zero(t, cfg.Server.Port)
	assert.Empty(t, cfg.Server.AllowedOrigins)

	cfg.Business.RefundCutoffHour = 0
	cfg.Paymentez.Environment = "prod"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://ccapi.paymentez.com", cfg.Paymentez.BaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 17, cfg.Business.RefundCutoffHour)
	assert.NotNil(t, cfg.Business.Location())
}

func TestValidateRejectsBeforeDefaults(t *testing.T) {
	for name, cfg := range map[string]Config{
		"Bad port":      {Server: ServerConfig{Port: 70000}, Database: DatabaseConfig{URL: "postgres://x"}, JWT: JWTConfig{Secret: "s"}},
		"No secret":     {Database: DatabaseConfig{URL: "postgres://x"}},
		"Negative mail": {Database: DatabaseConfig{URL: "postgres://x"}, JWT: JWTConfig{Secret: "s"}, Mail: MailConfig{SendIntervalMs: -1}},
	} {
		t.Run(name, func(t *testing.T) {
			require.Error(t, cfg.Validate())
			assert.Empty(t, cfg.Paymentez.BaseURL)
			assert.Empty(t, cfg.Log.Level)
			assert.Zero(t, cfg.JWT.ExpiryMinutes)
		})
	}
}
