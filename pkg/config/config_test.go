package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 20.0, cfg.RateLimitPerSecond)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "sensors/+/+", cfg.MQTTTopicReadings)
	assert.Equal(t, "query/{client_id}/response", cfg.MQTTTopicQueryResp)
	assert.Equal(t, "sensor.readings", cfg.AMQPExchange)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Nil(t, cfg.TrustedProxyList())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORE_DRIVER", " SQLite ")
	t.Setenv("SQL_DSN", "file:test.db")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "file:test.db", cfg.SQLDSN)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins())
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxyList())
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}
