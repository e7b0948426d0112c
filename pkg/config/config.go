package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Storage
	StoreDriver    string `mapstructure:"STORE_DRIVER"` // memory, clickhouse, sqlite, postgres
	SQLDSN         string `mapstructure:"SQL_DSN"`
	ClickHouseAddr string `mapstructure:"CLICKHOUSE_ADDR"`
	ClickHouseDB   string `mapstructure:"CLICKHOUSE_DB"`
	ClickHouseUser string `mapstructure:"CLICKHOUSE_USER"`
	ClickHousePass string `mapstructure:"CLICKHOUSE_PASS"`

	// HTTP
	HTTPAddr           string  `mapstructure:"HTTP_ADDR"`
	CORSAllowedOrigins string  `mapstructure:"CORS_ALLOWED_ORIGINS"`
	TrustedProxies     string  `mapstructure:"TRUSTED_PROXIES"` // IPs/CIDRs whose X-Forwarded-For is believed
	RateLimitPerSecond float64 `mapstructure:"RATE_LIMIT_PER_SECOND"`
	RateLimitBurst     int     `mapstructure:"RATE_LIMIT_BURST"`
	RedisAddr          string  `mapstructure:"REDIS_ADDR"` // empty keeps rate limiting in-process
	RedisDB            int     `mapstructure:"REDIS_DB"`

	// MQTT
	MQTTEnabled           bool   `mapstructure:"MQTT_ENABLED"`
	MQTTBroker            string `mapstructure:"MQTT_BROKER"`
	MQTTClientID          string `mapstructure:"MQTT_CLIENT_ID"`
	MQTTUsername          string `mapstructure:"MQTT_USERNAME"`
	MQTTPassword          string `mapstructure:"MQTT_PASSWORD"`
	MQTTTopicReadings     string `mapstructure:"MQTT_TOPIC_READINGS"`
	MQTTTopicQueryRequest string `mapstructure:"MQTT_TOPIC_QUERY_REQ"`
	MQTTTopicQueryResp    string `mapstructure:"MQTT_TOPIC_QUERY_RESP"`

	// Reading events, disabled when AMQP_URL is empty
	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogFile   string `mapstructure:"LOG_FILE"`
}

var defaults = map[string]any{
	"STORE_DRIVER":    "memory",
	"SQL_DSN":         "file:weather.db",
	"CLICKHOUSE_ADDR": "localhost:9000",
	"CLICKHOUSE_DB":   "weather",
	"CLICKHOUSE_USER": "default",
	"CLICKHOUSE_PASS": "",

	"HTTP_ADDR":             ":8080",
	"CORS_ALLOWED_ORIGINS":  "*",
	"TRUSTED_PROXIES":       "",
	"RATE_LIMIT_PER_SECOND": 20.0,
	"RATE_LIMIT_BURST":      40,
	"REDIS_ADDR":            "",
	"REDIS_DB":              0,

	"MQTT_ENABLED":          false,
	"MQTT_BROKER":           "tcp://localhost:1883",
	"MQTT_CLIENT_ID":        "weather-metrics",
	"MQTT_USERNAME":         "",
	"MQTT_PASSWORD":         "",
	"MQTT_TOPIC_READINGS":   "sensors/+/+",
	"MQTT_TOPIC_QUERY_REQ":  "query/+/request",
	"MQTT_TOPIC_QUERY_RESP": "query/{client_id}/response",

	"AMQP_URL":      "",
	"AMQP_EXCHANGE": "sensor.readings",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "console",
	"LOG_FILE":   "",
}

// Load reads configuration from the environment, after loading a .env file
// if one exists. Unset keys fall back to their defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "clickhouse", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimitPerSecond < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	return splitCSV(c.CORSAllowedOrigins)
}

// TrustedProxyList splits TRUSTED_PROXIES on commas; nil trusts no proxy
func (c *Config) TrustedProxyList() []string {
	return splitCSV(c.TrustedProxies)
}

func splitCSV(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
