// Package config provides configuration loading and validation utilities.
package config

import (
	"time"
)

// Config holds runtime configuration for the shop bot.
type Config struct {
	AppEnv      string            `mapstructure:"app_env"`
	Logger      LoggerConfig      `mapstructure:"logger" validate:"required"`
	Bot         BotConfig         `mapstructure:"bot" validate:"required"`
	Catalog     CatalogConfig     `mapstructure:"catalog" validate:"required"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Storage     StorageConfig     `mapstructure:"storage"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Server      ServerConfig      `mapstructure:"server"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
}

// LoggerConfig controls the slog handler chain.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token             string        `mapstructure:"token" validate:"required"`
	Mode              string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout           time.Duration `mapstructure:"timeout"`
	WebhookListen     string        `mapstructure:"webhook_listen"`
	WebhookURL        string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	Language          string        `mapstructure:"language" validate:"oneof=en ru"`
	NotifyUserOnError bool          `mapstructure:"notify_user_on_error"`
	SerializePerUser  bool          `mapstructure:"serialize_per_user"`
}

// CatalogConfig configures the remote catalog/cart service client.
type CatalogConfig struct {
	BaseURL          string        `mapstructure:"base_url" validate:"required,url"`
	ClientID         string        `mapstructure:"client_id" validate:"required"`
	ClientSecret     string        `mapstructure:"client_secret" validate:"required"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	TokenLeeway      time.Duration `mapstructure:"token_leeway" validate:"gte=0"`
	CircuitThreshold float64       `mapstructure:"circuit_threshold" validate:"gte=0,lte=1"`
}

// RedisConfig defines connection parameters for the Redis client.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// StorageConfig selects the session store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=redis memory"`
}

// RateLimitRule is a limit over a window expressed as a duration string ("1m").
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user update throttling.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// IdempotencyConfig configures de-duplication of redelivered updates.
type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ServerConfig configures the HTTP server exposing metrics and health.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Storage.Driver == "redis" || c.Idempotency.Enabled || c.RateLimit.Enabled
}
