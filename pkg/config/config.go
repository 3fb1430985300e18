package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the repair-shop assistant.
type Config struct {
	AppEnv       string             `mapstructure:"app_env"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Bot          BotConfig          `mapstructure:"bot"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Assistant    AssistantConfig    `mapstructure:"assistant"`
	Completion   CompletionConfig   `mapstructure:"completion"`
	Jobs         JobsConfig         `mapstructure:"jobs"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// BotConfig configures the Telegram transport. An empty token disables it.
type BotConfig struct {
	Token      string        `mapstructure:"token"`
	Mode       string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Language   string        `mapstructure:"language"`
	// StaffIDs are Telegram users allowed in even without a usuarios row.
	StaffIDs []int64 `mapstructure:"staff_ids"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host          string        `mapstructure:"host" validate:"required"`
	Port          int           `mapstructure:"port" validate:"required"`
	User          string        `mapstructure:"user" validate:"required"`
	Password      string        `mapstructure:"password"`
	Name          string        `mapstructure:"name" validate:"required"`
	SSLMode       string        `mapstructure:"ssl_mode"`
	MaxOpenConns  int           `mapstructure:"max_open_conns"`
	MaxIdleConns  int           `mapstructure:"max_idle_conns"`
	ConnMaxLife   time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir string        `mapstructure:"migrations_dir"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		sslMode,
	)
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// RateLimitRule is a limit per window, e.g. {limit: 30, window: "1m"}.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Whitelist []int64       `mapstructure:"whitelist"`
	Messages  RateLimitRule `mapstructure:"messages"`
	Queries   RateLimitRule `mapstructure:"queries"`
	HTTP      RateLimitRule `mapstructure:"http"`
}

// ConversationConfig bounds how long an abandoned flow survives in Redis.
type ConversationConfig struct {
	StateTTL time.Duration `mapstructure:"state_ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// IntentRuleConfig maps trigger phrases to one entity kind.
type IntentRuleConfig struct {
	Intent  string   `mapstructure:"intent" validate:"oneof=customer work_order product"`
	Phrases []string `mapstructure:"phrases" validate:"min=1"`
}

type AssistantConfig struct {
	Language          string             `mapstructure:"language"`
	CompletionTimeout time.Duration      `mapstructure:"completion_timeout"`
	SnapshotTimeout   time.Duration      `mapstructure:"snapshot_timeout"`
	Intents           []IntentRuleConfig `mapstructure:"intents" validate:"dive"`
}

// CompletionConfig points at an OpenAI-compatible chat completion endpoint.
type CompletionConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url" validate:"omitempty,url"`
	Model       string  `mapstructure:"model" validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gte=0"`
}

type JobsConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Concurrency int            `mapstructure:"concurrency" validate:"gte=0"`
	Queues      map[string]int `mapstructure:"queues"`
	// NotificationCheck is the cron spec of the overdue/stock/ready scan. Empty disables it.
	NotificationCheck string `mapstructure:"notification_check"`
}
