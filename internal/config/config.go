// Package config centralizes gateway configuration. All settings are read
// from the environment once at startup and passed explicitly into the
// components that need them.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable for the gateway process.
type Config struct {
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":8080"`
	WorkerPoolSize int           `envconfig:"WORKER_POOL_SIZE" default:"256"`
	MaxConnections int           `envconfig:"MAX_CONNECTIONS" default:"100000"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`

	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	PostgresURL string `envconfig:"POSTGRES_URL" default:"postgres://localhost:5432/chatdb?sslmode=disable"`
	NATSURL     string `envconfig:"NATS_URL" default:"nats://localhost:4222"`

	// IdentitySecret feeds the one-way key derivation for the identity
	// cipher. Changing it makes previously sealed envelopes undecryptable.
	IdentitySecret string `envconfig:"IDENTITY_SECRET" default:"451585"`

	// AdminToken authorizes the admin surface: creating rooms and posting
	// into read-only rooms. Both are refused when it is unset.
	AdminToken string `envconfig:"ADMIN_TOKEN"`

	BanDuration      time.Duration `envconfig:"BAN_DURATION" default:"30s"`
	PresenceInterval time.Duration `envconfig:"PRESENCE_INTERVAL" default:"10s"`
	HistoryWindow    int           `envconfig:"HISTORY_WINDOW" default:"50"`
	HistoryMaxAge    time.Duration `envconfig:"HISTORY_MAX_AGE" default:"24h"`
	MessageRetention time.Duration `envconfig:"MESSAGE_RETENTION" default:"2160h"` // 90 days

	// Optional external moderation oracle. Disabled when the key is empty.
	OracleEndpoint string        `envconfig:"ORACLE_ENDPOINT" default:"https://openrouter.ai/api/v1/chat/completions"`
	OracleKey      string        `envconfig:"ORACLE_KEY"`
	OracleModel    string        `envconfig:"ORACLE_MODEL" default:"anthropic/claude-3-haiku"`
	OracleTimeout  time.Duration `envconfig:"ORACLE_TIMEOUT" default:"7s"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
