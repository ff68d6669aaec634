package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration shared by the binaries.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM
	LLMProvider   string  `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMModel      string  `env:"LLM_MODEL"` // empty uses the provider default
	SystemPrompt  string  `env:"SYSTEM_PROMPT" envDefault:"You are a helpful assistant embedded in a text editor. Answer concisely."`
	Temperature   float64 `env:"TEMPERATURE" envDefault:"0"`
	ProvidersFile string  `env:"PROVIDERS_FILE"` // optional TOML catalog overriding the built-in providers

	// Display
	Follow       bool `env:"FOLLOW" envDefault:"true"`
	ReplayTokens int  `env:"REPLAY_TOKENS" envDefault:"8"` // words per snapshot when replaying cached answers

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"none"` // "none", "postgres" or "sqlite"
	DBURL         string `env:"DB_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"inline-llm.db"`

	// Bus
	BusProvider string `env:"BUS_PROVIDER" envDefault:"none"` // "none" or "nats"
	NATSURL     string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
