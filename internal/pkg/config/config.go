package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// UpstreamURL points the session manager at a remote lighting API.
	// Empty selects the built-in identity provider.
	UpstreamURL string `env:"UPSTREAM_URL"`

	// TokenStore selects where the bearer credential lives: file, redis,
	// or memory (degraded, non-durable).
	TokenStore string `env:"TOKEN_STORE, default=file"`
	TokenFile  string `env:"TOKEN_FILE,  default=.lighting/credential"`

	// StaticDir is the built SPA served under /app. Empty disables the mount.
	StaticDir string `env:"STATIC_DIR, default=web/dist"`

	// AuditWorkers sizes the audit dispatcher; 0 selects the default.
	AuditWorkers int `env:"AUDIT_WORKERS, default=0"`

	// MaxLoginFailures before an identifier is locked out; 0 selects the
	// default.
	MaxLoginFailures int `env:"MAX_LOGIN_FAILURES, default=0"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=lighting_console"`
}

type RedisConfig struct {
	// Addr may be empty: the console then runs without Redis (no lockout
	// limiter, file or memory token store only).
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
