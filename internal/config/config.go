package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required unless APP_ENV=dev")

type DB struct {
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"contactkeeper"`
	Password string `env:"DB_PASSWORD" envDefault:"contactkeeper"`
	Name     string `env:"DB_NAME" envDefault:"contactkeeper"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"prod"`
	Port int    `env:"PORT" envDefault:"5000"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DBURL       string `env:"DB_URL"`
	DB          DB
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"contactkeeper.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	JWTSecret        string        `env:"JWT_SECRET"`
	RegisterTokenTTL time.Duration `env:"REGISTER_TOKEN_TTL" envDefault:"24h"`
	LoginTokenTTL    time.Duration `env:"LOGIN_TOKEN_TTL" envDefault:"720h"`
	AuthHeader       string        `env:"AUTH_HEADER" envDefault:"x-auth-token"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"0s"`

	ServiceName  string  `env:"OTEL_SERVICE_NAME" envDefault:"contactkeeper-api"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPProtocol string  `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"grpc"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`

	devSecret bool
}

// Load reads an optional .env file and then the process environment.
// The returned Config is treated as immutable by every component.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = buildDBURL(cfg.DB)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		if !c.IsDev() {
			return ErrMissingJWTSecret
		}
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generate dev JWT secret: %w", err)
		}
		c.JWTSecret, c.devSecret = secret, true
	}

	if c.CacheTTL < 0 {
		return errors.New("CACHE_TTL must not be negative")
	}

	if c.RegisterTokenTTL <= 0 || c.LoginTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}

	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be within [0,1], got %v", c.SampleRatio)
	}

	if c.AuthHeader == "" {
		c.AuthHeader = "x-auth-token"
	}

	return nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// UsesDevSecret reports whether JWTSecret was generated for this process.
// Tokens signed with it stop verifying on restart.
func (c Config) UsesDevSecret() bool {
	return c.devSecret
}

// CacheEnabled reports whether contact lists are cached; CACHE_TTL=0 disables it.
func (c Config) CacheEnabled() bool {
	return c.CacheTTL > 0
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// LogValue keeps secrets out of structured logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("env", c.Env),
		slog.Int("port", c.Port),
		slog.String("store_driver", c.StoreDriver),
		slog.String("db_url", redactURL(c.DBURL)),
		slog.String("sqlite_path", c.SQLitePath),
		slog.Duration("register_token_ttl", c.RegisterTokenTTL),
		slog.Duration("login_token_ttl", c.LoginTokenTTL),
		slog.String("auth_header", c.AuthHeader),
		slog.Bool("redis", c.RedisAddr != ""),
		slog.Duration("cache_ttl", c.CacheTTL),
		slog.Bool("tracing", c.OTLPEndpoint != ""),
	)
}

func buildDBURL(db DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     db.Host + ":" + db.Port,
		Path:     "/" + db.Name,
		RawQuery: "sslmode=" + db.SSLMode,
	}

	return u.String()
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	return u.Redacted()
}

func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}
