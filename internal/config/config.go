package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Telemetry struct {
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"1.0.0"`
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

type Storefront struct {
	Telemetry

	Port           string        `envconfig:"PORT" default:"8080"`
	PostgresURL    string        `envconfig:"POSTGRES_URL" required:"true"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	KafkaBrokers   []string      `envconfig:"KAFKA_BROKERS"`
	OrdersTopic    string        `envconfig:"ORDERS_TOPIC" default:"order.placed"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"336h"`
	SessionCookie  string        `envconfig:"SESSION_COOKIE_NAME" default:"sessionid"`
	SecureCookies  bool          `envconfig:"SECURE_COOKIES" default:"false"`
	AdminToken     string        `envconfig:"ADMIN_TOKEN"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

type Notifier struct {
	Telemetry

	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS" required:"true"`
	OrdersTopic     string        `envconfig:"ORDERS_TOPIC" default:"order.placed"`
	ConsumerGroup   string        `envconfig:"CONSUMER_GROUP" default:"order-notifier"`
	EmailServiceURL string        `envconfig:"EMAIL_SERVICE_URL" required:"true"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

type Migrate struct {
	PostgresURL    string `envconfig:"POSTGRES_URL" required:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
}

func LoadStorefront() (*Storefront, error) {
	var cfg Storefront
	if err := load(&cfg); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return &cfg, nil
}

func LoadNotifier() (*Notifier, error) {
	var cfg Notifier
	if err := load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadMigrate() (*Migrate, error) {
	var cfg Migrate
	if err := load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func load(spec any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", spec); err != nil {
		return fmt.Errorf("process env: %w", err)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (t Telemetry) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(t.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
