package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Env    string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	Locale string `env:"APP_LOCALE" envDefault:"pt-BR"`

	UsersTable   string        `env:"USERS_TABLE" envDefault:"users"`
	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"dynamodb"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	AWSRegion         string `env:"AWS_REGION" envDefault:"us-east-1"`
	DynamoEndpoint    string `env:"DYNAMODB_ENDPOINT"`
	DynamoCreateTable bool   `env:"DYNAMODB_CREATE_TABLE" envDefault:"false"`

	DBURL string `env:"DATABASE_URL"`
	DB    DB

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OtelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"userhub"`

	MetricsEnabled     bool     `env:"METRICS_ENABLED" envDefault:"true"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// DB holds the discrete PostgreSQL settings used when DATABASE_URL is unset.
type DB struct {
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"userhub"`
	Password string `env:"DB_PASSWORD" envDefault:"userhub"`
	Name     string `env:"DB_NAME" envDefault:"userhub"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

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

func (c Config) validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverDynamoDB, DriverPostgres, DriverRedis, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver))
	}

	if strings.TrimSpace(c.UsersTable) == "" {
		errs = append(errs, errors.New("USERS_TABLE: must not be empty"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT: must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: out of range: %d", c.Port))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES: must be positive"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE: must not be negative"))
	}

	return errors.Join(errs...)
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func buildDBURL(db DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     db.Host + ":" + db.Port,
		Path:     "/" + db.Name,
		RawQuery: "sslmode=" + url.QueryEscape(db.SSLMode),
	}

	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
