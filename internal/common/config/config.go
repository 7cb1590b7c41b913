package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"moments-backend"`

	// postgres | memory
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	Server struct {
		Port            int           `env:"PORT" envDefault:"8080"`
		Origin          string        `env:"ORIGIN" envDefault:"http://localhost:3000"`
		ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"moments"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"moments"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"5m"`
		AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`

		EventStream       string `env:"REDIS_EVENT_STREAM" envDefault:"moments:events"`
		EventStreamMaxLen int64  `env:"REDIS_EVENT_STREAM_MAXLEN" envDefault:"10000"`
	}

	// S3-compatible storage for moment media (MinIO, R2, AWS).
	Storage struct {
		Endpoint       string        `env:"S3_ENDPOINT" envDefault:""`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		Bucket         string        `env:"S3_BUCKET" envDefault:"moments"`
		AccessKey      string        `env:"S3_ACCESS_KEY" envDefault:""`
		SecretKey      string        `env:"S3_SECRET_KEY" envDefault:""`
		UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"true"`
		PublicBaseURL  string        `env:"S3_PUBLIC_BASE_URL" envDefault:""`
		PresignExpires time.Duration `env:"S3_PRESIGN_EXPIRES" envDefault:"168h"`
		MaxUploadBytes int64         `env:"MEDIA_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	}

	Identity struct {
		VerifierURL string        `env:"IDENTITY_VERIFIER_URL" envDefault:""`
		Scope       string        `env:"IDENTITY_SCOPE" envDefault:""`
		Timeout     time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`
	}

	Signing struct {
		NonceTTL     time.Duration `env:"SIGNING_NONCE_TTL" envDefault:"10m"`
		RequireNonce bool          `env:"SIGNING_REQUIRE_NONCE" envDefault:"false"`
	}
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
