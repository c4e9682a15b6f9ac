package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through LINKAGE_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	Store           string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	JWTSigningKey   string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Hash     HashConfig
	Limit    RateLimitConfig
}

// PostgresConfig configures the database/sql pool.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit sink. An empty broker list keeps audit
// events in memory.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RateLimitConfig sets the per-caller request budget. A zero rate disables
// limiting.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// Enabled reports whether callers are throttled.
func (c RateLimitConfig) Enabled() bool {
	return c.PerSecond > 0
}

// HashConfig selects the digest applied to sensitive fields.
type HashConfig struct {
	Algorithm string
	Pepper    string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []error
	cfg := Server{
		Addr:          envOr("LINKAGE_ADDR", ":8080"),
		Store:         strings.ToLower(envOr("LINKAGE_STORE", StoreMemory)),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10, &errs),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "linkage.audit"),
		},
		Hash: HashConfig{
			Algorithm: envOr("HASH_ALGORITHM", "sha256"),
			Pepper:    os.Getenv("HASH_PEPPER"),
		},
		Limit: RateLimitConfig{
			PerSecond: envFloat("RATE_LIMIT_RPS", 50, &errs),
			Burst:     envInt("RATE_LIMIT_BURST", 100, &errs),
		},
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot start.
func (c Server) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when LINKAGE_STORE=postgres"))
		}
	case StoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when LINKAGE_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("LINKAGE_STORE %q: must be one of memory, postgres, redis", c.Store))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.Redis.PoolSize < 0 || c.Postgres.MaxOpenConns < 0 || c.Postgres.MaxIdleConns < 0 {
		errs = append(errs, errors.New("pool sizes must not be negative"))
	}
	if c.Limit.PerSecond < 0 || (c.Limit.Enabled() && c.Limit.Burst < 1) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative and RATE_LIMIT_BURST must be at least 1"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether bearer authentication guards the linkage routes.
func (c Server) AuthEnabled() bool {
	return c.JWTSigningKey != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64, errs *[]error) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
