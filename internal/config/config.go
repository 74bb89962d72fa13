package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Pipedrive PipedriveConfig
	SLA       SLAConfig
	Cache     CacheConfig
	Admin     AdminConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// PipedriveConfig defines the CRM metadata integration.
type PipedriveConfig struct {
	APIToken          string
	BaseURL           string
	MetadataTTLSec    int
	RequestTimeoutSec int
}

// SLAConfig holds the response-time thresholds and the reference time zone.
// The card status thresholds and the hourly-chart legend thresholds are tuned
// independently, so both pairs are configured separately.
type SLAConfig struct {
	Timezone          string
	StatusGoodMax     int
	StatusModerateMax int
	HourlyGoodMax     int
	HourlyModerateMax int
}

// CacheConfig holds TTLs for the metric read caches, in seconds.
type CacheConfig struct {
	MetricsTTLSec int
	RankingTTLSec int
	SDRsTTLSec    int
}

// AdminConfig guards the administrative endpoints.
type AdminConfig struct {
	Secret string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "lead-sla-monitor"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Pipedrive: PipedriveConfig{
			APIToken:          os.Getenv("PIPEDRIVE_API_TOKEN"),
			BaseURL:           getEnv("PIPEDRIVE_API_URL", "https://api.pipedrive.com/v1"),
			MetadataTTLSec:    getEnvAsInt("PIPEDRIVE_METADATA_TTL_SECONDS", 300),
			RequestTimeoutSec: getEnvAsInt("PIPEDRIVE_REQUEST_TIMEOUT_SECONDS", 10),
		},
		SLA: SLAConfig{
			Timezone:          getEnv("SLA_TIMEZONE", "America/Sao_Paulo"),
			StatusGoodMax:     getEnvAsInt("SLA_STATUS_GOOD_MAX_MINUTES", 15),
			StatusModerateMax: getEnvAsInt("SLA_STATUS_MODERATE_MAX_MINUTES", 20),
			HourlyGoodMax:     getEnvAsInt("SLA_HOURLY_GOOD_MAX_MINUTES", 15),
			HourlyModerateMax: getEnvAsInt("SLA_HOURLY_MODERATE_MAX_MINUTES", 20),
		},
		Cache: CacheConfig{
			MetricsTTLSec: getEnvAsInt("CACHE_METRICS_TTL_SECONDS", 30),
			RankingTTLSec: getEnvAsInt("CACHE_RANKING_TTL_SECONDS", 60),
			SDRsTTLSec:    getEnvAsInt("CACHE_SDRS_TTL_SECONDS", 300),
		},
		Admin: AdminConfig{
			Secret: os.Getenv("ADMIN_SECRET"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Location resolves the reference time zone used for shift and day bucketing.
func (s SLAConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
