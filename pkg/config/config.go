package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Search    SearchConfig
	Analytics AnalyticsConfig
	Warming   WarmingConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// SearchConfig holds search pipeline configuration
type SearchConfig struct {
	// DefaultLimit is the page size used when the caller supplies none
	DefaultLimit int

	// ResultTTLSeconds is the cache lifetime for formatted result pages
	ResultTTLSeconds int

	// VolatileTTLSeconds applies to categories whose inventory changes quickly
	VolatileTTLSeconds int

	// VolatileCategories lists the categories that get the shorter TTL
	VolatileCategories []string

	// IndexEnabled turns on the Typesense-backed text search path
	IndexEnabled bool
}

// AnalyticsConfig holds the search analytics recorder configuration
type AnalyticsConfig struct {
	QueueSize     int
	WriteTimeout  time.Duration
	RetentionDays int
}

// WarmingConfig holds cache warming configuration
type WarmingConfig struct {
	Enabled  bool
	Interval time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "mounasabet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Search: SearchConfig{
			DefaultLimit:       getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			ResultTTLSeconds:   getEnvAsInt("SEARCH_RESULT_TTL_SECONDS", 300),
			VolatileTTLSeconds: getEnvAsInt("SEARCH_VOLATILE_TTL_SECONDS", 120),
			VolatileCategories: getEnvAsList("SEARCH_VOLATILE_CATEGORIES", "venues,catering,equipment"),
			IndexEnabled:       getEnvAsBool("SEARCH_INDEX_ENABLED", false),
		},
		Analytics: AnalyticsConfig{
			QueueSize:     getEnvAsInt("ANALYTICS_QUEUE_SIZE", 1024),
			WriteTimeout:  getEnvAsDuration("ANALYTICS_WRITE_TIMEOUT", 5*time.Second),
			RetentionDays: getEnvAsInt("ANALYTICS_RETENTION_DAYS", 90),
		},
		Warming: WarmingConfig{
			Enabled:  getEnvAsBool("CACHE_WARMING_ENABLED", false),
			Interval: getEnvAsDuration("CACHE_WARMING_INTERVAL", 5*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "mounasabet-search"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(strings.ToLower(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
