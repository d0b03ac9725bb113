//go:build integration

package integration

import (
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/postgres"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/redis"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/config"
)

// catalogSchema mirrors scripts/seed.go so tests can run against an
// empty database
const catalogSchema = `
CREATE TABLE IF NOT EXISTS providers (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	is_verified BOOLEAN,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS listings (
	id UUID PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	images TEXT[],
	rating DOUBLE PRECISION,
	review_count INTEGER,
	base_price DOUBLE PRECISION,
	location TEXT,
	category TEXT NOT NULL,
	tags TEXT[],
	provider_id UUID NOT NULL REFERENCES providers(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_category ON listings (category) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_listings_tags ON listings USING GIN (tags);

CREATE TABLE IF NOT EXISTS search_queries (
	id UUID PRIMARY KEY,
	query TEXT NOT NULL,
	filters JSONB NOT NULL DEFAULT '{}',
	result_count INTEGER NOT NULL,
	user_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_queries_created_at ON search_queries (created_at);
CREATE INDEX IF NOT EXISTS idx_search_queries_query ON search_queries (query);

CREATE TABLE IF NOT EXISTS search_performance_samples (
	id UUID PRIMARY KEY,
	query TEXT NOT NULL,
	response_time_ms DOUBLE PRECISION NOT NULL,
	result_count INTEGER NOT NULL,
	from_cache BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_performance_created_at ON search_performance_samples (created_at);
`

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

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "mounasabet_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func createCatalogSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(catalogSchema)
	require.NoError(t, err, "Failed to create catalog schema")
}

func truncateCatalog(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`TRUNCATE listings, providers, search_queries, search_performance_samples RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Failed to truncate catalog tables")
}

func seedTestProvider(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO providers (id, name, is_verified) VALUES ($1, $2, TRUE) ON CONFLICT (id) DO NOTHING`,
		id, name,
	)
	require.NoError(t, err, "Failed to seed provider")
}
