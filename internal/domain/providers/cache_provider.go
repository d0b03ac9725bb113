package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when a key is not present
var ErrCacheMiss = errors.New("cache: key not found")

// CategoriesCacheKey holds the distinct category list of active listings
const CategoriesCacheKey = "listings:categories"

// ListingCacheKey returns the cache key for one listing's serialized row.
// Event-driven invalidation and the read-through repository cache must
// agree on this shape.
func ListingCacheKey(id string) string {
	return "listing:" + id
}

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes all keys matching a glob-style pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// GetMulti retrieves multiple keys; missing keys are absent from the map
	GetMulti(ctx context.Context, keys []string) (map[string][]byte, error)

	// SetMulti stores multiple values with a shared expiration
	SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error

	// TTL returns the remaining lifetime of a key
	TTL(ctx context.Context, key string) (time.Duration, error)
}
