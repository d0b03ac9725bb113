package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/observability"
)

const resultCachePrefix = "search:results:"

// resultCacheKey is the canonical fingerprint of a search request. The
// requesting user is deliberately absent: identical searches share one
// cache entry no matter who runs them.
type resultCacheKey struct {
	NormalizedQuery string              `json:"normalizedQuery"`
	Location        *string             `json:"location"`
	Category        *string             `json:"category"`
	PriceMin        *float64            `json:"priceMin"`
	PriceMax        *float64            `json:"priceMax"`
	Rating          *float64            `json:"rating"`
	SortBy          entities.SortOption `json:"sortBy"`
	Page            int                 `json:"page"`
	Limit           int                 `json:"limit"`
}

// SearchResultCache stores formatted search response pages keyed by the
// request fingerprint. Every failure downgrades to a miss; callers never
// see a cache error.
type SearchResultCache struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewSearchResultCache creates a new search result cache
func NewSearchResultCache(cache providers.CacheProvider, metrics *observability.Metrics, logger zerolog.Logger) *SearchResultCache {
	return &SearchResultCache{
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Key derives the cache key for a normalized query plus its filters and
// page window.
func (c *SearchResultCache) Key(normalizedQuery string, filters entities.SearchFilters, page, limit int) string {
	k := resultCacheKey{
		NormalizedQuery: normalizedQuery,
		Location:        filters.Location,
		Category:        filters.Category,
		Rating:          filters.Rating,
		SortBy:          filters.SortBy,
		Page:            page,
		Limit:           limit,
	}
	if filters.PriceRange != nil {
		k.PriceMin = &filters.PriceRange.Min
		if filters.PriceRange.Max > 0 {
			k.PriceMax = &filters.PriceRange.Max
		}
	}

	data, _ := json.Marshal(k)
	sum := sha256.Sum256(data)
	return resultCachePrefix + hex.EncodeToString(sum[:])
}

// Lookup returns the cached response for a key, or false on any miss,
// read failure, or undecodable entry.
func (c *SearchResultCache) Lookup(ctx context.Context, key string) (*entities.SearchResponse, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			c.logger.Warn().Err(err).Msg("search result cache read failed")
		}
		observability.RecordCacheMiss(ctx, c.metrics, resultCachePrefix)
		return nil, false
	}

	var response entities.SearchResponse
	if err := json.Unmarshal(data, &response); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cached search result")
		observability.RecordCacheMiss(ctx, c.metrics, resultCachePrefix)
		return nil, false
	}

	observability.RecordCacheHit(ctx, c.metrics, resultCachePrefix)
	return &response, true
}

// Store caches a response under key. Write failures are logged and
// swallowed.
func (c *SearchResultCache) Store(ctx context.Context, key string, response *entities.SearchResponse, ttlSeconds int) {
	data, err := json.Marshal(response)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to marshal search response for cache")
		return
	}
	if err := c.cache.Set(ctx, key, data, ttlSeconds); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store search response in cache")
	}
}

// Contains reports whether a key is already cached. Used by preloading to
// skip work; errors report false.
func (c *SearchResultCache) Contains(ctx context.Context, key string) bool {
	exists, err := c.cache.Exists(ctx, key)
	if err != nil {
		return false
	}
	return exists
}
