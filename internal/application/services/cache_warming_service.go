package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
)

// CachePreloader fills the search result cache with popular searches
type CachePreloader interface {
	PreloadPopularResults(ctx context.Context)
}

// CategorySource lists catalog categories through the caching layer
type CategorySource interface {
	Categories(ctx context.Context) ([]string, error)
}

// CacheWarmingService keeps the hottest responses cached: the first page
// of popular searches and the category list. Warming runs are best
// effort; a cold cache is never an error.
type CacheWarmingService struct {
	preloader  CachePreloader
	categories CategorySource
	cache      providers.CacheProvider
	logger     zerolog.Logger
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	preloader CachePreloader,
	categories CategorySource,
	cache providers.CacheProvider,
	logger zerolog.Logger,
) *CacheWarmingService {
	return &CacheWarmingService{
		preloader:  preloader,
		categories: categories,
		cache:      cache,
		logger:     logger,
	}
}

// WarmCache runs one warming pass
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	s.logger.Info().Msg("starting cache warming")

	s.preloader.PreloadPopularResults(ctx)

	// reading through the cached repository stores the category list
	if _, err := s.categories.Categories(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to warm category list")
	}

	s.logger.Info().Msg("cache warming completed")
	return nil
}

// StartPeriodicWarming warms immediately and then on every tick until
// ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	go func() {
		if err := s.WarmCache(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial cache warming failed")
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("stopping cache warming")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					s.logger.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	s.logger.Info().Dur("interval", interval).Msg("started periodic cache warming")
}

// CacheStats samples keys the warmer maintains and reports whether they
// are present, with remaining TTLs
func (s *CacheWarmingService) CacheStats(ctx context.Context) (map[string]interface{}, error) {
	sampleKeys := []string{
		providers.CategoriesCacheKey,
		"search:analytics:popular:7d",
	}

	stats := make(map[string]interface{})
	cached := 0
	for _, key := range sampleKeys {
		exists, err := s.cache.Exists(ctx, key)
		if err != nil || !exists {
			continue
		}
		cached++
		if ttl, err := s.cache.TTL(ctx, key); err == nil {
			stats[key+"_ttl_seconds"] = ttl.Seconds()
		}
	}

	stats["cached_sample_keys"] = cached
	stats["total_sample_keys"] = len(sampleKeys)
	return stats, nil
}
