package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/application/services"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
	"github.com/Silk-Dev/Mounasabat-sub006/tests/mocks"
)

// warmPreloaderSpy counts warming passes
type warmPreloaderSpy struct {
	mu    sync.Mutex
	count int
}

func (s *warmPreloaderSpy) PreloadPopularResults(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
}

func (s *warmPreloaderSpy) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

type warmCategoriesStub struct {
	mu    sync.Mutex
	count int
	err   error
}

func (s *warmCategoriesStub) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if s.err != nil {
		return nil, s.err
	}
	return []string{"venues", "catering"}, nil
}

func (s *warmCategoriesStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func TestCacheWarmingService_WarmCacheRunsPreloadAndCategories(t *testing.T) {
	preloader := &warmPreloaderSpy{}
	categories := &warmCategoriesStub{}
	svc := services.NewCacheWarmingService(preloader, categories, mocks.NewMemoryCacheProvider(), zerolog.Nop())

	err := svc.WarmCache(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, preloader.calls())
	assert.Equal(t, 1, categories.calls())
}

func TestCacheWarmingService_WarmCacheToleratesCategoryFailure(t *testing.T) {
	preloader := &warmPreloaderSpy{}
	categories := &warmCategoriesStub{err: errors.New("database down")}
	svc := services.NewCacheWarmingService(preloader, categories, mocks.NewMemoryCacheProvider(), zerolog.Nop())

	err := svc.WarmCache(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, preloader.calls())
}

func TestCacheWarmingService_PeriodicWarmingWarmsImmediately(t *testing.T) {
	preloader := &warmPreloaderSpy{}
	categories := &warmCategoriesStub{}
	svc := services.NewCacheWarmingService(preloader, categories, mocks.NewMemoryCacheProvider(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// interval far beyond the test so only the immediate pass can fire
	svc.StartPeriodicWarming(ctx, time.Hour)

	require.Eventually(t, func() bool {
		return preloader.calls() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCacheWarmingService_PeriodicWarmingRepeatsOnInterval(t *testing.T) {
	preloader := &warmPreloaderSpy{}
	categories := &warmCategoriesStub{}
	svc := services.NewCacheWarmingService(preloader, categories, mocks.NewMemoryCacheProvider(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.StartPeriodicWarming(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return preloader.calls() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestCacheWarmingService_CacheStatsReportsSampleKeys(t *testing.T) {
	cache := mocks.NewMemoryCacheProvider()
	svc := services.NewCacheWarmingService(&warmPreloaderSpy{}, &warmCategoriesStub{}, cache, zerolog.Nop())

	stats, err := svc.CacheStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats["cached_sample_keys"])
	assert.Equal(t, 2, stats["total_sample_keys"])

	require.NoError(t, cache.Set(context.Background(), providers.CategoriesCacheKey, []byte(`["venues"]`), 600))
	require.NoError(t, cache.Set(context.Background(), "search:analytics:popular:7d", []byte(`[]`), 120))

	stats, err = svc.CacheStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats["cached_sample_keys"])
	assert.InDelta(t, 600, stats[providers.CategoriesCacheKey+"_ttl_seconds"], 0.001)
	assert.InDelta(t, 120, stats["search:analytics:popular:7d_ttl_seconds"], 0.001)
}
