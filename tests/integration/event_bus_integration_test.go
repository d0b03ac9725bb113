//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/cache"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/events"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/application/services"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
)

func waitForListingEvent(t *testing.T, ch <-chan *entities.ListingEvent) *entities.ListingEvent {
	t.Helper()

	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for listing event")
		return nil
	}
}

func TestRedisEventBusFanout(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient, zerolog.Nop())
	defer eventBus.Close()

	channel := providers.EventChannelListingUpdates
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewListingEvent("lst-bus-1", entities.ListingEventTypeUpdated)
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	received1 := waitForListingEvent(t, sub1)
	received2 := waitForListingEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, "lst-bus-1", received1.ListingID)
	assert.Equal(t, entities.ListingEventTypeUpdated, received1.EventType)
}

func TestCacheInvalidationOverRedis(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	cacheProvider := cache.NewRedisAdapter(redisClient)
	eventBus := events.NewRedisEventBus(redisClient, zerolog.Nop())
	defer eventBus.Close()

	invalidation := services.NewCacheInvalidationService(cacheProvider, eventBus, zerolog.Nop())
	require.NoError(t, invalidation.Start())
	defer invalidation.Stop()
	time.Sleep(50 * time.Millisecond)

	ctx := context.Background()
	key := providers.ListingCacheKey("lst-inv-1")
	require.NoError(t, cacheProvider.Set(ctx, key, []byte("cached"), 60))

	event := entities.NewListingEvent("lst-inv-1", entities.ListingEventTypeUpdated)
	require.NoError(t, eventBus.Publish(ctx, providers.EventChannelListingUpdates, event))

	require.Eventually(t, func() bool {
		exists, err := cacheProvider.Exists(ctx, key)
		return err == nil && !exists
	}, 5*time.Second, 100*time.Millisecond)
}

func TestReindexEventFlushesResultCache(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	cacheProvider := cache.NewRedisAdapter(redisClient)
	eventBus := events.NewRedisEventBus(redisClient, zerolog.Nop())
	defer eventBus.Close()

	invalidation := services.NewCacheInvalidationService(cacheProvider, eventBus, zerolog.Nop())
	require.NoError(t, invalidation.Start())
	defer invalidation.Stop()
	time.Sleep(50 * time.Millisecond)

	ctx := context.Background()
	require.NoError(t, cacheProvider.Set(ctx, "search:results:integration", []byte("page"), 60))
	require.NoError(t, cacheProvider.Set(ctx, providers.CategoriesCacheKey, []byte(`["venues"]`), 60))

	event := entities.NewListingEvent("", entities.ListingEventTypeReindexed)
	require.NoError(t, eventBus.Publish(ctx, providers.EventChannelListingUpdates, event))

	require.Eventually(t, func() bool {
		resultExists, err1 := cacheProvider.Exists(ctx, "search:results:integration")
		categoriesExist, err2 := cacheProvider.Exists(ctx, providers.CategoriesCacheKey)
		return err1 == nil && err2 == nil && !resultExists && !categoriesExist
	}, 5*time.Second, 100*time.Millisecond)
}
