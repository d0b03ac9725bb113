package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
)

// CacheInvalidationService drops cached catalog data in response to
// listing events. Search result pages normally age out by TTL; only a
// full reindex flushes them eagerly.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, logger zerolog.Logger) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to listing updates and begins invalidating
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelListingUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to listing updates: %w", err)
	}

	go s.processEvents(eventChan)
	s.logger.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.logger.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ListingEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.ListingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch event.EventType {
	case entities.ListingEventTypeUpdated, entities.ListingEventTypeDeleted:
		if event.ListingID == "" {
			return
		}
		key := providers.ListingCacheKey(event.ListingID)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("listing_id", event.ListingID).Msg("failed to invalidate listing cache")
			return
		}
		s.logger.Debug().Str("listing_id", event.ListingID).Str("event_type", string(event.EventType)).
			Msg("invalidated listing cache")

	case entities.ListingEventTypeReindexed:
		if err := s.cache.DeletePattern(ctx, resultCachePrefix+"*"); err != nil {
			s.logger.Warn().Err(err).Msg("failed to flush search result cache after reindex")
			return
		}
		if err := s.cache.Delete(ctx, providers.CategoriesCacheKey); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate category cache after reindex")
		}
		s.logger.Info().Str("event_id", event.ID).Msg("flushed search result cache after reindex")

	default:
		s.logger.Debug().Str("event_type", string(event.EventType)).Msg("ignoring unhandled listing event")
	}
}
