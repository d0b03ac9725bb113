package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/database"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/events"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/search"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/postgres"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/redis"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/typesense"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/observability"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/config"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/secrets"
)

const indexBatchSize = 500

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "drop the listings collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("mounasabet-indexer", os.Getenv("APP_ENV"))
	logger := observability.ComponentLogger("indexer")

	if vault := secrets.VaultFromEnv(); vault != nil {
		if _, err := vault.ExportEnv(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("failed to load secrets from vault")
		}
		logger.Info().Msg("vault secrets applied")
	}

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		parsed, err := time.ParseDuration(intervalValue)
		if err != nil {
			logger.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if parsed <= 0 {
			logger.Fatal().Str("interval", intervalValue).Msg("interval must be greater than zero")
		}
		interval = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			logger.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("interval", interval).Msg("reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			logger.Info().Msg("indexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	logger := observability.ComponentLogger("indexer")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	listingRepo := database.NewListingAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}
	adapter := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_INDEX") == "true" {
		logger.Info().Msg("dropping listings collection before reindex")
		if err := adapter.Reset(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to drop listings collection")
		}
	}

	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	active := true
	indexed := 0
	for offset := 0; ; offset += indexBatchSize {
		listings, err := listingRepo.List(ctx, repositories.ListingFilter{
			IsActive: &active,
			Limit:    indexBatchSize,
			Offset:   offset,
		})
		if err != nil {
			return err
		}
		if len(listings) == 0 {
			break
		}

		for _, listing := range listings {
			if listing == nil {
				continue
			}

			// widen tags so location and vendor searches hit too
			builder := newTagBuilder(maxListingTags)
			builder.add(listing.Tags...)
			builder.add(listing.Category, listing.Provider.Name)
			if listing.Location != nil {
				builder.add(*listing.Location)
			}
			listing.Tags = builder.tags()

			if err := adapter.Index(ctx, listing); err != nil {
				logger.Warn().Err(err).Str("listing_id", listing.ID).Msg("failed to index listing")
				continue
			}
			indexed++
		}

		if len(listings) < indexBatchSize {
			break
		}
	}

	logger.Info().Int("indexed", indexed).Msg("indexing complete")

	notifyReindexed(ctx, cfg, logger)
	return nil
}

// notifyReindexed publishes a catalog-wide event so running API instances
// drop their cached search results. Best effort: reindexing without Redis
// still succeeds, caches just expire on their own.
func notifyReindexed(ctx context.Context, cfg *config.Config, logger zerolog.Logger) {
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, skipping reindex notification")
		return
	}
	defer redisClient.Close()

	bus := events.NewRedisEventBus(redisClient, observability.ComponentLogger("event_bus"))
	defer bus.Close()

	event := entities.NewListingEvent("", entities.ListingEventTypeReindexed)
	if err := bus.Publish(ctx, providers.EventChannelListingUpdates, event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish reindex event")
	}
}

type tagBuilder struct {
	seen  map[string]struct{}
	list  []string
	limit int
}

func newTagBuilder(limit int) *tagBuilder {
	if limit <= 0 {
		limit = maxListingTags
	}
	return &tagBuilder{seen: make(map[string]struct{}), limit: limit}
}

func (b *tagBuilder) add(values ...string) {
	for _, value := range values {
		if b.limit > 0 && len(b.list) >= b.limit {
			return
		}
		normalized := normalizeTag(value)
		if normalized == "" {
			continue
		}
		if _, exists := b.seen[normalized]; exists {
			continue
		}
		b.seen[normalized] = struct{}{}
		b.list = append(b.list, normalized)
	}
}

func (b *tagBuilder) tags() []string {
	return b.list
}

func normalizeTag(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

const maxListingTags = 50
