package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/cache"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/database"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/events"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/search"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/api/handlers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/api/middleware"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/api/routes"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/application/loaders"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/application/services"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/postgres"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/redis"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/typesense"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/observability"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/config"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/secrets"
)

func main() {
	// Pull deployment credentials into the environment before parsing
	// configuration
	vault := secrets.VaultFromEnv()
	if vault != nil {
		if _, err := vault.ExportEnv(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load secrets from vault: %v\n", err)
			os.Exit(1)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.ComponentLogger("api")
	if vault != nil {
		logger.Info().Msg("vault secrets applied")
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Redis is optional: searches fall back to the catalog store and the
	// result cache degrades to a no-op when it is absent.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized")
	}

	cacheProvider := cache.NewNoopAdapter()
	cacheAvailable := false
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		cacheAvailable = true
	}

	// Initialize event bus for catalog change notifications
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient, observability.ComponentLogger("event_bus"))
		logger.Info().Msg("event bus initialized")
	} else {
		logger.Info().Msg("event bus disabled (Redis not available)")
	}

	// Initialize the search index when enabled. Index failures only cost
	// us the indexed query path, never the whole service.
	var searchRepo repositories.ListingSearchRepository
	var listingLoader *loaders.ListingLoader
	if cfg.Search.IndexEnabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("Typesense unavailable, continuing without search index")
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to init search index schema")
			}
			searchRepo = adapter
			logger.Info().Msg("Typesense client initialized")
		}
	}

	// Initialize adapters
	baseListingAdapter := database.NewListingAdapter(pgClient)

	var listingRepo repositories.ListingRepository = baseListingAdapter
	if cacheAvailable {
		listingRepo = database.NewCachedListingAdapter(baseListingAdapter, cacheProvider, observability.ComponentLogger("listing_cache"))
		logger.Info().Msg("listing repository wrapped with caching layer")
	}

	if searchRepo != nil {
		listingLoader = loaders.NewListingLoader(listingRepo)
	}

	analyticsAdapter := database.NewSearchAnalyticsAdapter(pgClient)

	// Initialize services
	resultCache := services.NewSearchResultCache(cacheProvider, metrics, observability.ComponentLogger("result_cache"))

	recorder := services.NewSearchAnalyticsService(
		analyticsAdapter,
		metrics,
		observability.ComponentLogger("search_analytics"),
		cfg.Analytics.QueueSize,
		cfg.Analytics.WriteTimeout,
	)
	recorder.StartRetention(ctx, cfg.Analytics.RetentionDays, 24*time.Hour)

	searchService := services.NewSearchService(
		listingRepo,
		searchRepo,
		listingLoader,
		resultCache,
		recorder,
		metrics,
		observability.ComponentLogger("search"),
		services.SearchSettings{
			DefaultLimit:       cfg.Search.DefaultLimit,
			ResultTTLSeconds:   cfg.Search.ResultTTLSeconds,
			VolatileTTLSeconds: cfg.Search.VolatileTTLSeconds,
			VolatileCategories: cfg.Search.VolatileCategories,
		},
	)

	insightsService := services.NewSearchInsightsService(analyticsAdapter, cacheProvider, observability.ComponentLogger("search_insights"))

	optimizerService := services.NewSearchOptimizerService(
		insightsService,
		searchService,
		resultCache,
		cfg.Search.DefaultLimit,
		observability.ComponentLogger("search_optimizer"),
	)

	// Initialize cache invalidation service
	var cacheInvalidationService *services.CacheInvalidationService
	if cacheAvailable && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus, observability.ComponentLogger("cache_invalidation"))
		if err := cacheInvalidationService.Start(); err != nil {
			logger.Warn().Err(err).Msg("failed to start cache invalidation service")
		} else {
			logger.Info().Msg("cache invalidation service started")
		}
	}

	// Start cache warming when configured
	if cfg.Warming.Enabled && cacheAvailable {
		warmingService := services.NewCacheWarmingService(
			optimizerService,
			searchService,
			cacheProvider,
			observability.ComponentLogger("cache_warming"),
		)
		go warmingService.StartPeriodicWarming(ctx, cfg.Warming.Interval)
		logger.Info().Dur("interval", cfg.Warming.Interval).Msg("cache warming service started")
	}

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService, optimizerService, insightsService, observability.ComponentLogger("search_handler"))
	analyticsHandler := handlers.NewAnalyticsHandler(insightsService, observability.ComponentLogger("analytics_handler"))

	healthChecks := []handlers.HealthCheck{{Name: "postgres", Pinger: pgClient}}
	if redisClient != nil {
		healthChecks = append(healthChecks, handlers.HealthCheck{Name: "redis", Pinger: redisClient})
	}
	healthHandler := handlers.NewHealthHandler(healthChecks...)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheAvailable {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	// Set up router
	router := routes.NewRouter(
		searchHandler,
		analyticsHandler,
		healthHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	// Stop background services before draining the recorder so nothing
	// enqueues after the queue closes
	cancel()

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}

	// Drain queued analytics records
	if err := recorder.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing analytics recorder")
	}

	logger.Info().Msg("server stopped")
}
