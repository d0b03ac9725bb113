package routes

import (
	"net/http"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/api/handlers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/api/middleware"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler    *handlers.SearchHandler
	analyticsHandler *handlers.AnalyticsHandler
	healthHandler    *handlers.HealthHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	healthHandler *handlers.HealthHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		searchHandler:    searchHandler,
		analyticsHandler: analyticsHandler,
		healthHandler:    healthHandler,
		cacheMiddleware:  cacheMiddleware,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Search endpoints
	r.mux.HandleFunc("GET /api/search", r.searchHandler.Search)
	r.mux.HandleFunc("GET /api/search/suggestions", r.searchHandler.Suggestions)
	r.mux.HandleFunc("POST /api/search/preload", r.searchHandler.Preload)

	// Catalog endpoints
	r.mux.HandleFunc("GET /api/categories", r.searchHandler.Categories)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/analytics/popular-queries", r.analyticsHandler.PopularQueries)
	r.mux.HandleFunc("GET /api/analytics/trending-categories", r.analyticsHandler.TrendingCategories)
	r.mux.HandleFunc("GET /api/analytics/metrics", r.analyticsHandler.Metrics)
	r.mux.HandleFunc("GET /api/analytics/performance", r.analyticsHandler.Performance)
	r.mux.HandleFunc("GET /api/analytics/empty-searches", r.analyticsHandler.EmptySearches)
	r.mux.HandleFunc("GET /api/analytics/user-behavior", r.analyticsHandler.UserBehavior)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
