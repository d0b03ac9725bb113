package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
)

// InsightsProvider aggregates recorded search traffic into reports
type InsightsProvider interface {
	PopularQueries(ctx context.Context, days int) []entities.PopularQuery
	TrendingCategories(ctx context.Context, days int) []entities.TrendingCategory
	SearchMetrics(ctx context.Context, from, to time.Time) *entities.SearchMetrics
	PerformanceMetrics(ctx context.Context, days int) *entities.PerformanceMetrics
	EmptySearchAnalytics(ctx context.Context, days int) *entities.EmptySearchAnalytics
	UserSearchBehavior(ctx context.Context, days int) *entities.UserSearchBehavior
}

// AnalyticsHandler handles search analytics HTTP requests. The insights
// layer degrades to zero-valued reports on storage failure, so every
// endpoint here answers 200.
type AnalyticsHandler struct {
	insights InsightsProvider
	logger   zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(insights InsightsProvider, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		insights: insights,
		logger:   logger,
	}
}

// PopularQueries handles GET /api/analytics/popular-queries
func (h *AnalyticsHandler) PopularQueries(w http.ResponseWriter, r *http.Request) {
	days := parseWindow(r.URL.Query().Get("days"))
	queries := h.insights.PopularQueries(r.Context(), days)

	if limit := parseIntParam(r.URL.Query().Get("limit"), 0); limit > 0 && limit < len(queries) {
		queries = queries[:limit]
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"days":    days,
		"queries": queries,
	})
}

// TrendingCategories handles GET /api/analytics/trending-categories
func (h *AnalyticsHandler) TrendingCategories(w http.ResponseWriter, r *http.Request) {
	days := parseWindow(r.URL.Query().Get("days"))
	categories := h.insights.TrendingCategories(r.Context(), days)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"days":       days,
		"categories": categories,
	})
}

// Metrics handles GET /api/analytics/metrics. Bounds are RFC 3339
// timestamps; missing or malformed bounds fall back to the trailing
// 30 days.
func (h *AnalyticsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	from := parseTimeParam(r.URL.Query().Get("from"))
	to := parseTimeParam(r.URL.Query().Get("to"))

	metrics := h.insights.SearchMetrics(r.Context(), from, to)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"metrics": metrics,
	})
}

// Performance handles GET /api/analytics/performance
func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	days := parseWindow(r.URL.Query().Get("days"))
	performance := h.insights.PerformanceMetrics(r.Context(), days)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"days":        days,
		"performance": performance,
	})
}

// EmptySearches handles GET /api/analytics/empty-searches
func (h *AnalyticsHandler) EmptySearches(w http.ResponseWriter, r *http.Request) {
	days := parseWindow(r.URL.Query().Get("days"))
	analytics := h.insights.EmptySearchAnalytics(r.Context(), days)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"days":          days,
		"emptySearches": analytics,
	})
}

// UserBehavior handles GET /api/analytics/user-behavior
func (h *AnalyticsHandler) UserBehavior(w http.ResponseWriter, r *http.Request) {
	days := parseWindow(r.URL.Query().Get("days"))
	behavior := h.insights.UserSearchBehavior(r.Context(), days)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"days":     days,
		"behavior": behavior,
	})
}

// parseWindow parses a trailing-window day count, defaulting to a week
func parseWindow(value string) int {
	days := parseIntParam(value, 7)
	if days <= 0 {
		return 7
	}
	return days
}

func parseTimeParam(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
