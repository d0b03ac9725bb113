package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
)

const popularSearchLimit = 10

// SearchProvider runs the search pipeline and exposes the catalog's
// category list
type SearchProvider interface {
	Search(ctx context.Context, filters entities.SearchFilters, opts entities.SearchOptions, userID string) (*entities.SearchResponse, error)
	Categories(ctx context.Context) ([]string, error)
}

// SuggestionProvider serves autocomplete suggestions and cache preloading
type SuggestionProvider interface {
	Suggestions(ctx context.Context, partial string) []string
	PreloadPopularResults(ctx context.Context)
}

// PopularSearchProvider supplies ranked popular queries for response
// enrichment
type PopularSearchProvider interface {
	PopularQueries(ctx context.Context, days int) []entities.PopularQuery
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	search    SearchProvider
	optimizer SuggestionProvider
	popular   PopularSearchProvider
	logger    zerolog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search SearchProvider, optimizer SuggestionProvider, popular PopularSearchProvider, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		search:    search,
		optimizer: optimizer,
		popular:   popular,
		logger:    logger,
	}
}

// searchEnvelope is the JSON shape of a search response. Pagination echoes
// the request even on an empty page so clients can render stable controls.
type searchEnvelope struct {
	Success         bool                        `json:"success"`
	Results         []entities.SearchResultItem `json:"results"`
	Total           int                         `json:"total"`
	Page            int                         `json:"page"`
	Limit           int                         `json:"limit"`
	TotalPages      int                         `json:"totalPages"`
	HasMore         bool                        `json:"hasMore"`
	HasNext         bool                        `json:"hasNext"`
	HasPrev         bool                        `json:"hasPrev"`
	Categories      []string                    `json:"categories"`
	PopularSearches []string                    `json:"popularSearches"`
}

// Search handles GET /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := entities.SearchFilters{
		Query:    query.Get("q"),
		Location: optionalString(query.Get("location")),
		Category: optionalString(query.Get("category")),
		SortBy:   entities.SortOption(query.Get("sortBy")),
	}

	// malformed numeric filters are dropped, not rejected
	minPrice, hasMin := parseFloatParam(query.Get("minPrice"))
	maxPrice, hasMax := parseFloatParam(query.Get("maxPrice"))
	if hasMin || hasMax {
		filters.PriceRange = &entities.PriceRange{Min: minPrice, Max: maxPrice}
	}
	if rating, ok := parseFloatParam(query.Get("rating")); ok {
		filters.Rating = &rating
	}

	opts := entities.SearchOptions{
		Page:  parseIntParam(query.Get("page"), 0),
		Limit: parseIntParam(query.Get("limit"), 0),
	}

	response, err := h.search.Search(r.Context(), filters, opts, query.Get("userId"))
	if err != nil {
		h.logger.Error().Err(err).Str("query", filters.Query).Msg("search failed")
		respondWithError(w, apperrors.HTTPStatus(err), "search is currently unavailable")
		return
	}

	envelope := searchEnvelope{
		Success:         true,
		Results:         response.Results,
		Total:           response.Total,
		Page:            response.Page,
		Limit:           response.Limit,
		TotalPages:      response.TotalPages,
		HasMore:         response.HasMore,
		HasNext:         response.HasNext,
		HasPrev:         response.HasPrev,
		Categories:      h.categoryList(r.Context()),
		PopularSearches: h.popularSearches(r.Context()),
	}

	respondWithJSON(w, http.StatusOK, envelope)
}

// Suggestions handles GET /api/search/suggestions
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := h.optimizer.Suggestions(r.Context(), r.URL.Query().Get("q"))

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"suggestions": suggestions,
	})
}

// Preload handles POST /api/search/preload. The warm-up runs detached
// from the request; 202 only acknowledges that it was started.
func (h *SearchHandler) Preload(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		h.optimizer.PreloadPopularResults(ctx)
	}()

	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "cache preload started",
	})
}

// Categories handles GET /api/categories
func (h *SearchHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.search.Categories(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list categories")
		respondWithError(w, apperrors.HTTPStatus(err), "failed to list categories")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": categories,
	})
}

// categoryList fetches categories for response enrichment. Best effort:
// an error just means an empty list alongside otherwise good results.
func (h *SearchHandler) categoryList(ctx context.Context) []string {
	categories, err := h.search.Categories(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to enrich search response with categories")
		return []string{}
	}
	return categories
}

// popularSearches fetches popular query texts for response enrichment
func (h *SearchHandler) popularSearches(ctx context.Context) []string {
	popular := h.popular.PopularQueries(ctx, 7)

	searches := make([]string, 0, len(popular))
	for _, entry := range popular {
		searches = append(searches, entry.Query)
		if len(searches) == popularSearchLimit {
			break
		}
	}
	return searches
}

// optionalString converts a possibly empty query parameter to a filter
// pointer
func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseFloatParam(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func parseIntParam(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
