package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/observability"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/utils"
)

const defaultSearchLimit = 20

// SearchRecorder receives analytics about executed searches. Calls must
// return immediately and never fail the search path.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, query string, filters entities.SearchFilters, resultCount int, userID *string)
	RecordSearchPerformance(ctx context.Context, query string, responseTime time.Duration, resultCount int, fromCache bool)
}

// SearchSettings tunes the catalog query engine
type SearchSettings struct {
	DefaultLimit       int
	ResultTTLSeconds   int
	VolatileTTLSeconds int
	VolatileCategories []string
}

// SearchService executes listing searches: validate, normalize, consult
// the result cache, query the catalog, format, cache, and record
// analytics. The catalog store is the only dependency whose failure
// reaches the caller.
type SearchService struct {
	listingRepo repositories.ListingRepository
	searchRepo  repositories.ListingSearchRepository
	loader      *dataloader.Loader[string, *entities.Listing]
	resultCache *SearchResultCache
	recorder    SearchRecorder
	metrics     *observability.Metrics
	logger      zerolog.Logger

	defaultLimit       int
	resultTTL          int
	volatileTTL        int
	volatileCategories map[string]struct{}
}

// NewSearchService creates a new search service. searchRepo and loader
// may be nil when no search index is configured; every query then runs
// against the catalog store directly.
func NewSearchService(
	listingRepo repositories.ListingRepository,
	searchRepo repositories.ListingSearchRepository,
	loader *dataloader.Loader[string, *entities.Listing],
	resultCache *SearchResultCache,
	recorder SearchRecorder,
	metrics *observability.Metrics,
	logger zerolog.Logger,
	settings SearchSettings,
) *SearchService {
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = defaultSearchLimit
	}
	if settings.ResultTTLSeconds <= 0 {
		settings.ResultTTLSeconds = 300
	}
	if settings.VolatileTTLSeconds <= 0 {
		settings.VolatileTTLSeconds = 120
	}

	volatile := make(map[string]struct{}, len(settings.VolatileCategories))
	for _, category := range settings.VolatileCategories {
		volatile[strings.ToLower(strings.TrimSpace(category))] = struct{}{}
	}

	return &SearchService{
		listingRepo:        listingRepo,
		searchRepo:         searchRepo,
		loader:             loader,
		resultCache:        resultCache,
		recorder:           recorder,
		metrics:            metrics,
		logger:             logger,
		defaultLimit:       settings.DefaultLimit,
		resultTTL:          settings.ResultTTLSeconds,
		volatileTTL:        settings.VolatileTTLSeconds,
		volatileCategories: volatile,
	}
}

// Search runs the full search pipeline for one request. userID is an
// analytics-only annotation: it never influences results or caching.
func (s *SearchService) Search(ctx context.Context, filters entities.SearchFilters, opts entities.SearchOptions, userID string) (*entities.SearchResponse, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search")
	defer span.End()
	start := time.Now()

	filters = ValidateSearchFilters(filters)
	opts = ValidateSearchOptions(opts, s.defaultLimit)
	normalized := utils.OptimizeQuery(filters.Query)

	var userPtr *string
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		userPtr = &trimmed
	}

	key := s.resultCache.Key(normalized, filters, opts.Page, opts.Limit)
	if cached, ok := s.resultCache.Lookup(ctx, key); ok {
		elapsed := time.Since(start)
		s.dispatchAnalytics(ctx, normalized, filters, cached.Total, userPtr, elapsed, true)
		observability.RecordSearchMetric(ctx, s.metrics, true, elapsed)
		return cached, nil
	}

	response, err := s.queryCatalog(ctx, normalized, filters, opts)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	go func() {
		storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.resultCache.Store(storeCtx, key, response, s.ttlFor(filters))
	}()

	elapsed := time.Since(start)
	s.dispatchAnalytics(ctx, normalized, filters, response.Total, userPtr, elapsed, false)
	observability.RecordSearchMetric(ctx, s.metrics, false, elapsed)
	return response, nil
}

// Categories returns the distinct categories of active listings
func (s *SearchService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.listingRepo.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list categories", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// queryCatalog resolves a cache miss. When a search index is wired and
// the query has no location constraint the text match runs there first;
// index failures fall back to the catalog store.
func (s *SearchService) queryCatalog(ctx context.Context, normalized string, filters entities.SearchFilters, opts entities.SearchOptions) (*entities.SearchResponse, error) {
	query := repositories.ListingQuery{
		Text:     normalized,
		Terms:    utils.Tokenize(normalized),
		Location: filters.Location,
		Category: filters.Category,
		SortBy:   filters.SortBy,
		Limit:    opts.Limit,
		Offset:   (opts.Page - 1) * opts.Limit,
	}
	if filters.PriceRange != nil {
		query.MinPrice = &filters.PriceRange.Min
		if filters.PriceRange.Max > 0 {
			query.MaxPrice = &filters.PriceRange.Max
		}
	}
	if filters.Rating != nil {
		query.MinRating = filters.Rating
	}

	if s.searchRepo != nil && s.loader != nil && filters.Location == nil {
		response, err := s.searchIndexed(ctx, query, opts)
		if err == nil {
			return response, nil
		}
		s.logger.Warn().Err(err).Str("query", normalized).Msg("index search failed, falling back to catalog")
	}

	dbStart := time.Now()
	listings, total, err := s.listingRepo.SearchWithCount(ctx, query)
	observability.RecordDBMetric(ctx, s.metrics, "listings.search", time.Since(dbStart))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search listings", err)
	}

	return buildResponse(FormatSearchResults(listings), total, opts.Page, opts.Limit), nil
}

// searchIndexed matches against the search index and hydrates full rows
// from the catalog through the batching loader. Index hits the catalog no
// longer knows are dropped.
func (s *SearchService) searchIndexed(ctx context.Context, query repositories.ListingQuery, opts entities.SearchOptions) (*entities.SearchResponse, error) {
	ids, total, err := s.searchRepo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	listings := make([]*entities.Listing, 0, len(ids))
	if len(ids) > 0 {
		loaded, errs := s.loader.LoadMany(ctx, ids)()
		for _, loadErr := range errs {
			if loadErr != nil {
				return nil, fmt.Errorf("failed to hydrate listings: %w", loadErr)
			}
		}
		for _, listing := range loaded {
			if listing != nil {
				listings = append(listings, listing)
			}
		}
	}

	return buildResponse(FormatSearchResults(listings), total, opts.Page, opts.Limit), nil
}

// dispatchAnalytics hands both record kinds to the recorder. resultCount
// is the total match count, so empty-search analytics see the query's
// reach rather than one page's slice.
func (s *SearchService) dispatchAnalytics(ctx context.Context, normalized string, filters entities.SearchFilters, resultCount int, userID *string, elapsed time.Duration, fromCache bool) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordSearch(ctx, normalized, filters, resultCount, userID)
	s.recorder.RecordSearchPerformance(ctx, normalized, elapsed, resultCount, fromCache)
}

// ttlFor picks the cache lifetime for a result page. Categories with
// fast-moving price and availability get the shorter TTL.
func (s *SearchService) ttlFor(filters entities.SearchFilters) int {
	if filters.Category != nil {
		if _, ok := s.volatileCategories[strings.ToLower(*filters.Category)]; ok {
			return s.volatileTTL
		}
	}
	return s.resultTTL
}

// ValidateSearchFilters sanitizes caller-supplied filters: bounds that
// cannot hold listings are dropped rather than rejected, and unknown sort
// options fall back to popularity.
func ValidateSearchFilters(filters entities.SearchFilters) entities.SearchFilters {
	filters.Query = strings.TrimSpace(filters.Query)

	if filters.Location != nil {
		location := strings.TrimSpace(*filters.Location)
		if location == "" {
			filters.Location = nil
		} else {
			filters.Location = &location
		}
	}
	if filters.Category != nil {
		category := strings.TrimSpace(*filters.Category)
		if category == "" {
			filters.Category = nil
		} else {
			filters.Category = &category
		}
	}

	if filters.PriceRange != nil {
		pr := *filters.PriceRange
		if pr.Min < 0 || pr.Max < 0 || (pr.Max > 0 && pr.Min > pr.Max) {
			filters.PriceRange = nil
		}
	}

	if filters.Rating != nil && (*filters.Rating < 0 || *filters.Rating > 5) {
		filters.Rating = nil
	}

	switch filters.SortBy {
	case entities.SortPriceLow, entities.SortPriceHigh, entities.SortRating, entities.SortDistance, entities.SortPopularity:
	default:
		filters.SortBy = entities.SortPopularity
	}

	return filters
}

// ValidateSearchOptions coerces pagination to usable values. Pages past
// the end of the result set are left alone; they resolve to empty pages.
func ValidateSearchOptions(opts entities.SearchOptions, defaultLimit int) entities.SearchOptions {
	if defaultLimit <= 0 {
		defaultLimit = defaultSearchLimit
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultLimit
	}
	return opts
}

// FormatSearchResults shapes catalog rows for clients, replacing every
// optional column with its presentation default
func FormatSearchResults(listings []*entities.Listing) []entities.SearchResultItem {
	items := make([]entities.SearchResultItem, 0, len(listings))
	for _, listing := range listings {
		if listing == nil {
			continue
		}

		item := entities.SearchResultItem{
			ID:       listing.ID,
			Type:     listing.Type,
			Name:     listing.Name,
			Images:   listing.Images,
			Category: listing.Category,
			Provider: entities.ResultProvider{
				ID:   listing.Provider.ID,
				Name: listing.Provider.Name,
			},
		}
		if item.Images == nil {
			item.Images = []string{}
		}
		if listing.Description != nil {
			item.Description = *listing.Description
		}
		if listing.Rating != nil {
			item.Rating = *listing.Rating
		}
		if listing.ReviewCount != nil {
			item.ReviewCount = *listing.ReviewCount
		}
		if listing.BasePrice != nil {
			item.BasePrice = *listing.BasePrice
		}
		if listing.Location != nil {
			item.Location = *listing.Location
		}
		if listing.Provider.IsVerified != nil {
			item.Provider.IsVerified = *listing.Provider.IsVerified
		}

		items = append(items, item)
	}
	return items
}

// buildResponse assembles one page with its pagination metadata. The
// requested page and limit are echoed back even when the page is past the
// end of the data.
func buildResponse(items []entities.SearchResultItem, total, page, limit int) *entities.SearchResponse {
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	hasNext := page < totalPages

	return &entities.SearchResponse{
		Results:    items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasMore:    hasNext,
		HasNext:    hasNext,
		HasPrev:    page > 1 && total > 0,
	}
}
