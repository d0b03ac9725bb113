package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
)

const (
	defaultWindowDays       = 7
	popularQueryLimit       = 20
	trendingCategoryLimit   = 10
	reportListLimit         = 10
	slowQueryLimit          = 10
	slowQueryCandidateLimit = 100
	slowQueryThresholdMs    = 1000.0
	popularQueriesCacheTTL  = 120
)

// SearchInsightsService aggregates recorded search traffic into reports.
// Every method degrades to a zero-valued shape when the analytics store
// fails; reporting never surfaces an error to callers.
type SearchInsightsService struct {
	repo   repositories.SearchAnalyticsRepository
	cache  providers.CacheProvider
	logger zerolog.Logger
}

// NewSearchInsightsService creates a new insights service
func NewSearchInsightsService(repo repositories.SearchAnalyticsRepository, cache providers.CacheProvider, logger zerolog.Logger) *SearchInsightsService {
	return &SearchInsightsService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// PopularQueries returns the most searched queries over a trailing window
// of days, most frequent first. Results are briefly cached because search
// response enrichment and suggestions read them on hot paths.
func (s *SearchInsightsService) PopularQueries(ctx context.Context, days int) []entities.PopularQuery {
	days = normalizeWindow(days)
	key := fmt.Sprintf("search:analytics:popular:%dd", days)

	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached []entities.PopularQuery
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	now := time.Now().UTC()
	queries, err := s.repo.TopQueries(ctx, now.AddDate(0, 0, -days), now, popularQueryLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load popular queries")
		return []entities.PopularQuery{}
	}
	if queries == nil {
		queries = []entities.PopularQuery{}
	}

	if data, err := json.Marshal(queries); err == nil {
		if err := s.cache.Set(ctx, key, data, popularQueriesCacheTTL); err != nil {
			s.logger.Debug().Err(err).Msg("failed to cache popular queries")
		}
	}

	return queries
}

// TrendingCategories returns the most used category filter values over a
// trailing window of days
func (s *SearchInsightsService) TrendingCategories(ctx context.Context, days int) []entities.TrendingCategory {
	days = normalizeWindow(days)
	now := time.Now().UTC()

	categories, err := s.repo.TopCategories(ctx, now.AddDate(0, 0, -days), now, trendingCategoryLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load trending categories")
		return []entities.TrendingCategory{}
	}
	if categories == nil {
		categories = []entities.TrendingCategory{}
	}
	return categories
}

// SearchMetrics reports search volume between from and to. Zero bounds
// default to the trailing 30 days.
func (s *SearchInsightsService) SearchMetrics(ctx context.Context, from, to time.Time) *entities.SearchMetrics {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	metrics := &entities.SearchMetrics{PopularQueries: []entities.PopularQuery{}}

	totals, err := s.repo.QueryTotals(ctx, from, to)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load search totals")
	} else {
		metrics.TotalSearches = totals.TotalSearches
		metrics.UniqueQueries = totals.UniqueQueries
		metrics.AverageResultsPerSearch = totals.AverageResults
		metrics.SearchesWithNoResults = totals.NoResultCount
	}

	if popular, err := s.repo.TopQueries(ctx, from, to, reportListLimit); err != nil {
		s.logger.Warn().Err(err).Msg("failed to load popular queries for metrics")
	} else if popular != nil {
		metrics.PopularQueries = popular
	}

	metrics.PerformanceMetrics = s.performanceBetween(ctx, from, to)
	return metrics
}

// PerformanceMetrics reports search latency over a trailing window of days
func (s *SearchInsightsService) PerformanceMetrics(ctx context.Context, days int) *entities.PerformanceMetrics {
	days = normalizeWindow(days)
	now := time.Now().UTC()

	perf := s.performanceBetween(ctx, now.AddDate(0, 0, -days), now)
	return &perf
}

// performanceBetween assembles the latency report shared by
// PerformanceMetrics and SearchMetrics. Averages come from timing samples
// alone; queries that were never sampled simply do not appear.
func (s *SearchInsightsService) performanceBetween(ctx context.Context, from, to time.Time) entities.PerformanceMetrics {
	perf := entities.PerformanceMetrics{
		SlowQueries:        []entities.QueryPerformance{},
		PopularQueries:     []entities.PopularQuery{},
		EmptyResultQueries: []entities.PopularQuery{},
	}

	totals, err := s.repo.PerformanceTotals(ctx, from, to)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load performance totals")
	} else {
		perf.AverageResponseTime = totals.AverageResponseTime
		perf.TotalSearches = totals.TotalSamples
		if totals.TotalSamples > 0 {
			perf.CacheHitRate = float64(totals.CacheHits) / float64(totals.TotalSamples) * 100
		}
	}

	averages, err := s.repo.QueryAverages(ctx, from, to, slowQueryCandidateLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load per-query averages")
	} else {
		// averages arrive slowest first, so filtering preserves the order
		for _, avg := range averages {
			if avg.AverageResponseTime > slowQueryThresholdMs {
				perf.SlowQueries = append(perf.SlowQueries, avg)
				if len(perf.SlowQueries) == slowQueryLimit {
					break
				}
			}
		}
	}

	if popular, err := s.repo.TopQueries(ctx, from, to, reportListLimit); err != nil {
		s.logger.Warn().Err(err).Msg("failed to load popular queries for performance report")
	} else if popular != nil {
		perf.PopularQueries = popular
	}

	if empty, err := s.repo.TopEmptyQueries(ctx, from, to, reportListLimit); err != nil {
		s.logger.Warn().Err(err).Msg("failed to load empty-result queries for performance report")
	} else if empty != nil {
		perf.EmptyResultQueries = empty
	}

	return perf
}

// EmptySearchAnalytics reports searches that returned nothing over a
// trailing window of days. The rate is a percentage of all searches.
func (s *SearchInsightsService) EmptySearchAnalytics(ctx context.Context, days int) *entities.EmptySearchAnalytics {
	days = normalizeWindow(days)
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -days)

	out := &entities.EmptySearchAnalytics{CommonEmptyQueries: []entities.PopularQuery{}}

	totals, err := s.repo.QueryTotals(ctx, from, now)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load totals for empty-search report")
	} else {
		out.TotalEmptySearches = totals.NoResultCount
		if totals.TotalSearches > 0 {
			out.EmptySearchRate = float64(totals.NoResultCount) / float64(totals.TotalSearches) * 100
		}
	}

	if common, err := s.repo.TopEmptyQueries(ctx, from, now, reportListLimit); err != nil {
		s.logger.Warn().Err(err).Msg("failed to load common empty queries")
	} else if common != nil {
		out.CommonEmptyQueries = common
	}

	return out
}

// UserSearchBehavior reports per-user search activity over a trailing
// window of days. Searches without a user id are excluded.
func (s *SearchInsightsService) UserSearchBehavior(ctx context.Context, days int) *entities.UserSearchBehavior {
	days = normalizeWindow(days)
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -days)

	out := &entities.UserSearchBehavior{TopSearchingUsers: []entities.UserSearchCount{}}

	totals, err := s.repo.UserTotals(ctx, from, now)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load user totals")
	} else {
		out.UniqueUsers = totals.UniqueUsers
		if totals.UniqueUsers > 0 {
			out.AverageSearchesPerUser = float64(totals.RecordedSearches) / float64(totals.UniqueUsers)
		}
	}

	if top, err := s.repo.TopUsers(ctx, from, now, reportListLimit); err != nil {
		s.logger.Warn().Err(err).Msg("failed to load top searching users")
	} else if top != nil {
		out.TopSearchingUsers = top
	}

	return out
}

// normalizeWindow coerces a non-positive day count to the default window
func normalizeWindow(days int) int {
	if days <= 0 {
		return defaultWindowDays
	}
	return days
}
