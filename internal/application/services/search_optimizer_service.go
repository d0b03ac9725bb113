package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/pkg/utils"
)

const maxSuggestions = 5

// PopularQueryProvider supplies ranked popular queries over a trailing
// window of days
type PopularQueryProvider interface {
	PopularQueries(ctx context.Context, days int) []entities.PopularQuery
}

// SearchRunner executes one search request end to end
type SearchRunner interface {
	Search(ctx context.Context, filters entities.SearchFilters, opts entities.SearchOptions, userID string) (*entities.SearchResponse, error)
}

// SearchOptimizerService turns recorded search traffic into speedups:
// autocomplete suggestions from popular queries and cache preloading for
// the searches users run most.
type SearchOptimizerService struct {
	popular      PopularQueryProvider
	runner       SearchRunner
	resultCache  *SearchResultCache
	defaultLimit int
	logger       zerolog.Logger
}

// NewSearchOptimizerService creates a new search optimizer
func NewSearchOptimizerService(
	popular PopularQueryProvider,
	runner SearchRunner,
	resultCache *SearchResultCache,
	defaultLimit int,
	logger zerolog.Logger,
) *SearchOptimizerService {
	if defaultLimit <= 0 {
		defaultLimit = defaultSearchLimit
	}
	return &SearchOptimizerService{
		popular:      popular,
		runner:       runner,
		resultCache:  resultCache,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Suggestions returns up to five popular queries containing the partial
// input, keeping popularity order. An empty partial suggests the overall
// top queries.
func (s *SearchOptimizerService) Suggestions(ctx context.Context, partial string) []string {
	needle := strings.ToLower(strings.TrimSpace(partial))

	suggestions := []string{}
	for _, popular := range s.popular.PopularQueries(ctx, defaultWindowDays) {
		if strings.Contains(strings.ToLower(popular.Query), needle) {
			suggestions = append(suggestions, popular.Query)
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}
	return suggestions
}

// PreloadPopularResults warms the result cache with the first page of
// every popular query that is not cached yet. Results are discarded; the
// run exists purely for its cache writes. Per-query failures are logged
// and skipped.
func (s *SearchOptimizerService) PreloadPopularResults(ctx context.Context) {
	popular := s.popular.PopularQueries(ctx, defaultWindowDays)

	preloaded := 0
	for _, entry := range popular {
		filters := entities.SearchFilters{Query: entry.Query, SortBy: entities.SortPopularity}
		opts := entities.SearchOptions{Page: 1, Limit: s.defaultLimit}

		key := s.resultCache.Key(utils.OptimizeQuery(entry.Query), ValidateSearchFilters(filters), opts.Page, opts.Limit)
		if s.resultCache.Contains(ctx, key) {
			continue
		}

		if _, err := s.runner.Search(ctx, filters, opts, ""); err != nil {
			s.logger.Warn().Err(err).Str("query", entry.Query).Msg("failed to preload search results")
			continue
		}
		preloaded++
	}

	if preloaded > 0 {
		s.logger.Info().Int("preloaded", preloaded).Msg("preloaded popular search results")
	}
}
