package repositories

import (
	"context"
	"time"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
)

// SearchAnalyticsRepository defines the interface for the analytics
// store. Writes are append-only; reads aggregate over a [from, to)
// window. Rows are only removed by DeleteOlderThan.
type SearchAnalyticsRepository interface {
	// InsertQueryRecord persists one search query record
	InsertQueryRecord(ctx context.Context, record *entities.SearchQueryRecord) error

	// InsertPerformanceRecord persists one timing sample
	InsertPerformanceRecord(ctx context.Context, record *entities.SearchPerformanceRecord) error

	// TopQueries returns the most frequent non-empty queries
	TopQueries(ctx context.Context, from, to time.Time, limit int) ([]entities.PopularQuery, error)

	// TopCategories returns the most used category filter values
	TopCategories(ctx context.Context, from, to time.Time, limit int) ([]entities.TrendingCategory, error)

	// TopEmptyQueries returns the most frequent queries with zero results
	TopEmptyQueries(ctx context.Context, from, to time.Time, limit int) ([]entities.PopularQuery, error)

	// QueryTotals returns volume aggregates over the window
	QueryTotals(ctx context.Context, from, to time.Time) (QueryTotals, error)

	// PerformanceTotals returns timing aggregates over the window
	PerformanceTotals(ctx context.Context, from, to time.Time) (PerformanceTotals, error)

	// QueryAverages returns per-query average response times, slowest first
	QueryAverages(ctx context.Context, from, to time.Time, limit int) ([]entities.QueryPerformance, error)

	// UserTotals returns aggregates over searches that carry a user id
	UserTotals(ctx context.Context, from, to time.Time) (UserTotals, error)

	// TopUsers returns the users with the most searches
	TopUsers(ctx context.Context, from, to time.Time, limit int) ([]entities.UserSearchCount, error)

	// DeleteOlderThan removes records created before the cutoff and
	// returns how many rows were deleted
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// QueryTotals aggregates the search query records in a window
type QueryTotals struct {
	TotalSearches  int     `db:"total_searches"`
	UniqueQueries  int     `db:"unique_queries"`
	AverageResults float64 `db:"average_results"`
	NoResultCount  int     `db:"no_result_count"`
}

// PerformanceTotals aggregates the timing samples in a window
type PerformanceTotals struct {
	TotalSamples        int     `db:"total_samples"`
	AverageResponseTime float64 `db:"avg_response_time_ms"`
	CacheHits           int     `db:"cache_hits"`
}

// UserTotals aggregates the attributed searches in a window
type UserTotals struct {
	UniqueUsers      int `db:"unique_users"`
	RecordedSearches int `db:"recorded_searches"`
}
