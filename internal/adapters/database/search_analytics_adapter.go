package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/postgres"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
)

// SearchAnalyticsAdapter implements SearchAnalyticsRepository over two
// append-only tables: search_queries and search_performance_samples
type SearchAnalyticsAdapter struct {
	db *sqlx.DB
}

var _ repositories.SearchAnalyticsRepository = (*SearchAnalyticsAdapter)(nil)

// NewSearchAnalyticsAdapter creates a new analytics store adapter
func NewSearchAnalyticsAdapter(client *postgres.Client) *SearchAnalyticsAdapter {
	return &SearchAnalyticsAdapter{db: client.DBX()}
}

// InsertQueryRecord persists one search query record
func (a *SearchAnalyticsAdapter) InsertQueryRecord(ctx context.Context, record *entities.SearchQueryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	filters, err := json.Marshal(record.Filters)
	if err != nil {
		return apperrors.NewInternalError("failed to encode search filters", err)
	}

	const query = `
		INSERT INTO search_queries (id, query, filters, result_count, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := a.db.ExecContext(ctx, query,
		record.ID, record.Query, filters, record.ResultCount, record.UserID, record.CreatedAt,
	); err != nil {
		return apperrors.NewInternalError("failed to record search query", err)
	}
	return nil
}

// InsertPerformanceRecord persists one timing sample
func (a *SearchAnalyticsAdapter) InsertPerformanceRecord(ctx context.Context, record *entities.SearchPerformanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	const query = `
		INSERT INTO search_performance_samples (id, query, response_time_ms, result_count, from_cache, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := a.db.ExecContext(ctx, query,
		record.ID, record.Query, record.ResponseTimeMs, record.ResultCount, record.FromCache, record.CreatedAt,
	); err != nil {
		return apperrors.NewInternalError("failed to record search performance", err)
	}
	return nil
}

// TopQueries returns the most frequent non-empty queries in the window
func (a *SearchAnalyticsAdapter) TopQueries(ctx context.Context, from, to time.Time, limit int) ([]entities.PopularQuery, error) {
	const query = `
		SELECT query, COUNT(*) AS count
		FROM search_queries
		WHERE created_at >= $1 AND created_at < $2 AND query <> ''
		GROUP BY query
		ORDER BY count DESC, query ASC
		LIMIT $3
	`

	queries := []entities.PopularQuery{}
	if err := a.db.SelectContext(ctx, &queries, query, from, to, limit); err != nil {
		return nil, apperrors.NewInternalError("failed to load popular queries", err)
	}
	return queries, nil
}

// TopCategories returns the most used category filter values in the
// window, read from the category key of the stored filters
func (a *SearchAnalyticsAdapter) TopCategories(ctx context.Context, from, to time.Time, limit int) ([]entities.TrendingCategory, error) {
	const query = `
		SELECT filters->>'category' AS category, COUNT(*) AS count
		FROM search_queries
		WHERE created_at >= $1 AND created_at < $2
		  AND filters->>'category' IS NOT NULL AND filters->>'category' <> ''
		GROUP BY filters->>'category'
		ORDER BY count DESC, category ASC
		LIMIT $3
	`

	categories := []entities.TrendingCategory{}
	if err := a.db.SelectContext(ctx, &categories, query, from, to, limit); err != nil {
		return nil, apperrors.NewInternalError("failed to load trending categories", err)
	}
	return categories, nil
}

// TopEmptyQueries returns the most frequent zero-result queries in the window
func (a *SearchAnalyticsAdapter) TopEmptyQueries(ctx context.Context, from, to time.Time, limit int) ([]entities.PopularQuery, error) {
	const query = `
		SELECT query, COUNT(*) AS count
		FROM search_queries
		WHERE created_at >= $1 AND created_at < $2 AND result_count = 0 AND query <> ''
		GROUP BY query
		ORDER BY count DESC, query ASC
		LIMIT $3
	`

	queries := []entities.PopularQuery{}
	if err := a.db.SelectContext(ctx, &queries, query, from, to, limit); err != nil {
		return nil, apperrors.NewInternalError("failed to load empty-result queries", err)
	}
	return queries, nil
}

// QueryTotals returns volume aggregates over the window
func (a *SearchAnalyticsAdapter) QueryTotals(ctx context.Context, from, to time.Time) (repositories.QueryTotals, error) {
	const query = `
		SELECT COUNT(*) AS total_searches,
		       COUNT(DISTINCT query) AS unique_queries,
		       COALESCE(AVG(result_count), 0) AS average_results,
		       COUNT(*) FILTER (WHERE result_count = 0) AS no_result_count
		FROM search_queries
		WHERE created_at >= $1 AND created_at < $2
	`

	var totals repositories.QueryTotals
	if err := a.db.GetContext(ctx, &totals, query, from, to); err != nil {
		return repositories.QueryTotals{}, apperrors.NewInternalError("failed to load query totals", err)
	}
	return totals, nil
}

// PerformanceTotals returns timing aggregates over the window
func (a *SearchAnalyticsAdapter) PerformanceTotals(ctx context.Context, from, to time.Time) (repositories.PerformanceTotals, error) {
	const query = `
		SELECT COUNT(*) AS total_samples,
		       COALESCE(AVG(response_time_ms), 0) AS avg_response_time_ms,
		       COUNT(*) FILTER (WHERE from_cache) AS cache_hits
		FROM search_performance_samples
		WHERE created_at >= $1 AND created_at < $2
	`

	var totals repositories.PerformanceTotals
	if err := a.db.GetContext(ctx, &totals, query, from, to); err != nil {
		return repositories.PerformanceTotals{}, apperrors.NewInternalError("failed to load performance totals", err)
	}
	return totals, nil
}

// QueryAverages returns per-query average response times, slowest first
func (a *SearchAnalyticsAdapter) QueryAverages(ctx context.Context, from, to time.Time, limit int) ([]entities.QueryPerformance, error) {
	const query = `
		SELECT query,
		       AVG(response_time_ms) AS avg_response_time_ms,
		       COUNT(*) AS samples
		FROM search_performance_samples
		WHERE created_at >= $1 AND created_at < $2 AND query <> ''
		GROUP BY query
		ORDER BY avg_response_time_ms DESC
		LIMIT $3
	`

	averages := []entities.QueryPerformance{}
	if err := a.db.SelectContext(ctx, &averages, query, from, to, limit); err != nil {
		return nil, apperrors.NewInternalError("failed to load query averages", err)
	}
	return averages, nil
}

// UserTotals returns aggregates over searches that carry a user id
func (a *SearchAnalyticsAdapter) UserTotals(ctx context.Context, from, to time.Time) (repositories.UserTotals, error) {
	const query = `
		SELECT COUNT(DISTINCT user_id) AS unique_users,
		       COUNT(*) AS recorded_searches
		FROM search_queries
		WHERE created_at >= $1 AND created_at < $2 AND user_id IS NOT NULL
	`

	var totals repositories.UserTotals
	if err := a.db.GetContext(ctx, &totals, query, from, to); err != nil {
		return repositories.UserTotals{}, apperrors.NewInternalError("failed to load user totals", err)
	}
	return totals, nil
}

// TopUsers returns the users with the most searches in the window
func (a *SearchAnalyticsAdapter) TopUsers(ctx context.Context, from, to time.Time, limit int) ([]entities.UserSearchCount, error) {
	const query = `
		SELECT user_id, COUNT(*) AS search_count
		FROM search_queries
		WHERE created_at >= $1 AND created_at < $2 AND user_id IS NOT NULL
		GROUP BY user_id
		ORDER BY search_count DESC, user_id ASC
		LIMIT $3
	`

	users := []entities.UserSearchCount{}
	if err := a.db.SelectContext(ctx, &users, query, from, to, limit); err != nil {
		return nil, apperrors.NewInternalError("failed to load top users", err)
	}
	return users, nil
}

// DeleteOlderThan removes records created before the cutoff from both tables
func (a *SearchAnalyticsAdapter) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	res, err := a.db.ExecContext(ctx, `DELETE FROM search_queries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to prune search queries", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		deleted += n
	}

	res, err = a.db.ExecContext(ctx, `DELETE FROM search_performance_samples WHERE created_at < $1`, cutoff)
	if err != nil {
		return deleted, apperrors.NewInternalError("failed to prune performance samples", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		deleted += n
	}

	return deleted, nil
}
