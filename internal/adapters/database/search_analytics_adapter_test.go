package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
)

func setupAnalyticsAdapter(t *testing.T) (*SearchAnalyticsAdapter, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	adapter := &SearchAnalyticsAdapter{db: sqlx.NewDb(mockDB, "postgres")}
	return adapter, mock
}

func TestInsertQueryRecord_BackfillsIDAndTimestamp(t *testing.T) {
	adapter, mock := setupAnalyticsAdapter(t)

	mock.ExpectExec("INSERT INTO search_queries").
		WithArgs(sqlmock.AnyArg(), "wedding venues", sqlmock.AnyArg(), 12, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &entities.SearchQueryRecord{
		Query:       "wedding venues",
		ResultCount: 12,
	}

	err := adapter.InsertQueryRecord(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertQueryRecord_WithUser(t *testing.T) {
	adapter, mock := setupAnalyticsAdapter(t)

	userID := "user-42"
	mock.ExpectExec("INSERT INTO search_queries").
		WithArgs(sqlmock.AnyArg(), "catering", sqlmock.AnyArg(), 3, userID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &entities.SearchQueryRecord{
		Query:       "catering",
		ResultCount: 3,
		UserID:      &userID,
	}

	require.NoError(t, adapter.InsertQueryRecord(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPerformanceRecord_WrapsStoreError(t *testing.T) {
	adapter, mock := setupAnalyticsAdapter(t)

	mock.ExpectExec("INSERT INTO search_performance_samples").
		WillReturnError(assert.AnError)

	err := adapter.InsertPerformanceRecord(context.Background(), &entities.SearchPerformanceRecord{
		Query:          "dj",
		ResponseTimeMs: 42,
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
}

func TestTopQueries(t *testing.T) {
	adapter, mock := setupAnalyticsAdapter(t)

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now()

	mock.ExpectQuery("SELECT query, COUNT").
		WithArgs(from, to, 20).
		WillReturnRows(sqlmock.NewRows([]string{"query", "count"}).
			AddRow("wedding venues", 42).
			AddRow("photographe", 17))

	queries, err := adapter.TopQueries(context.Background(), from, to, 20)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, entities.PopularQuery{Query: "wedding venues", Count: 42}, queries[0])
	assert.Equal(t, entities.PopularQuery{Query: "photographe", Count: 17}, queries[1])
}

func TestQueryTotals(t *testing.T) {
	adapter, mock := setupAnalyticsAdapter(t)

	from := time.Now().AddDate(0, 0, -30)
	to := time.Now()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(
			[]string{"total_searches", "unique_queries", "average_results", "no_result_count"}).
			AddRow(120, 37, 8.5, 14))

	totals, err := adapter.QueryTotals(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 120, totals.TotalSearches)
	assert.Equal(t, 37, totals.UniqueQueries)
	assert.InDelta(t, 8.5, totals.AverageResults, 0.001)
	assert.Equal(t, 14, totals.NoResultCount)
}

func TestQueryAverages(t *testing.T) {
	adapter, mock := setupAnalyticsAdapter(t)

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now()

	mock.ExpectQuery("SELECT query").
		WithArgs(from, to, 100).
		WillReturnRows(sqlmock.NewRows([]string{"query", "avg_response_time_ms", "samples"}).
			AddRow("orchestre", 1200.0, 4).
			AddRow("dj", 80.0, 25))

	averages, err := adapter.QueryAverages(context.Background(), from, to, 100)
	require.NoError(t, err)
	require.Len(t, averages, 2)
	assert.Equal(t, "orchestre", averages[0].Query)
	assert.InDelta(t, 1200.0, averages[0].AverageResponseTime, 0.001)
	assert.Equal(t, 4, averages[0].Samples)
}

func TestDeleteOlderThan_SumsBothTables(t *testing.T) {
	adapter, mock := setupAnalyticsAdapter(t)

	cutoff := time.Now().AddDate(0, 0, -90)

	mock.ExpectExec("DELETE FROM search_queries").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 40))
	mock.ExpectExec("DELETE FROM search_performance_samples").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := adapter.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
