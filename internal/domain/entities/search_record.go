package entities

import (
	"time"
)

// SearchQueryRecord is one persisted search request: what was asked for
// and how many results came back. Rows are append-only; nothing updates
// them after insert.
type SearchQueryRecord struct {
	ID          string        `json:"id" db:"id"`
	Query       string        `json:"query" db:"query"`
	Filters     SearchFilters `json:"filters" db:"-"`
	ResultCount int           `json:"result_count" db:"result_count"`
	UserID      *string       `json:"user_id,omitempty" db:"user_id"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// SearchPerformanceRecord is one timing sample for a search request.
// FromCache marks responses served from the result cache.
type SearchPerformanceRecord struct {
	ID             string    `json:"id" db:"id"`
	Query          string    `json:"query" db:"query"`
	ResponseTimeMs float64   `json:"response_time_ms" db:"response_time_ms"`
	ResultCount    int       `json:"result_count" db:"result_count"`
	FromCache      bool      `json:"from_cache" db:"from_cache"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
