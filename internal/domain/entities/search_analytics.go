package entities

// PopularQuery is a query text with how often it was searched
type PopularQuery struct {
	Query string `json:"query" db:"query"`
	Count int    `json:"count" db:"count"`
}

// TrendingCategory is a category filter value with how often it was used
type TrendingCategory struct {
	Category string `json:"category" db:"category"`
	Count    int    `json:"count" db:"count"`
}

// QueryPerformance is the aggregated timing profile of one query text
type QueryPerformance struct {
	Query               string  `json:"query" db:"query"`
	AverageResponseTime float64 `json:"averageResponseTime" db:"avg_response_time_ms"`
	Samples             int     `json:"samples" db:"samples"`
}

// UserSearchCount is a user with their search volume over a window
type UserSearchCount struct {
	UserID      string `json:"userId" db:"user_id"`
	SearchCount int    `json:"searchCount" db:"search_count"`
}

// PerformanceMetrics summarizes search latency over a window.
// CacheHitRate is a percentage in [0, 100].
type PerformanceMetrics struct {
	AverageResponseTime float64            `json:"averageResponseTime"`
	CacheHitRate        float64            `json:"cacheHitRate"`
	TotalSearches       int                `json:"totalSearches"`
	SlowQueries         []QueryPerformance `json:"slowQueries"`
	PopularQueries      []PopularQuery     `json:"popularQueries"`
	EmptyResultQueries  []PopularQuery     `json:"emptyResultQueries"`
}

// SearchMetrics summarizes search volume over a date range
type SearchMetrics struct {
	TotalSearches           int                `json:"totalSearches"`
	UniqueQueries           int                `json:"uniqueQueries"`
	PopularQueries          []PopularQuery     `json:"popularQueries"`
	AverageResultsPerSearch float64            `json:"averageResultsPerSearch"`
	SearchesWithNoResults   int                `json:"searchesWithNoResults"`
	PerformanceMetrics      PerformanceMetrics `json:"performanceMetrics"`
}

// EmptySearchAnalytics summarizes searches that returned nothing.
// EmptySearchRate is a percentage of all searches in the window.
type EmptySearchAnalytics struct {
	TotalEmptySearches int            `json:"totalEmptySearches"`
	EmptySearchRate    float64        `json:"emptySearchRate"`
	CommonEmptyQueries []PopularQuery `json:"commonEmptyQueries"`
}

// UserSearchBehavior summarizes per-user search activity. Anonymous
// searches carry no user id and are excluded entirely.
type UserSearchBehavior struct {
	UniqueUsers            int               `json:"uniqueUsers"`
	AverageSearchesPerUser float64           `json:"averageSearchesPerUser"`
	TopSearchingUsers      []UserSearchCount `json:"topSearchingUsers"`
}
