package entities

// SortOption selects the result ordering for a search
type SortOption string

const (
	SortPriceLow   SortOption = "price_low"
	SortPriceHigh  SortOption = "price_high"
	SortRating     SortOption = "rating"
	SortDistance   SortOption = "distance"
	SortPopularity SortOption = "popularity"
)

// PriceRange bounds listing prices. Max of zero means no upper bound.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchFilters carries everything a caller can constrain a search by.
// Nil pointer fields mean the dimension is unconstrained.
type SearchFilters struct {
	Query      string      `json:"query"`
	Location   *string     `json:"location,omitempty"`
	Category   *string     `json:"category,omitempty"`
	PriceRange *PriceRange `json:"priceRange,omitempty"`
	Rating     *float64    `json:"rating,omitempty"`
	SortBy     SortOption  `json:"sortBy,omitempty"`
}

// SearchOptions carries 1-indexed pagination
type SearchOptions struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ResultProvider is the client-facing view of a listing's vendor
type ResultProvider struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

// SearchResultItem is a listing formatted for clients: every optional
// catalog column replaced with a presentation default so consumers never
// see null where they expect a value.
type SearchResultItem struct {
	ID          string         `json:"id"`
	Type        ListingType    `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Images      []string       `json:"images"`
	Rating      float64        `json:"rating"`
	ReviewCount int            `json:"reviewCount"`
	BasePrice   float64        `json:"basePrice"`
	Location    string         `json:"location,omitempty"`
	Category    string         `json:"category"`
	Provider    ResultProvider `json:"provider"`
}

// SearchResponse is one page of formatted results plus pagination
// metadata. Page may point past the last page; it is echoed back as
// requested with an empty result slice rather than treated as an error.
type SearchResponse struct {
	Results    []SearchResultItem `json:"results"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
	HasMore    bool               `json:"hasMore"`
	HasNext    bool               `json:"hasNext"`
	HasPrev    bool               `json:"hasPrev"`
}
