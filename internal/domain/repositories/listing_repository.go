package repositories

import (
	"context"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
)

// ListingRepository defines the interface for catalog data operations
type ListingRepository interface {
	// Create creates a new listing
	Create(ctx context.Context, listing *entities.Listing) error

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, id string) (*entities.Listing, error)

	// GetByIDs retrieves multiple listings by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error)

	// List retrieves listings with filters
	List(ctx context.Context, filter ListingFilter) ([]*entities.Listing, error)

	// SearchWithCount runs a filtered search over active listings and
	// returns one page plus the total match count before pagination
	SearchWithCount(ctx context.Context, query ListingQuery) ([]*entities.Listing, int, error)

	// ListCategories returns the distinct categories of active listings
	ListCategories(ctx context.Context) ([]string, error)
}

// ListingSearchRepository defines the interface for the external search
// index (e.g. Typesense). Search returns listing IDs in ranked order so
// full rows can be hydrated from the catalog.
type ListingSearchRepository interface {
	// InitSchema creates the index collection when missing
	InitSchema(ctx context.Context) error

	// Index upserts a listing document
	Index(ctx context.Context, listing *entities.Listing) error

	// Delete removes a listing from the index
	Delete(ctx context.Context, id string) error

	// Search returns matching listing IDs and the total match count
	Search(ctx context.Context, query ListingQuery) ([]string, int, error)
}

// ListingFilter defines filters for listing the catalog
type ListingFilter struct {
	Category string
	Type     string
	IsActive *bool
	Limit    int
	Offset   int
}

// ListingQuery defines parameters for searching the catalog. Text is
// the normalized free-text query; Terms are its individual tokens used
// for tag matching. All constraints combine with AND.
type ListingQuery struct {
	Text      string
	Terms     []string
	Location  *string
	Category  *string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	SortBy    entities.SortOption
	Limit     int
	Offset    int
}
