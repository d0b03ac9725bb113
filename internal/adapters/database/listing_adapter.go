package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/postgres"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
)

// listingColumns is the outer select list shared by every read path.
// Order must match scanListing.
var listingColumns = []interface{}{
	"id", "type", "name", "description", "images", "rating", "review_count",
	"base_price", "location", "category", "tags", "is_active",
	"created_at", "updated_at", "provider_id", "provider_name", "provider_verified",
}

// ListingAdapter implements ListingRepository backed by PostgreSQL
type ListingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.ListingRepository = (*ListingAdapter)(nil)

// NewListingAdapter creates a new listing adapter
func NewListingAdapter(client *postgres.Client) *ListingAdapter {
	return &ListingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// selectListings builds the joined select over listings and providers
func (a *ListingAdapter) selectListings() *goqu.SelectDataset {
	return a.db.Select(
		goqu.I("l.id"), goqu.I("l.type"), goqu.I("l.name"), goqu.I("l.description"),
		goqu.I("l.images"), goqu.I("l.rating"), goqu.I("l.review_count"),
		goqu.I("l.base_price"), goqu.I("l.location"), goqu.I("l.category"),
		goqu.I("l.tags"), goqu.I("l.is_active"), goqu.I("l.created_at"), goqu.I("l.updated_at"),
		goqu.I("p.id").As("provider_id"),
		goqu.I("p.name").As("provider_name"),
		goqu.I("p.is_verified").As("provider_verified"),
	).
		From(goqu.T("listings").As("l")).
		Join(goqu.T("providers").As("p"), goqu.On(goqu.I("l.provider_id").Eq(goqu.I("p.id"))))
}

// Create creates a new listing
func (a *ListingAdapter) Create(ctx context.Context, listing *entities.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	insertSQL, args, err := a.db.Insert("listings").Rows(goqu.Record{
		"id":           listing.ID,
		"type":         listing.Type,
		"name":         listing.Name,
		"description":  listing.Description,
		"images":       pq.Array(listing.Images),
		"rating":       listing.Rating,
		"review_count": listing.ReviewCount,
		"base_price":   listing.BasePrice,
		"location":     listing.Location,
		"category":     listing.Category,
		"tags":         pq.Array(listing.Tags),
		"provider_id":  listing.Provider.ID,
		"is_active":    listing.IsActive,
		"created_at":   listing.CreatedAt,
		"updated_at":   listing.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build listing insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, insertSQL, args...); err != nil {
		return apperrors.NewInternalError("failed to create listing", err)
	}
	return nil
}

// GetByID retrieves a listing by ID
func (a *ListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	querySQL, args, err := a.selectListings().Where(goqu.I("l.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build listing query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get listing", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperrors.NewInternalError("failed to get listing", err)
		}
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing not found: %s", id))
	}

	listing, err := scanListing(rows)
	if err != nil {
		return nil, err
	}
	return listing, rows.Err()
}

// GetByIDs retrieves multiple listings by their IDs
func (a *ListingAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	if len(ids) == 0 {
		return []*entities.Listing{}, nil
	}

	querySQL, args, err := a.selectListings().Where(goqu.Ex{"l.id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build listings query", err)
	}

	return a.queryListings(ctx, querySQL, args)
}

// List retrieves listings with filters, newest first
func (a *ListingAdapter) List(ctx context.Context, filter repositories.ListingFilter) ([]*entities.Listing, error) {
	query := a.selectListings()

	if filter.Category != "" {
		query = query.Where(goqu.I("l.category").ILike(filter.Category))
	}
	if filter.Type != "" {
		query = query.Where(goqu.I("l.type").Eq(filter.Type))
	}
	if filter.IsActive != nil {
		query = query.Where(goqu.I("l.is_active").Eq(*filter.IsActive))
	}

	query = query.Order(goqu.I("l.created_at").Desc())
	if filter.Limit > 0 {
		query = query.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint(filter.Offset))
	}

	querySQL, args, err := query.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build listings query", err)
	}

	return a.queryListings(ctx, querySQL, args)
}

// SearchWithCount filters the entire active catalog first, counts the
// matches, then sorts and applies pagination last. A page past the end
// is not an error; it just comes back empty.
func (a *ListingAdapter) SearchWithCount(ctx context.Context, query repositories.ListingQuery) ([]*entities.Listing, int, error) {
	baseQuery := a.db.From(
		a.selectListings().
			Where(goqu.I("l.is_active").Eq(true)).
			As("base_data"),
	)

	filteredQuery := baseQuery

	if query.Category != nil && *query.Category != "" {
		filteredQuery = filteredQuery.Where(goqu.I("category").ILike(*query.Category))
	}
	if query.Location != nil && *query.Location != "" {
		filteredQuery = filteredQuery.Where(goqu.I("location").ILike(fmt.Sprintf("%%%s%%", *query.Location)))
	}
	if query.MinPrice != nil {
		filteredQuery = filteredQuery.Where(goqu.I("base_price").Gte(*query.MinPrice))
	}
	if query.MaxPrice != nil {
		filteredQuery = filteredQuery.Where(goqu.I("base_price").Lte(*query.MaxPrice))
	}
	if query.MinRating != nil {
		filteredQuery = filteredQuery.Where(goqu.I("rating").Gte(*query.MinRating))
	}

	if query.Text != "" {
		searchPattern := fmt.Sprintf("%%%s%%", query.Text)

		orConditions := []goqu.Expression{
			goqu.I("name").ILike(searchPattern),
			goqu.I("description").ILike(searchPattern),
			goqu.I("category").ILike(searchPattern),
			goqu.I("location").ILike(searchPattern),
		}
		if len(query.Terms) > 0 {
			orConditions = append(orConditions, goqu.L("tags && ?", pq.Array(query.Terms)))
		}

		filteredQuery = filteredQuery.Where(goqu.Or(orConditions...))
	}

	countSQL, countArgs, err := filteredQuery.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var totalCount int
	if err := a.client.DB().QueryRowContext(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count matching listings", err)
	}

	sortedQuery := filteredQuery.Select(listingColumns...)

	switch query.SortBy {
	case entities.SortPriceLow:
		sortedQuery = sortedQuery.Order(goqu.I("base_price").Asc(), goqu.I("created_at").Desc())
	case entities.SortPriceHigh:
		sortedQuery = sortedQuery.Order(goqu.I("base_price").Desc().NullsLast(), goqu.I("created_at").Desc())
	case entities.SortRating:
		sortedQuery = sortedQuery.Order(goqu.I("rating").Desc().NullsLast(), goqu.I("created_at").Desc())
	default:
		// popularity; distance has no coordinates to work with and
		// falls back to the same ordering
		sortedQuery = sortedQuery.Order(
			goqu.I("review_count").Desc().NullsLast(),
			goqu.I("rating").Desc().NullsLast(),
			goqu.I("created_at").Desc(),
		)
	}

	if query.Limit > 0 {
		sortedQuery = sortedQuery.Limit(uint(query.Limit))
	}
	if query.Offset > 0 {
		sortedQuery = sortedQuery.Offset(uint(query.Offset))
	}

	finalSQL, finalArgs, err := sortedQuery.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build search query", err)
	}

	listings, err := a.queryListings(ctx, finalSQL, finalArgs)
	if err != nil {
		return nil, 0, err
	}

	return listings, totalCount, nil
}

// ListCategories returns the distinct categories of active listings
func (a *ListingAdapter) ListCategories(ctx context.Context) ([]string, error) {
	querySQL, args, err := a.db.From("listings").
		Select(goqu.DISTINCT("category")).
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("category").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build categories query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list categories", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating categories", err)
	}

	return categories, nil
}

func (a *ListingAdapter) queryListings(ctx context.Context, querySQL string, args []interface{}) ([]*entities.Listing, error) {
	rows, err := a.client.DB().QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query listings", err)
	}
	defer rows.Close()

	listings := []*entities.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating listings", err)
	}

	return listings, nil
}

// scanListing reads one row in listingColumns order
func scanListing(rows *sql.Rows) (*entities.Listing, error) {
	listing := &entities.Listing{}
	var (
		description sql.NullString
		location    sql.NullString
		rating      sql.NullFloat64
		basePrice   sql.NullFloat64
		reviewCount sql.NullInt64
		verified    sql.NullBool
		images      []string
		tags        []string
	)

	err := rows.Scan(
		&listing.ID, &listing.Type, &listing.Name, &description,
		pq.Array(&images), &rating, &reviewCount, &basePrice,
		&location, &listing.Category, pq.Array(&tags), &listing.IsActive,
		&listing.CreatedAt, &listing.UpdatedAt,
		&listing.Provider.ID, &listing.Provider.Name, &verified,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan listing", err)
	}

	listing.Images = images
	listing.Tags = tags
	if description.Valid {
		listing.Description = &description.String
	}
	if location.Valid {
		listing.Location = &location.String
	}
	if rating.Valid {
		listing.Rating = &rating.Float64
	}
	if basePrice.Valid {
		listing.BasePrice = &basePrice.Float64
	}
	if reviewCount.Valid {
		count := int(reviewCount.Int64)
		listing.ReviewCount = &count
	}
	if verified.Valid {
		listing.Provider.IsVerified = &verified.Bool
	}

	return listing, nil
}
