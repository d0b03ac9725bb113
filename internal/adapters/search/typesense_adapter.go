package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	tsclient "github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/typesense"
)

const listingsCollection = "listings"

// TypesenseAdapter implements listing search using Typesense. Documents
// carry only the fields needed for matching and ranking; hits are returned
// as IDs and hydrated from the primary store.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ListingSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the listings collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(listingsCollection).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: listingsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "type", Type: "string", Facet: pointer.True()},
			{Name: "name", Type: "string"},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "location", Type: "string", Optional: pointer.True()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "base_price", Type: "float"},
			{Name: "rating", Type: "float"},
			{Name: "review_count", Type: "int32"},
			{Name: "is_active", Type: "bool"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a listing document. Numeric fields default to zero so the
// collection stays sortable on them.
func (a *TypesenseAdapter) Index(ctx context.Context, listing *entities.Listing) error {
	document := map[string]interface{}{
		"id":           listing.ID,
		"type":         string(listing.Type),
		"name":         listing.Name,
		"category":     strings.ToLower(listing.Category),
		"base_price":   0.0,
		"rating":       0.0,
		"review_count": 0,
		"is_active":    listing.IsActive,
		"created_at":   listing.CreatedAt.Unix(),
	}
	if listing.Description != nil {
		document["description"] = *listing.Description
	}
	if listing.Location != nil {
		document["location"] = *listing.Location
	}
	if len(listing.Tags) > 0 {
		document["tags"] = listing.Tags
	}
	if listing.BasePrice != nil {
		document["base_price"] = *listing.BasePrice
	}
	if listing.Rating != nil {
		document["rating"] = *listing.Rating
	}
	if listing.ReviewCount != nil {
		document["review_count"] = *listing.ReviewCount
	}

	_, err := a.client.Client().Collection(listingsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index listing: %w", err)
	}

	return nil
}

// Delete removes a listing from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(listingsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete listing from index: %w", err)
	}
	return nil
}

// Reset drops the listings collection so the next InitSchema starts clean
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	_, err := a.client.Client().Collection(listingsCollection).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop listings collection: %w", err)
	}
	return nil
}

// Search runs a filtered full-text query and returns matching listing IDs
// with the total hit count.
func (a *TypesenseAdapter) Search(ctx context.Context, query repositories.ListingQuery) ([]string, int, error) {
	filters := []string{"is_active:=true"}
	if query.Category != nil {
		filters = append(filters, fmt.Sprintf("category:=`%s`", escapeFilterValue(strings.ToLower(*query.Category))))
	}
	if query.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("base_price:>=%f", *query.MinPrice))
	}
	if query.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("base_price:<=%f", *query.MaxPrice))
	}
	if query.MinRating != nil {
		filters = append(filters, fmt.Sprintf("rating:>=%f", *query.MinRating))
	}

	q := "*"
	if query.Text != "" {
		q = query.Text
	}

	page := 1
	if query.Limit > 0 {
		page = query.Offset/query.Limit + 1
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(q),
		QueryBy:  pointer.String("name,description,category,location,tags"),
		FilterBy: pointer.String(strings.Join(filters, " && ")),
		Page:     pointer.Int(page),
		PerPage:  pointer.Int(query.Limit),
	}
	if sortBy := sortExpression(query.SortBy); sortBy != "" {
		searchParams.SortBy = pointer.String(sortBy)
	}

	result, err := a.client.Client().Collection(listingsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search listings: %w", err)
	}

	ids := []string{}
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			doc := *hit.Document
			if id, ok := doc["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}

	total := 0
	if result.Found != nil {
		total = int(*result.Found)
	}

	return ids, total, nil
}

// sortExpression maps a sort option to a Typesense sort_by clause. An empty
// return leaves Typesense relevance ordering in place.
func sortExpression(sortBy entities.SortOption) string {
	switch sortBy {
	case entities.SortPriceLow:
		return "base_price:asc"
	case entities.SortPriceHigh:
		return "base_price:desc"
	case entities.SortRating:
		return "rating:desc,review_count:desc"
	case entities.SortPopularity:
		return "review_count:desc,rating:desc"
	default:
		return ""
	}
}

// escapeFilterValue strips characters that would break out of a backtick
// quoted filter_by value.
func escapeFilterValue(v string) string {
	return strings.NewReplacer("`", "", "\\", "").Replace(v)
}
