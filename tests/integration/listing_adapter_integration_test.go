//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/adapters/database"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
)

const testProviderID = "11111111-1111-1111-1111-111111111111"

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func seedTestListings(t *testing.T, adapter *database.ListingAdapter) (venueID, cateringID string) {
	t.Helper()

	ctx := context.Background()

	venue := &entities.Listing{
		Type:        entities.ListingTypeService,
		Name:        "Sea View Wedding Hall",
		Description: strPtr("Panoramic reception hall on the beach"),
		Images:      []string{"hall1.jpg", "hall2.jpg"},
		Rating:      floatPtr(4.7),
		ReviewCount: intPtr(124),
		BasePrice:   floatPtr(5200),
		Location:    strPtr("Sousse"),
		Category:    "venues",
		Tags:        []string{"wedding", "beach"},
		Provider:    entities.ListingProvider{ID: testProviderID},
		IsActive:    true,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, adapter.Create(ctx, venue))

	catering := &entities.Listing{
		Type:        entities.ListingTypeService,
		Name:        "Full Wedding Buffet",
		Description: strPtr("Per guest buffet with live cooking stations"),
		Rating:      floatPtr(4.5),
		ReviewCount: intPtr(61),
		BasePrice:   floatPtr(38),
		Location:    strPtr("Tunis"),
		Category:    "catering",
		Tags:        []string{"wedding", "buffet"},
		Provider:    entities.ListingProvider{ID: testProviderID},
		IsActive:    true,
	}
	require.NoError(t, adapter.Create(ctx, catering))

	retired := &entities.Listing{
		Type:      entities.ListingTypeService,
		Name:      "Retired Beach Venue",
		BasePrice: floatPtr(3000),
		Location:  strPtr("Djerba"),
		Category:  "venues",
		Tags:      []string{"beach"},
		Provider:  entities.ListingProvider{ID: testProviderID},
		IsActive:  false,
	}
	require.NoError(t, adapter.Create(ctx, retired))

	return venue.ID, catering.ID
}

func TestListingAdapterPostgres(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	client := newTestPostgresClient(t)
	defer client.Close()

	db := client.DB()
	createCatalogSchema(t, db)
	truncateCatalog(t, db)
	seedTestProvider(t, db, testProviderID, "Dar El Afrah Events")

	adapter := database.NewListingAdapter(client)
	venueID, cateringID := seedTestListings(t, adapter)
	ctx := context.Background()

	t.Run("GetByID round trip", func(t *testing.T) {
		listing, err := adapter.GetByID(ctx, venueID)
		require.NoError(t, err)

		assert.Equal(t, "Sea View Wedding Hall", listing.Name)
		require.NotNil(t, listing.Description)
		assert.Equal(t, "Panoramic reception hall on the beach", *listing.Description)
		assert.Equal(t, []string{"hall1.jpg", "hall2.jpg"}, listing.Images)
		require.NotNil(t, listing.BasePrice)
		assert.InDelta(t, 5200, *listing.BasePrice, 0.001)
		assert.Equal(t, []string{"wedding", "beach"}, listing.Tags)
		assert.Equal(t, "Dar El Afrah Events", listing.Provider.Name)
		require.NotNil(t, listing.Provider.IsVerified)
		assert.True(t, *listing.Provider.IsVerified)
	})

	t.Run("GetByID missing", func(t *testing.T) {
		_, err := adapter.GetByID(ctx, "22222222-2222-2222-2222-222222222222")
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
	})

	t.Run("GetByIDs preserves matches", func(t *testing.T) {
		listings, err := adapter.GetByIDs(ctx, []string{venueID, cateringID})
		require.NoError(t, err)
		assert.Len(t, listings, 2)
	})

	t.Run("text search skips inactive listings", func(t *testing.T) {
		listings, total, err := adapter.SearchWithCount(ctx, repositories.ListingQuery{
			Text:  "beach",
			Terms: []string{"beach"},
			Limit: 20,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, listings, 1)
		assert.Equal(t, "Sea View Wedding Hall", listings[0].Name)
	})

	t.Run("category filter", func(t *testing.T) {
		category := "CATERING"
		listings, total, err := adapter.SearchWithCount(ctx, repositories.ListingQuery{
			Category: &category,
			Limit:    20,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, listings, 1)
		assert.Equal(t, "Full Wedding Buffet", listings[0].Name)
	})

	t.Run("price sort", func(t *testing.T) {
		listings, _, err := adapter.SearchWithCount(ctx, repositories.ListingQuery{
			SortBy: entities.SortPriceLow,
			Limit:  20,
		})
		require.NoError(t, err)
		require.Len(t, listings, 2)
		assert.Equal(t, "Full Wedding Buffet", listings[0].Name)
		assert.Equal(t, "Sea View Wedding Hall", listings[1].Name)
	})

	t.Run("page past end", func(t *testing.T) {
		listings, total, err := adapter.SearchWithCount(ctx, repositories.ListingQuery{
			Limit:  20,
			Offset: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Empty(t, listings)
	})

	t.Run("categories of active listings", func(t *testing.T) {
		categories, err := adapter.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"catering", "venues"}, categories)
	})

	t.Run("list inactive via filter", func(t *testing.T) {
		inactive := false
		listings, err := adapter.List(ctx, repositories.ListingFilter{IsActive: &inactive})
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Retired Beach Venue", listings[0].Name)
	})

	truncateCatalog(t, db)
}
