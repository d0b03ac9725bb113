package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/clients/postgres"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
)

// listingTestColumns mirrors listingColumns; row construction must keep
// the same order
var listingTestColumns = []string{
	"id", "type", "name", "description", "images", "rating", "review_count",
	"base_price", "location", "category", "tags", "is_active",
	"created_at", "updated_at", "provider_id", "provider_name", "provider_verified",
}

func setupListingAdapter(t *testing.T) (*ListingAdapter, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewListingAdapter(postgres.NewClientFromDB(mockDB)), mock
}

func venueRow(rows *sqlmock.Rows, id, name string, at time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, "service", name, "Panoramic reception hall", "{hall1.jpg,hall2.jpg}",
		4.7, 124, 5200.0, "Sousse", "venues", "{wedding,beach}", true,
		at, at, "prov_1", "Dar El Afrah Events", true,
	)
}

func TestListingAdapter_GetByID(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM "listings" AS "l" INNER JOIN "providers" AS "p" .+ "l"\."id" = 'lst_1'`).
		WillReturnRows(venueRow(sqlmock.NewRows(listingTestColumns), "lst_1", "Sea View Wedding Hall", now))

	listing, err := adapter.GetByID(context.Background(), "lst_1")
	require.NoError(t, err)

	assert.Equal(t, "lst_1", listing.ID)
	assert.Equal(t, entities.ListingTypeService, listing.Type)
	assert.Equal(t, "Sea View Wedding Hall", listing.Name)
	require.NotNil(t, listing.Description)
	assert.Equal(t, "Panoramic reception hall", *listing.Description)
	assert.Equal(t, []string{"hall1.jpg", "hall2.jpg"}, listing.Images)
	require.NotNil(t, listing.Rating)
	assert.InDelta(t, 4.7, *listing.Rating, 0.001)
	require.NotNil(t, listing.ReviewCount)
	assert.Equal(t, 124, *listing.ReviewCount)
	require.NotNil(t, listing.BasePrice)
	assert.InDelta(t, 5200.0, *listing.BasePrice, 0.001)
	require.NotNil(t, listing.Location)
	assert.Equal(t, "Sousse", *listing.Location)
	assert.Equal(t, "venues", listing.Category)
	assert.Equal(t, []string{"wedding", "beach"}, listing.Tags)
	assert.True(t, listing.IsActive)
	assert.Equal(t, "prov_1", listing.Provider.ID)
	assert.Equal(t, "Dar El Afrah Events", listing.Provider.Name)
	require.NotNil(t, listing.Provider.IsVerified)
	assert.True(t, *listing.Provider.IsVerified)
}

func TestListingAdapter_GetByID_NotFound(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "listings"`).
		WillReturnRows(sqlmock.NewRows(listingTestColumns))

	listing, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, listing)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
	assert.Contains(t, appErr.Message, "missing")
}

func TestListingAdapter_GetByIDs_EmptyInput(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	listings, err := adapter.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.NotNil(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_Create_BackfillsIDAndTimestamps(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	mock.ExpectExec(`INSERT INTO "listings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	listing := &entities.Listing{
		Type:     entities.ListingTypeService,
		Name:     "Full Wedding Buffet",
		Category: "catering",
		Provider: entities.ListingProvider{ID: "prov_2"},
		IsActive: true,
	}

	require.NoError(t, adapter.Create(context.Background(), listing))
	assert.NotEmpty(t, listing.ID)
	assert.False(t, listing.CreatedAt.IsZero())
	assert.False(t, listing.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_List_AppliesFiltersNewestFirst(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := venueRow(sqlmock.NewRows(listingTestColumns), "lst_1", "Sea View Wedding Hall", now)
	rows = venueRow(rows, "lst_2", "Hammamet Garden Pavilion", now.Add(-time.Hour))

	mock.ExpectQuery(`"l"\."category" ILIKE 'venues'.+ORDER BY "l"\."created_at" DESC LIMIT 2`).
		WillReturnRows(rows)

	active := true
	listings, err := adapter.List(context.Background(), repositories.ListingFilter{
		Category: "venues",
		IsActive: &active,
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "Sea View Wedding Hall", listings[0].Name)
	assert.Equal(t, "Hammamet Garden Pavilion", listings[1].Name)
}

func TestListingAdapter_List_WrapsQueryError(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "listings"`).WillReturnError(assert.AnError)

	_, err := adapter.List(context.Background(), repositories.ListingFilter{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
}

func TestListingAdapter_SearchWithCount_TextMatchesAcrossFields(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT.+"name" ILIKE '%beach%'.+"location" ILIKE '%beach%'.+tags && '\{beach\}'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := venueRow(sqlmock.NewRows(listingTestColumns), "lst_1", "Sea View Wedding Hall", now)
	rows = venueRow(rows, "lst_2", "Hammamet Garden Pavilion", now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT "id", "type".+"name" ILIKE '%beach%'`).
		WillReturnRows(rows)

	listings, total, err := adapter.SearchWithCount(context.Background(), repositories.ListingQuery{
		Text:  "beach",
		Terms: []string{"beach"},
		Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, listings, 2)
	assert.Equal(t, "Sea View Wedding Hall", listings[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_SearchWithCount_FiltersApplyToCount(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	mock.ExpectQuery(`SELECT COUNT.+"category" ILIKE 'venues'.+"base_price" >= 100.+"base_price" <= 5000.+"rating" >= 4`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT "id", "type"`).
		WillReturnRows(sqlmock.NewRows(listingTestColumns))

	category := "venues"
	minPrice := 100.0
	maxPrice := 5000.0
	minRating := 4.0
	listings, total, err := adapter.SearchWithCount(context.Background(), repositories.ListingQuery{
		Category:  &category,
		MinPrice:  &minPrice,
		MaxPrice:  &maxPrice,
		MinRating: &minRating,
		Limit:     20,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_SearchWithCount_SortVariants(t *testing.T) {
	cases := []struct {
		name     string
		sortBy   entities.SortOption
		orderSQL string
	}{
		{"price_low", entities.SortPriceLow, `ORDER BY "base_price" ASC, "created_at" DESC`},
		{"price_high", entities.SortPriceHigh, `ORDER BY "base_price" DESC NULLS LAST, "created_at" DESC`},
		{"rating", entities.SortRating, `ORDER BY "rating" DESC NULLS LAST, "created_at" DESC`},
		{"popularity", entities.SortPopularity, `ORDER BY "review_count" DESC NULLS LAST, "rating" DESC NULLS LAST, "created_at" DESC`},
		{"distance_falls_back", entities.SortDistance, `ORDER BY "review_count" DESC NULLS LAST, "rating" DESC NULLS LAST, "created_at" DESC`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock := setupListingAdapter(t)

			mock.ExpectQuery("SELECT COUNT").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			mock.ExpectQuery(tc.orderSQL).
				WillReturnRows(sqlmock.NewRows(listingTestColumns))

			_, _, err := adapter.SearchWithCount(context.Background(), repositories.ListingQuery{
				SortBy: tc.sortBy,
				Limit:  20,
			})
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListingAdapter_SearchWithCount_PagePastEnd(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`LIMIT 20 OFFSET 100`).
		WillReturnRows(sqlmock.NewRows(listingTestColumns))

	listings, total, err := adapter.SearchWithCount(context.Background(), repositories.ListingQuery{
		Limit:  20,
		Offset: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, listings)
}

func TestListingAdapter_ListCategories(t *testing.T) {
	adapter, mock := setupListingAdapter(t)

	mock.ExpectQuery("SELECT DISTINCT").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).
			AddRow("catering").
			AddRow("decoration").
			AddRow("venues"))

	categories, err := adapter.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"catering", "decoration", "venues"}, categories)
}
