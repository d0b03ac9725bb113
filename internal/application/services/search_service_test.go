package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/application/loaders"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/application/services"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	apperrors "github.com/Silk-Dev/Mounasabat-sub006/pkg/errors"
	"github.com/Silk-Dev/Mounasabat-sub006/tests/mocks"
)

func newSearchService(listingRepo repositories.ListingRepository, searchRepo repositories.ListingSearchRepository, recorder services.SearchRecorder, cache *mocks.MemoryCacheProvider) *services.SearchService {
	resultCache := services.NewSearchResultCache(cache, nil, zerolog.Nop())

	var loader *dataloader.Loader[string, *entities.Listing]
	if searchRepo != nil {
		loader = loaders.NewListingLoader(listingRepo)
	}

	return services.NewSearchService(
		listingRepo,
		searchRepo,
		loader,
		resultCache,
		recorder,
		nil,
		zerolog.Nop(),
		services.SearchSettings{DefaultLimit: 20, ResultTTLSeconds: 300, VolatileTTLSeconds: 120, VolatileCategories: []string{"venues"}},
	)
}

func TestFormatSearchResults_AppliesDefaults(t *testing.T) {
	listings := []*entities.Listing{
		{
			ID:       "l-1",
			Type:     entities.ListingTypeService,
			Name:     "Bare Listing",
			Category: "venues",
			Provider: entities.ListingProvider{ID: "p-1", Name: "Vendor"},
		},
		nil,
	}

	items := services.FormatSearchResults(listings)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "", item.Description)
	assert.Equal(t, 0.0, item.Rating)
	assert.Equal(t, 0, item.ReviewCount)
	assert.Equal(t, 0.0, item.BasePrice)
	assert.Equal(t, "", item.Location)
	assert.False(t, item.Provider.IsVerified)
	assert.NotNil(t, item.Images)
	assert.Empty(t, item.Images)
}

func TestFormatSearchResults_CopiesPresentValues(t *testing.T) {
	description := "A rooftop venue"
	rating := 4.5
	reviews := 120
	price := 2500.0
	location := "Tunis"
	verified := true

	listings := []*entities.Listing{{
		ID:          "l-2",
		Type:        entities.ListingTypeService,
		Name:        "Rooftop",
		Description: &description,
		Images:      []string{"a.jpg"},
		Rating:      &rating,
		ReviewCount: &reviews,
		BasePrice:   &price,
		Location:    &location,
		Category:    "venues",
		Provider:    entities.ListingProvider{ID: "p-2", Name: "Skyline", IsVerified: &verified},
	}}

	items := services.FormatSearchResults(listings)

	require.Len(t, items, 1)
	assert.Equal(t, description, items[0].Description)
	assert.Equal(t, rating, items[0].Rating)
	assert.Equal(t, reviews, items[0].ReviewCount)
	assert.Equal(t, price, items[0].BasePrice)
	assert.Equal(t, location, items[0].Location)
	assert.True(t, items[0].Provider.IsVerified)
}

func TestSearch_EmptyCatalogEchoesRequestedPage(t *testing.T) {
	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("SearchWithCount", mock.Anything, mock.Anything).Return([]*entities.Listing{}, 0, nil)

	service := newSearchService(listingRepo, nil, nil, mocks.NewMemoryCacheProvider())

	response, err := service.Search(context.Background(), entities.SearchFilters{}, entities.SearchOptions{Page: 999, Limit: 1000}, "")

	require.NoError(t, err)
	assert.Empty(t, response.Results)
	assert.NotNil(t, response.Results)
	assert.Equal(t, 0, response.Total)
	assert.Equal(t, 999, response.Page)
	assert.Equal(t, 1000, response.Limit)
	assert.Equal(t, 0, response.TotalPages)
	assert.False(t, response.HasNext)
	assert.False(t, response.HasPrev)
	assert.False(t, response.HasMore)
}

func TestSearch_PaginationMetadata(t *testing.T) {
	listings := []*entities.Listing{{ID: "l-1", Name: "One", Provider: entities.ListingProvider{ID: "p-1"}}}
	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("SearchWithCount", mock.Anything, mock.Anything).Return(listings, 45, nil)

	service := newSearchService(listingRepo, nil, nil, mocks.NewMemoryCacheProvider())

	response, err := service.Search(context.Background(), entities.SearchFilters{}, entities.SearchOptions{Page: 2, Limit: 20}, "")

	require.NoError(t, err)
	assert.Equal(t, 45, response.Total)
	assert.Equal(t, 3, response.TotalPages)
	assert.True(t, response.HasNext)
	assert.True(t, response.HasMore)
	assert.True(t, response.HasPrev)
}

func TestSearch_IdenticalSearchesShareOneCacheEntryAcrossUsers(t *testing.T) {
	listings := []*entities.Listing{{ID: "l-1", Name: "Venue", Provider: entities.ListingProvider{ID: "p-1"}}}
	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("SearchWithCount", mock.Anything, mock.Anything).Return(listings, 1, nil)

	cache := mocks.NewMemoryCacheProvider()
	service := newSearchService(listingRepo, nil, nil, cache)

	filters := entities.SearchFilters{Query: "wedding venues"}
	opts := entities.SearchOptions{Page: 1, Limit: 20}

	first, err := service.Search(context.Background(), filters, opts, "user-alice")
	require.NoError(t, err)

	// the cache write is asynchronous
	require.Eventually(t, func() bool { return cache.Len() > 0 }, time.Second, 5*time.Millisecond)

	second, err := service.Search(context.Background(), filters, opts, "user-bob")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	listingRepo.AssertNumberOfCalls(t, "SearchWithCount", 1)
}

func TestSearch_CatalogFailureSurfacesAsInternalError(t *testing.T) {
	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("SearchWithCount", mock.Anything, mock.Anything).Return(nil, 0, errors.New("connection reset"))

	service := newSearchService(listingRepo, nil, nil, mocks.NewMemoryCacheProvider())

	_, err := service.Search(context.Background(), entities.SearchFilters{Query: "venues"}, entities.SearchOptions{}, "")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
}

func TestSearch_FailingRecorderNeverAffectsResponses(t *testing.T) {
	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("SearchWithCount", mock.Anything, mock.Anything).Return([]*entities.Listing{}, 0, nil)

	analyticsRepo := new(mocks.MockSearchAnalyticsRepository)
	analyticsRepo.On("InsertQueryRecord", mock.Anything, mock.Anything).Return(errors.New("analytics store down"))
	analyticsRepo.On("InsertPerformanceRecord", mock.Anything, mock.Anything).Return(errors.New("analytics store down"))

	recorder := services.NewSearchAnalyticsService(analyticsRepo, nil, zerolog.Nop(), 16, time.Second)
	defer func() { require.NoError(t, recorder.Close()) }()

	service := newSearchService(listingRepo, nil, recorder, mocks.NewMemoryCacheProvider())

	response, err := service.Search(context.Background(), entities.SearchFilters{Query: "venues"}, entities.SearchOptions{}, "user-1")

	require.NoError(t, err)
	assert.NotNil(t, response)
}

func TestSearch_IndexedPathHydratesAndDropsGhosts(t *testing.T) {
	live := &entities.Listing{ID: "l-live", Name: "Live", Provider: entities.ListingProvider{ID: "p-1"}}

	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("GetByIDs", mock.Anything, mock.Anything).Return([]*entities.Listing{live}, nil)

	searchRepo := new(mocks.MockListingSearchRepository)
	searchRepo.On("Search", mock.Anything, mock.Anything).Return([]string{"l-live", "l-ghost"}, 2, nil)

	service := newSearchService(listingRepo, searchRepo, nil, mocks.NewMemoryCacheProvider())

	response, err := service.Search(context.Background(), entities.SearchFilters{Query: "live"}, entities.SearchOptions{}, "")

	require.NoError(t, err)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "l-live", response.Results[0].ID)
	assert.Equal(t, 2, response.Total)
	listingRepo.AssertNotCalled(t, "SearchWithCount", mock.Anything, mock.Anything)
}

func TestSearch_IndexFailureFallsBackToCatalog(t *testing.T) {
	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("SearchWithCount", mock.Anything, mock.Anything).Return([]*entities.Listing{}, 0, nil)

	searchRepo := new(mocks.MockListingSearchRepository)
	searchRepo.On("Search", mock.Anything, mock.Anything).Return(nil, 0, errors.New("typesense unreachable"))

	service := newSearchService(listingRepo, searchRepo, nil, mocks.NewMemoryCacheProvider())

	_, err := service.Search(context.Background(), entities.SearchFilters{Query: "venues"}, entities.SearchOptions{}, "")

	require.NoError(t, err)
	listingRepo.AssertNumberOfCalls(t, "SearchWithCount", 1)
}

func TestSearch_LocationFilterSkipsIndex(t *testing.T) {
	listingRepo := new(mocks.MockListingRepository)
	listingRepo.On("SearchWithCount", mock.Anything, mock.Anything).Return([]*entities.Listing{}, 0, nil)

	searchRepo := new(mocks.MockListingSearchRepository)

	service := newSearchService(listingRepo, searchRepo, nil, mocks.NewMemoryCacheProvider())

	location := "Sousse"
	_, err := service.Search(context.Background(), entities.SearchFilters{Query: "beach", Location: &location}, entities.SearchOptions{}, "")

	require.NoError(t, err)
	searchRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	listingRepo.AssertNumberOfCalls(t, "SearchWithCount", 1)
}

func TestValidateSearchFilters(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	floatPtr := func(f float64) *float64 { return &f }

	tests := []struct {
		name   string
		in     entities.SearchFilters
		assert func(t *testing.T, out entities.SearchFilters)
	}{
		{
			name: "trims query and text filters",
			in:   entities.SearchFilters{Query: "  venues  ", Location: strPtr(" Tunis "), Category: strPtr(" venues ")},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Equal(t, "venues", out.Query)
				assert.Equal(t, "Tunis", *out.Location)
				assert.Equal(t, "venues", *out.Category)
			},
		},
		{
			name: "blank location dropped",
			in:   entities.SearchFilters{Location: strPtr("   ")},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Nil(t, out.Location)
			},
		},
		{
			name: "negative price bound dropped",
			in:   entities.SearchFilters{PriceRange: &entities.PriceRange{Min: -10, Max: 100}},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Nil(t, out.PriceRange)
			},
		},
		{
			name: "inverted price range dropped",
			in:   entities.SearchFilters{PriceRange: &entities.PriceRange{Min: 500, Max: 100}},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Nil(t, out.PriceRange)
			},
		},
		{
			name: "zero max means unbounded and is kept",
			in:   entities.SearchFilters{PriceRange: &entities.PriceRange{Min: 500, Max: 0}},
			assert: func(t *testing.T, out entities.SearchFilters) {
				require.NotNil(t, out.PriceRange)
				assert.Equal(t, 500.0, out.PriceRange.Min)
			},
		},
		{
			name: "out of range rating dropped",
			in:   entities.SearchFilters{Rating: floatPtr(7)},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Nil(t, out.Rating)
			},
		},
		{
			name: "negative rating dropped",
			in:   entities.SearchFilters{Rating: floatPtr(-1)},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Nil(t, out.Rating)
			},
		},
		{
			name: "unknown sort falls back to popularity",
			in:   entities.SearchFilters{SortBy: entities.SortOption("alphabetical")},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Equal(t, entities.SortPopularity, out.SortBy)
			},
		},
		{
			name: "distance sort accepted",
			in:   entities.SearchFilters{SortBy: entities.SortDistance},
			assert: func(t *testing.T, out entities.SearchFilters) {
				assert.Equal(t, entities.SortDistance, out.SortBy)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, services.ValidateSearchFilters(tt.in))
		})
	}
}

func TestValidateSearchOptions(t *testing.T) {
	out := services.ValidateSearchOptions(entities.SearchOptions{Page: 0, Limit: 0}, 20)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)

	out = services.ValidateSearchOptions(entities.SearchOptions{Page: -3, Limit: -1}, 25)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 25, out.Limit)

	// large limits are not clamped
	out = services.ValidateSearchOptions(entities.SearchOptions{Page: 999, Limit: 1000}, 20)
	assert.Equal(t, 999, out.Page)
	assert.Equal(t, 1000, out.Limit)
}
