package database

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
)

const (
	// TTLs in seconds
	listingByIDTTL = 300
	categoriesTTL  = 600
)

// CachedListingAdapter decorates a ListingRepository with read-through
// caching for single-listing and category lookups. Search results are
// not cached here; the search pipeline keeps its own cache of formatted
// pages.
type CachedListingAdapter struct {
	inner  repositories.ListingRepository
	cache  providers.CacheProvider
	logger zerolog.Logger
}

var _ repositories.ListingRepository = (*CachedListingAdapter)(nil)

// NewCachedListingAdapter creates a caching decorator around a listing repository
func NewCachedListingAdapter(inner repositories.ListingRepository, cache providers.CacheProvider, logger zerolog.Logger) *CachedListingAdapter {
	return &CachedListingAdapter{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

func listingKey(id string) string {
	return providers.ListingCacheKey(id)
}

// Create creates a listing and drops the category cache, which the new
// listing may have extended
func (a *CachedListingAdapter) Create(ctx context.Context, listing *entities.Listing) error {
	if err := a.inner.Create(ctx, listing); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, providers.CategoriesCacheKey); err != nil {
		a.logger.Warn().Err(err).Msg("failed to invalidate category cache")
	}
	return nil
}

// GetByID retrieves a listing, serving from cache when possible
func (a *CachedListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	key := listingKey(id)

	if data, err := a.cache.Get(ctx, key); err == nil {
		var listing entities.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			return &listing, nil
		}
	}

	listing, err := a.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(listing); err == nil {
		a.storeAsync(map[string][]byte{key: data}, listingByIDTTL)
	}
	return listing, nil
}

// GetByIDs retrieves listings in the requested order, batching the
// cache read and fetching only the misses from the catalog
func (a *CachedListingAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	if len(ids) == 0 {
		return []*entities.Listing{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = listingKey(id)
	}

	found := make(map[string]*entities.Listing, len(ids))
	cached, err := a.cache.GetMulti(ctx, keys)
	if err != nil {
		a.logger.Warn().Err(err).Msg("batch cache read failed, falling back to catalog")
		cached = map[string][]byte{}
	}
	for _, data := range cached {
		var listing entities.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			found[listing.ID] = &listing
		}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		fetched, err := a.inner.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		toStore := make(map[string][]byte, len(fetched))
		for _, listing := range fetched {
			found[listing.ID] = listing
			if data, err := json.Marshal(listing); err == nil {
				toStore[listingKey(listing.ID)] = data
			}
		}
		a.storeAsync(toStore, listingByIDTTL)
	}

	out := make([]*entities.Listing, 0, len(ids))
	for _, id := range ids {
		if listing, ok := found[id]; ok {
			out = append(out, listing)
		}
	}
	return out, nil
}

// List passes through; the indexer walks whole pages and caching those
// would only churn memory
func (a *CachedListingAdapter) List(ctx context.Context, filter repositories.ListingFilter) ([]*entities.Listing, error) {
	return a.inner.List(ctx, filter)
}

// SearchWithCount passes through to the catalog
func (a *CachedListingAdapter) SearchWithCount(ctx context.Context, query repositories.ListingQuery) ([]*entities.Listing, int, error) {
	return a.inner.SearchWithCount(ctx, query)
}

// ListCategories retrieves categories, serving from cache when possible
func (a *CachedListingAdapter) ListCategories(ctx context.Context) ([]string, error) {
	if data, err := a.cache.Get(ctx, providers.CategoriesCacheKey); err == nil {
		var categories []string
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
	}

	categories, err := a.inner.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(categories); err == nil {
		a.storeAsync(map[string][]byte{providers.CategoriesCacheKey: data}, categoriesTTL)
	}
	return categories, nil
}

// storeAsync writes cache entries off the request path. A failed write
// only costs a future cache miss.
func (a *CachedListingAdapter) storeAsync(items map[string][]byte, ttlSeconds int) {
	if len(items) == 0 {
		return
	}
	go func() {
		bgCtx := context.Background()
		if err := a.cache.SetMulti(bgCtx, items, ttlSeconds); err != nil {
			a.logger.Warn().Err(err).Int("entries", len(items)).Msg("failed to populate listing cache")
		}
	}()
}
