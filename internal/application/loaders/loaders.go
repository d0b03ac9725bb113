package loaders

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
)

// ListingLoader batches listing lookups by id
type ListingLoader = dataloader.Loader[string, *entities.Listing]

// NewListingLoader returns a dataloader that batches listing lookups into a
// single GetByIDs call. IDs that the catalog no longer knows resolve to a
// nil listing rather than an error, so callers can drop stale index hits.
// The cache is cleared after every batch; cross-request caching belongs to
// the repository layer.
func NewListingLoader(repo repositories.ListingRepository) *ListingLoader {
	batchFn := func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Listing] {
		results := make([]*dataloader.Result[*entities.Listing], len(keys))
		listings, err := repo.GetByIDs(ctx, keys)
		if err != nil {
			for i := range keys {
				results[i] = &dataloader.Result[*entities.Listing]{Error: err}
			}
			return results
		}

		byID := make(map[string]*entities.Listing, len(listings))
		for _, l := range listings {
			byID[l.ID] = l
		}

		for i, key := range keys {
			results[i] = &dataloader.Result[*entities.Listing]{Data: byID[key]}
		}
		return results
	}

	return dataloader.NewBatchedLoader(
		batchFn,
		dataloader.WithClearCacheOnBatch[string, *entities.Listing](),
		dataloader.WithWait[string, *entities.Listing](time.Millisecond),
	)
}
