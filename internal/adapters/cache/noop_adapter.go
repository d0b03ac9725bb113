package cache

import (
	"context"
	"time"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
)

// NoopAdapter is the CacheProvider used when Redis is unavailable. Reads
// always miss and writes succeed without storing, so callers keep their
// normal code paths while the deployment runs uncached.
type NoopAdapter struct{}

var _ providers.CacheProvider = (*NoopAdapter)(nil)

// NewNoopAdapter creates a cache provider that never stores anything
func NewNoopAdapter() providers.CacheProvider {
	return &NoopAdapter{}
}

func (a *NoopAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, providers.ErrCacheMiss
}

func (a *NoopAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return nil
}

func (a *NoopAdapter) Delete(ctx context.Context, key string) error {
	return nil
}

func (a *NoopAdapter) DeletePattern(ctx context.Context, pattern string) error {
	return nil
}

func (a *NoopAdapter) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (a *NoopAdapter) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	return map[string][]byte{}, nil
}

func (a *NoopAdapter) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	return nil
}

func (a *NoopAdapter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}
