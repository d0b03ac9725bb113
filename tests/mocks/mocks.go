// Package mocks provides hand-written test doubles for the domain
// interfaces: testify mocks for the repositories and a functional
// in-memory cache provider.
package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/providers"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
)

var (
	_ repositories.ListingRepository         = (*MockListingRepository)(nil)
	_ repositories.ListingSearchRepository   = (*MockListingSearchRepository)(nil)
	_ repositories.SearchAnalyticsRepository = (*MockSearchAnalyticsRepository)(nil)
	_ providers.CacheProvider                = (*MemoryCacheProvider)(nil)
)

// MockListingRepository is a testify mock of repositories.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *entities.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	args := m.Called(ctx, id)
	if listing, ok := args.Get(0).(*entities.Listing); ok {
		return listing, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	args := m.Called(ctx, ids)
	if listings, ok := args.Get(0).([]*entities.Listing); ok {
		return listings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) List(ctx context.Context, filter repositories.ListingFilter) ([]*entities.Listing, error) {
	args := m.Called(ctx, filter)
	if listings, ok := args.Get(0).([]*entities.Listing); ok {
		return listings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) SearchWithCount(ctx context.Context, query repositories.ListingQuery) ([]*entities.Listing, int, error) {
	args := m.Called(ctx, query)
	if listings, ok := args.Get(0).([]*entities.Listing); ok {
		return listings, args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *MockListingRepository) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if categories, ok := args.Get(0).([]string); ok {
		return categories, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockListingSearchRepository is a testify mock of repositories.ListingSearchRepository
type MockListingSearchRepository struct {
	mock.Mock
}

func (m *MockListingSearchRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockListingSearchRepository) Index(ctx context.Context, listing *entities.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingSearchRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingSearchRepository) Search(ctx context.Context, query repositories.ListingQuery) ([]string, int, error) {
	args := m.Called(ctx, query)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

// MockSearchAnalyticsRepository is a testify mock of repositories.SearchAnalyticsRepository
type MockSearchAnalyticsRepository struct {
	mock.Mock
}

func (m *MockSearchAnalyticsRepository) InsertQueryRecord(ctx context.Context, record *entities.SearchQueryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSearchAnalyticsRepository) InsertPerformanceRecord(ctx context.Context, record *entities.SearchPerformanceRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSearchAnalyticsRepository) TopQueries(ctx context.Context, from, to time.Time, limit int) ([]entities.PopularQuery, error) {
	args := m.Called(ctx, from, to, limit)
	if queries, ok := args.Get(0).([]entities.PopularQuery); ok {
		return queries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) TopCategories(ctx context.Context, from, to time.Time, limit int) ([]entities.TrendingCategory, error) {
	args := m.Called(ctx, from, to, limit)
	if categories, ok := args.Get(0).([]entities.TrendingCategory); ok {
		return categories, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) TopEmptyQueries(ctx context.Context, from, to time.Time, limit int) ([]entities.PopularQuery, error) {
	args := m.Called(ctx, from, to, limit)
	if queries, ok := args.Get(0).([]entities.PopularQuery); ok {
		return queries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) QueryTotals(ctx context.Context, from, to time.Time) (repositories.QueryTotals, error) {
	args := m.Called(ctx, from, to)
	if totals, ok := args.Get(0).(repositories.QueryTotals); ok {
		return totals, args.Error(1)
	}
	return repositories.QueryTotals{}, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) PerformanceTotals(ctx context.Context, from, to time.Time) (repositories.PerformanceTotals, error) {
	args := m.Called(ctx, from, to)
	if totals, ok := args.Get(0).(repositories.PerformanceTotals); ok {
		return totals, args.Error(1)
	}
	return repositories.PerformanceTotals{}, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) QueryAverages(ctx context.Context, from, to time.Time, limit int) ([]entities.QueryPerformance, error) {
	args := m.Called(ctx, from, to, limit)
	if averages, ok := args.Get(0).([]entities.QueryPerformance); ok {
		return averages, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) UserTotals(ctx context.Context, from, to time.Time) (repositories.UserTotals, error) {
	args := m.Called(ctx, from, to)
	if totals, ok := args.Get(0).(repositories.UserTotals); ok {
		return totals, args.Error(1)
	}
	return repositories.UserTotals{}, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) TopUsers(ctx context.Context, from, to time.Time, limit int) ([]entities.UserSearchCount, error) {
	args := m.Called(ctx, from, to, limit)
	if users, ok := args.Get(0).([]entities.UserSearchCount); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSearchAnalyticsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MemoryCacheProvider is a functional in-memory providers.CacheProvider.
// GetErr and SetErr, when set, make the corresponding operations fail so
// tests can exercise cache degradation paths. TTLs are recorded but not
// enforced.
type MemoryCacheProvider struct {
	mu      sync.RWMutex
	data    map[string][]byte
	ttls    map[string]int
	deleted []string

	GetErr error
	SetErr error
}

// NewMemoryCacheProvider creates an empty in-memory cache
func NewMemoryCacheProvider() *MemoryCacheProvider {
	return &MemoryCacheProvider{
		data: make(map[string][]byte),
		ttls: make(map[string]int),
	}
}

func (m *MemoryCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, providers.ErrCacheMiss
}

func (m *MemoryCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = value
	m.ttls[key] = expirationSeconds
	return nil
}

func (m *MemoryCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.ttls, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MemoryCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
			delete(m.ttls, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *MemoryCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MemoryCacheProvider) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	out := make(map[string][]byte)
	for _, key := range keys {
		if value, ok := m.data[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (m *MemoryCacheProvider) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	for key, value := range items {
		m.data[key] = value
		m.ttls[key] = expirationSeconds
	}
	return nil
}

func (m *MemoryCacheProvider) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if seconds, ok := m.ttls[key]; ok {
		return time.Duration(seconds) * time.Second, nil
	}
	return 0, nil
}

// Keys returns a snapshot of the stored keys
func (m *MemoryCacheProvider) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys
}

// StoredTTL returns the expiration a key was stored with
func (m *MemoryCacheProvider) StoredTTL(key string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seconds, ok := m.ttls[key]
	return seconds, ok
}

// Deleted returns every key passed to Delete or matched by DeletePattern
func (m *MemoryCacheProvider) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

// Len returns how many keys are stored
func (m *MemoryCacheProvider) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
