package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/entities"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/domain/repositories"
	"github.com/Silk-Dev/Mounasabat-sub006/internal/infrastructure/observability"
)

const (
	defaultAnalyticsQueueSize    = 1024
	defaultAnalyticsWriteTimeout = 5 * time.Second
)

// analyticsJob carries exactly one record kind to the persistence worker
type analyticsJob struct {
	query *entities.SearchQueryRecord
	perf  *entities.SearchPerformanceRecord
}

// SearchAnalyticsService records search traffic off the request path. A
// bounded queue feeds a single persistence worker; when the queue is full
// new records are dropped rather than stalling searches, and persistence
// failures are logged and swallowed.
type SearchAnalyticsService struct {
	repo         repositories.SearchAnalyticsRepository
	metrics      *observability.Metrics
	logger       zerolog.Logger
	writeTimeout time.Duration

	jobs chan analyticsJob
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewSearchAnalyticsService creates the recorder and starts its worker.
// Non-positive queueSize or writeTimeout fall back to defaults.
func NewSearchAnalyticsService(
	repo repositories.SearchAnalyticsRepository,
	metrics *observability.Metrics,
	logger zerolog.Logger,
	queueSize int,
	writeTimeout time.Duration,
) *SearchAnalyticsService {
	if queueSize <= 0 {
		queueSize = defaultAnalyticsQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultAnalyticsWriteTimeout
	}

	s := &SearchAnalyticsService{
		repo:         repo,
		metrics:      metrics,
		logger:       logger,
		writeTimeout: writeTimeout,
		jobs:         make(chan analyticsJob, queueSize),
		done:         make(chan struct{}),
	}
	go s.worker()
	return s
}

// RecordSearch queues one executed search for persistence. The query is
// expected in normalized form and may be empty for filter-only searches.
func (s *SearchAnalyticsService) RecordSearch(ctx context.Context, query string, filters entities.SearchFilters, resultCount int, userID *string) {
	s.enqueue(analyticsJob{query: &entities.SearchQueryRecord{
		Query:       query,
		Filters:     filters,
		ResultCount: resultCount,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	}}, "query")
}

// RecordSearchPerformance queues one latency sample for persistence
func (s *SearchAnalyticsService) RecordSearchPerformance(ctx context.Context, query string, responseTime time.Duration, resultCount int, fromCache bool) {
	s.enqueue(analyticsJob{perf: &entities.SearchPerformanceRecord{
		Query:          query,
		ResponseTimeMs: float64(responseTime.Microseconds()) / 1000.0,
		ResultCount:    resultCount,
		FromCache:      fromCache,
		CreatedAt:      time.Now().UTC(),
	}}, "performance")
}

// enqueue hands a job to the worker without ever blocking the caller. The
// lock prevents a send racing a concurrent Close.
func (s *SearchAnalyticsService) enqueue(job analyticsJob, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.jobs <- job:
	default:
		s.logger.Warn().Str("kind", kind).Msg("analytics queue full, dropping record")
		observability.RecordAnalyticsDrop(context.Background(), s.metrics, kind)
	}
}

// worker drains the queue until Close
func (s *SearchAnalyticsService) worker() {
	defer close(s.done)
	for job := range s.jobs {
		s.persist(job)
	}
}

func (s *SearchAnalyticsService) persist(job analyticsJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if job.query != nil {
		if err := s.repo.InsertQueryRecord(ctx, job.query); err != nil {
			s.logger.Warn().Err(err).Str("query", job.query.Query).Msg("failed to persist search record")
		}
	}
	if job.perf != nil {
		if err := s.repo.InsertPerformanceRecord(ctx, job.perf); err != nil {
			s.logger.Warn().Err(err).Str("query", job.perf.Query).Msg("failed to persist performance sample")
		}
	}
}

// StartRetention prunes analytics older than retentionDays on the given
// interval until ctx is done. The first prune runs immediately.
func (s *SearchAnalyticsService) StartRetention(ctx context.Context, retentionDays int, interval time.Duration) {
	if retentionDays <= 0 || interval <= 0 {
		return
	}

	go func() {
		s.prune(ctx, retentionDays)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.prune(ctx, retentionDays)
			}
		}
	}()
}

func (s *SearchAnalyticsService) prune(ctx context.Context, retentionDays int) {
	pruneCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.repo.DeleteOlderThan(pruneCtx, cutoff)
	if err != nil {
		s.logger.Warn().Err(err).Time("cutoff", cutoff).Msg("analytics retention prune failed")
		return
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("pruned old analytics records")
	}
}

// Close stops accepting records and waits for queued ones to be persisted
func (s *SearchAnalyticsService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	<-s.done
	return nil
}
