package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

// CacheRepository abstracts storage for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics. Only
// rendered export files go through it; derived results are always recomputed.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get returns the cached payload and whether the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	start := time.Now()
	payload, err := s.repo.Get(ctx, key)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if appErrors.Is(err, appErrors.ErrCacheMiss) {
			return nil, false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return payload, true, nil
}

// Set stores the payload in cache.
func (s *CacheService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
