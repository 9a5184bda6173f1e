package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/pkg/cache"
	appErrors "github.com/noah-isme/mitra-laporan-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheService orchestrates cache operations and related metrics.
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
		defaultTTL = 5 * time.Minute
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

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
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

// Invalidate drops the given keys after a write. Failures are logged; readers fall back to the
// database once the entries expire.
func (s *CacheService) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// cached serves key from the cache or runs load and stores its result. Cache failures only
// cost a round trip to the database.
func cached[T any](ctx context.Context, c *CacheService, key string, load func(context.Context) (T, error)) (T, error) {
	var value T
	if hit, _ := c.Get(ctx, key, &value); hit {
		return value, nil
	}
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	_ = c.Set(ctx, key, value, 0)
	return value, nil
}

// Cache keys. Every distinct query gets its own key built from its parameters.
func mitraListKey() string { return cache.Key("mitra", "list") }
func mitraKey(nama string) string { return cache.Key("mitra", "nama", nama) }
func kontrakAllKey() string { return cache.Key("kontrak", "all") }
func kontrakListKey(p string) string { return cache.Key("kontrak", "partner", p) }
func laporanAllKey() string { return cache.Key("laporan", "all") }
func laporanKey(id string) string { return cache.Key("laporan", "id", id) }
func inboxKey(partner string) string { return cache.Key("inbox", partner) }
func workItemsKey(ref models.ContractRef) string {
	return cache.Key("pekerjaan", ref.PartnerName, ref.Nomor)
}
func laporanListKey(ref models.WorkItemRef) string {
	return cache.Key("laporan", "pekerjaan", ref.PartnerName, ref.NomorKontrak, ref.NamaPekerjaan)
}
