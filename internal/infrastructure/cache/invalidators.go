package cache

import (
	"context"

	"github.com/kouden/backend/internal/domain/kouden"
	"go.uber.org/zap"
)

// Invalidators fans one invalidation out to several targets in order
type Invalidators []kouden.ViewCacheInvalidator

// Invalidate forwards key to every target
func (is Invalidators) Invalidate(ctx context.Context, key string) {
	for _, inv := range is {
		if inv != nil {
			inv.Invalidate(ctx, key)
		}
	}
}

// SummaryEvictor turns an invalidation into a cache eviction
type SummaryEvictor struct {
	cache  kouden.SummaryCache
	logger *zap.Logger
}

// NewSummaryEvictor creates an evictor for cache
func NewSummaryEvictor(cache kouden.SummaryCache, logger *zap.Logger) *SummaryEvictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryEvictor{cache: cache, logger: logger}
}

// Invalidate deletes key from the cache. Failures are logged only.
func (e *SummaryEvictor) Invalidate(ctx context.Context, key string) {
	if err := e.cache.Delete(ctx, key); err != nil {
		e.logger.Warn("Failed to evict cached summaries", zap.String("key", key), zap.Error(err))
	}
}

// Evict is the subscriber callback form of Invalidate
func (e *SummaryEvictor) Evict(key string) {
	e.Invalidate(context.Background(), key)
}

// NoopInvalidator drops every signal
type NoopInvalidator struct{}

// Invalidate does nothing
func (NoopInvalidator) Invalidate(context.Context, string) {}

var (
	_ kouden.ViewCacheInvalidator = Invalidators(nil)
	_ kouden.ViewCacheInvalidator = (*SummaryEvictor)(nil)
	_ kouden.ViewCacheInvalidator = NoopInvalidator{}
)
