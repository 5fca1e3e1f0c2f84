package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const summaryKeyPrefix = "kouden:summary:"

// RedisSummaryCache implements kouden.SummaryCache on a shared Redis
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisSummaryCacheOption configures a RedisSummaryCache
type RedisSummaryCacheOption func(*RedisSummaryCache)

// WithSummaryTTL sets how long a cached summary list lives
func WithSummaryTTL(ttl time.Duration) RedisSummaryCacheOption {
	return func(c *RedisSummaryCache) {
		c.ttl = ttl
	}
}

// WithSummaryLogger sets the logger
func WithSummaryLogger(logger *zap.Logger) RedisSummaryCacheOption {
	return func(c *RedisSummaryCache) {
		c.logger = logger
	}
}

// NewRedisSummaryCache creates a cache over an existing client.
// The caller keeps ownership of the client.
func NewRedisSummaryCache(client *redis.Client, opts ...RedisSummaryCacheOption) *RedisSummaryCache {
	c := &RedisSummaryCache{
		client: client,
		ttl:    DefaultSummaryTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached summaries for key
func (c *RedisSummaryCache) Get(ctx context.Context, key string) ([]kouden.ReturnManagementSummary, bool, error) {
	data, err := c.client.Get(ctx, summaryKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get summaries from cache: %w", err)
	}

	var summaries []kouden.ReturnManagementSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		// A corrupt entry is treated as a miss and dropped
		c.logger.Warn("Discarding undecodable summary cache entry",
			zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, summaryKeyPrefix+key).Err()
		return nil, false, nil
	}
	return summaries, true, nil
}

// Set stores summaries under key for the configured TTL
func (c *RedisSummaryCache) Set(ctx context.Context, key string, summaries []kouden.ReturnManagementSummary) error {
	data, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal summaries: %w", err)
	}
	if err := c.client.Set(ctx, summaryKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set summaries in cache: %w", err)
	}
	return nil
}

// Delete evicts key
func (c *RedisSummaryCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, summaryKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete summaries from cache: %w", err)
	}
	return nil
}

var _ kouden.SummaryCache = (*RedisSummaryCache)(nil)
