package cache

import (
	"fmt"
	"io"

	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient creates a go-redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewSummaryCache selects the summary cache backend named in cfg.
// "none" yields a nil cache and a nil closer. client may be nil unless
// the backend is redis.
func NewSummaryCache(cfg config.CacheConfig, client *redis.Client, logger *zap.Logger) (kouden.SummaryCache, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "redis":
		if client == nil {
			return nil, nil, fmt.Errorf("redis summary cache requires a redis client")
		}
		logger.Info("using Redis summary cache", zap.Duration("ttl", cfg.SummaryTTL))
		return NewRedisSummaryCache(client,
			WithSummaryTTL(cfg.SummaryTTL),
			WithSummaryLogger(logger),
		), nil, nil
	case "badger":
		c, err := NewBadgerSummaryCache(cfg.BadgerDir, cfg.SummaryTTL, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using badger summary cache",
			zap.String("dir", cfg.BadgerDir), zap.Duration("ttl", cfg.SummaryTTL))
		return c, c, nil
	case "none", "":
		logger.Info("summary cache disabled")
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
