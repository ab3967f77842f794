package cache

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/config"
)

// Cache is a DocumentCache that holds resources until closed
type Cache interface {
	storefront.DocumentCache
	io.Closer
}

// NewDocumentCache returns a Redis-backed cache when Redis is enabled and
// answers PING, otherwise an in-memory cache.
func NewDocumentCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) Cache {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Enabled {
		c, err := NewRedisDocumentCache(ctx, &redis.Options{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		}, logger)
		if err == nil {
			logger.Info("Using Redis document cache", zap.String("addr", cfg.Addr()))
			return c
		}
		logger.Warn("Redis unavailable, falling back to in-memory document cache",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
	}

	return NewInMemoryDocumentCache(WithInMemoryLogger(logger))
}
