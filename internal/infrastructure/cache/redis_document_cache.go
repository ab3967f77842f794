package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
)

const keyPrefix = "paybridge:doc:"

// RedisDocumentCache stores documents as JSON strings in Redis
type RedisDocumentCache struct {
	client     *redis.Client
	ownsClient bool
	logger     *zap.Logger
}

// NewRedisDocumentCache connects to Redis and verifies the connection with PING
func NewRedisDocumentCache(ctx context.Context, opts *redis.Options, logger *zap.Logger) (*RedisDocumentCache, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisDocumentCacheWithClient(client, logger)
	c.ownsClient = true
	return c, nil
}

// NewRedisDocumentCacheWithClient wraps an existing client. The caller keeps
// ownership of the client.
func NewRedisDocumentCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisDocumentCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDocumentCache{client: client, logger: logger}
}

func redisKey(key string) string {
	return keyPrefix + key
}

// Get returns the cached document. A missing key is a miss, not an error.
func (c *RedisDocumentCache) Get(ctx context.Context, key string) (*storefront.Document, bool, error) {
	data, err := c.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get document from cache: %w", err)
	}

	doc, err := storefront.ParseDocument(data)
	if err != nil {
		// drop entries we can no longer read
		c.logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, redisKey(key)).Err()
		return nil, false, nil
	}
	return doc, true, nil
}

// Set stores doc for ttl. A zero ttl uses the default of five minutes.
func (c *RedisDocumentCache) Set(ctx context.Context, key string, doc *storefront.Document, ttl time.Duration) error {
	if doc == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := c.client.Set(ctx, redisKey(key), doc.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set document in cache: %w", err)
	}
	return nil
}

// Delete removes key
func (c *RedisDocumentCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete document from cache: %w", err)
	}
	return nil
}

// Close closes the client when this cache created it
func (c *RedisDocumentCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ storefront.DocumentCache = (*RedisDocumentCache)(nil)
