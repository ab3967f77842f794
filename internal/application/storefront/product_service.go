package storefront

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/logger"
)

// ProductService lists catalog products through a read-through cache
type ProductService struct {
	gateway storefront.Gateway
	cache   storefront.DocumentCache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewProductService creates a new ProductService. A nil cache disables caching.
func NewProductService(gateway storefront.Gateway, cache storefront.DocumentCache, ttl time.Duration, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		gateway: gateway,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

// ListProducts returns one page of the product listing. page and limit are
// omitted from the request when zero.
func (s *ProductService) ListProducts(ctx context.Context, page, limit int) (*storefront.Document, error) {
	path := productListPath(page, limit)
	log := logger.Enrich(ctx, s.logger)

	if s.cache != nil {
		doc, ok, err := s.cache.Get(ctx, path)
		switch {
		case err != nil:
			log.Warn("Product cache read failed", zap.String("key", path), zap.Error(err))
		case ok:
			return doc, nil
		}
	}

	resp, err := s.gateway.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && storefront.HasData(resp) {
		if err := s.cache.Set(ctx, path, resp, s.ttl); err != nil {
			log.Warn("Product cache write failed", zap.String("key", path), zap.Error(err))
		}
	}
	return resp, nil
}

// InvalidateProducts drops the cached listing for page and limit
func (s *ProductService) InvalidateProducts(ctx context.Context, page, limit int) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, productListPath(page, limit))
}
