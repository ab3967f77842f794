package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/backend/internal/domain/storefront"
)

func TestProductListPath(t *testing.T) {
	assert.Equal(t, "/products", productListPath(0, 0))
	assert.Equal(t, "/products?page=2", productListPath(2, 0))
	assert.Equal(t, "/products?page=2&limit=10", productListPath(2, 10))
	assert.Equal(t, "/products?limit=10", productListPath(0, 10))
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	listing := dataResponse(storefront.NewDocument().Put("count", 1))

	t.Run("without cache", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Get", mock.Anything, "/products?page=1").Return(listing, nil)

		resp, err := NewProductService(gw, nil, time.Minute, nil).ListProducts(ctx, 1, 0)
		require.NoError(t, err)
		assert.Same(t, listing, resp)
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		gw := new(MockGateway)
		cache := new(MockDocumentCache)
		cache.On("Get", mock.Anything, "/products?page=1&limit=5").Return(listing, true, nil)

		resp, err := NewProductService(gw, cache, time.Minute, nil).ListProducts(ctx, 1, 5)
		require.NoError(t, err)
		assert.Same(t, listing, resp)
		gw.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("cache miss populates", func(t *testing.T) {
		gw := new(MockGateway)
		cache := new(MockDocumentCache)
		cache.On("Get", mock.Anything, "/products").Return(nil, false, nil)
		cache.On("Set", mock.Anything, "/products", listing, 5*time.Minute).Return(nil)
		gw.On("Get", mock.Anything, "/products").Return(listing, nil)

		_, err := NewProductService(gw, cache, 5*time.Minute, nil).ListProducts(ctx, 0, 0)
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("cache failures fall back to the store", func(t *testing.T) {
		gw := new(MockGateway)
		cache := new(MockDocumentCache)
		cache.On("Get", mock.Anything, "/products").Return(nil, false, errors.New("redis down"))
		cache.On("Set", mock.Anything, "/products", listing, time.Minute).Return(errors.New("redis down"))
		gw.On("Get", mock.Anything, "/products").Return(listing, nil)

		resp, err := NewProductService(gw, cache, time.Minute, nil).ListProducts(ctx, 0, 0)
		require.NoError(t, err)
		assert.Same(t, listing, resp)
	})

	t.Run("empty listings are not cached", func(t *testing.T) {
		gw := new(MockGateway)
		cache := new(MockDocumentCache)
		cache.On("Get", mock.Anything, "/products").Return(nil, false, nil)
		gw.On("Get", mock.Anything, "/products").Return(emptyResponse(), nil)

		_, err := NewProductService(gw, cache, time.Minute, nil).ListProducts(ctx, 0, 0)
		require.NoError(t, err)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProductService_InvalidateProducts(t *testing.T) {
	cache := new(MockDocumentCache)
	cache.On("Delete", mock.Anything, "/products?page=3").Return(nil)

	require.NoError(t, NewProductService(new(MockGateway), cache, time.Minute, nil).InvalidateProducts(context.Background(), 3, 0))
	cache.AssertExpectations(t)
}
