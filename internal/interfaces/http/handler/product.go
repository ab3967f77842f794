package handler

import (
	"github.com/gin-gonic/gin"

	appstore "github.com/paybridge/backend/internal/application/storefront"
	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/interfaces/http/dto"
)

// ProductHandler handles the product listing
type ProductHandler struct {
	BaseHandler
	products *appstore.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *appstore.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.List)
	rg.DELETE("/products/cache", h.Invalidate)
}

// List returns one page of products. The remote listing envelope
// (count, page, results) is passed through unchanged.
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.products.ListProducts(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, storefront.Data(resp))
}

// Invalidate drops the cached listing for the given page and limit so the
// next List call reads through to the remote store.
func (h *ProductHandler) Invalidate(c *gin.Context) {
	var q dto.ProductListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	if err := h.products.InvalidateProducts(c.Request.Context(), q.Page, q.Limit); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
