package handler

import (
	"github.com/gin-gonic/gin"

	appstore "github.com/paybridge/backend/internal/application/storefront"
	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/interfaces/http/dto"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	BaseHandler
	orders *appstore.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *appstore.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/orders")
	g.GET("", h.ListAll)
	g.GET("/count", h.Count)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

// Get returns one order
func (h *OrderHandler) Get(c *gin.Context) {
	resp, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, storefront.Data(resp))
}

// Delete removes an order
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Count returns the number of orders
func (h *OrderHandler) Count(c *gin.Context) {
	n, err := h.orders.CountOrders(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountResponse{Count: n})
}

// ListAll returns every order
func (h *OrderHandler) ListAll(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	docs, err := h.orders.ListAllOrders(c.Request.Context(), q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, docs)
}
