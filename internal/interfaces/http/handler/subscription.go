package handler

import (
	"github.com/gin-gonic/gin"

	appstore "github.com/paybridge/backend/internal/application/storefront"
	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/interfaces/http/dto"
)

// SubscriptionHandler handles subscription endpoints
type SubscriptionHandler struct {
	BaseHandler
	subscriptions *appstore.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptions *appstore.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// RegisterRoutes registers subscription routes
func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/subscriptions")
	g.GET("", h.ListAll)
	g.GET("/count", h.Count)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

// Get returns one subscription
func (h *SubscriptionHandler) Get(c *gin.Context) {
	resp, err := h.subscriptions.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, storefront.Data(resp))
}

// Create subscribes an account to a plan
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req appstore.CreateSubscriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptions.CreateSubscription(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, storefront.Data(resp))
}

// Delete removes a subscription
func (h *SubscriptionHandler) Delete(c *gin.Context) {
	if err := h.subscriptions.DeleteSubscription(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Count returns the number of subscriptions
func (h *SubscriptionHandler) Count(c *gin.Context) {
	n, err := h.subscriptions.CountSubscriptions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountResponse{Count: n})
}

// ListAll returns every subscription
func (h *SubscriptionHandler) ListAll(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	docs, err := h.subscriptions.ListAllSubscriptions(c.Request.Context(), q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, docs)
}
