package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/paybridge/backend/internal/infrastructure/payment"
)

// PaymentCreator creates card payments
type PaymentCreator interface {
	CreatePayment(ctx context.Context, req payment.PaymentRequest) (*payment.PaymentResult, error)
}

// StripeHandler handles Stripe payment endpoints
type StripeHandler struct {
	BaseHandler
	payments PaymentCreator
}

// NewStripeHandler creates a new StripeHandler
func NewStripeHandler(payments PaymentCreator) *StripeHandler {
	return &StripeHandler{payments: payments}
}

// RegisterRoutes registers Stripe routes
func (h *StripeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stripe/pay", h.Pay)
}

// Pay creates a PaymentIntent
func (h *StripeHandler) Pay(c *gin.Context) {
	var req payment.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	res, err := h.payments.CreatePayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
