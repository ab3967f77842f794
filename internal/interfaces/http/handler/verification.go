package handler

import (
	"github.com/gin-gonic/gin"

	appstore "github.com/paybridge/backend/internal/application/storefront"
)

// VerificationHandler lists verification channels of an account
type VerificationHandler struct {
	BaseHandler
	verification *appstore.VerificationService
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(verification *appstore.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// VerificationOptionsResponse lists the channels available to an account
type VerificationOptionsResponse struct {
	Email   string                      `json:"email"`
	Options []appstore.VerificationType `json:"options"`
}

// RegisterRoutes registers verification routes
func (h *VerificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/swell/verification-options/:email", h.Options)
}

// Options returns EMAIL, plus SMS when the account has a phone number
func (h *VerificationHandler) Options(c *gin.Context) {
	email := c.Param("email")
	types, err := h.verification.AvailableVerificationTypes(c.Request.Context(), email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, VerificationOptionsResponse{Email: email, Options: types})
}
