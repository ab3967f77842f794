package handler

import (
	"github.com/gin-gonic/gin"

	appstore "github.com/paybridge/backend/internal/application/storefront"
	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/interfaces/http/dto"
)

// AccountHandler handles account endpoints
type AccountHandler struct {
	BaseHandler
	accounts *appstore.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *appstore.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// DefaultCardRequest selects the default payment card
type DefaultCardRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

// DefaultAddressRequest selects the default shipping address
type DefaultAddressRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

// PasswordTokenRequest identifies the account receiving a password token
type PasswordTokenRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordTokenResponse carries the generated token
type PasswordTokenResponse struct {
	Token string `json:"token"`
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/accounts")
	g.GET("", h.ListAll)
	g.GET("/count", h.Count)
	g.POST("", h.Create)
	g.POST("/password-token", h.GeneratePasswordToken)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/cards", h.AddPaymentMethod)
	g.PUT("/:id/default-card", h.MakeDefaultPaymentMethod)
	g.POST("/:id/addresses", h.AddAddress)
	g.PUT("/:id/default-address", h.MakeDefaultAddress)
}

// Get returns one account
func (h *AccountHandler) Get(c *gin.Context) {
	resp, err := h.accounts.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, storefront.Data(resp))
}

// Create creates an account
func (h *AccountHandler) Create(c *gin.Context) {
	var req appstore.CreateAccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.accounts.CreateAccount(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, storefront.Data(resp))
}

// Delete force-deletes an account
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.accounts.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddPaymentMethod vaults a card on the account
func (h *AccountHandler) AddPaymentMethod(c *gin.Context) {
	var req appstore.PaymentMethodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.accounts.AddPaymentMethod(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, storefront.Data(resp))
}

// MakeDefaultPaymentMethod selects the account's default card
func (h *AccountHandler) MakeDefaultPaymentMethod(c *gin.Context) {
	var req DefaultCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.accounts.MakeDefaultPaymentMethod(c.Request.Context(), c.Param("id"), req.CardID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, storefront.Data(resp))
}

// AddAddress stores an address on the account
func (h *AccountHandler) AddAddress(c *gin.Context) {
	var req appstore.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.accounts.AddAddress(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, storefront.Data(resp))
}

// MakeDefaultAddress selects the account's default shipping address
func (h *AccountHandler) MakeDefaultAddress(c *gin.Context) {
	var req DefaultAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.accounts.MakeDefaultAddress(c.Request.Context(), c.Param("id"), req.AddressID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, storefront.Data(resp))
}

// Count returns the number of accounts
func (h *AccountHandler) Count(c *gin.Context) {
	n, err := h.accounts.CountAccounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountResponse{Count: n})
}

// ListAll returns every account
func (h *AccountHandler) ListAll(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	docs, err := h.accounts.ListAllAccounts(c.Request.Context(), q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, docs)
}

// GeneratePasswordToken issues a password token for an account
func (h *AccountHandler) GeneratePasswordToken(c *gin.Context) {
	var req PasswordTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	token, err := h.accounts.GeneratePasswordToken(c.Request.Context(), req.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PasswordTokenResponse{Token: token})
}
