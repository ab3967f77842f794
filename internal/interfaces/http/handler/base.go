package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/shared"
	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/infrastructure/payment"
	"github.com/paybridge/backend/internal/infrastructure/telemetry"
	"github.com/paybridge/backend/internal/interfaces/http/dto"
	"github.com/paybridge/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a full listing with its size
func (h *BaseHandler) SuccessList(c *gin.Context, data []*storefront.Document) {
	if data == nil {
		data = []*storefront.Document{}
	}
	c.JSON(http.StatusOK, dto.NewListResponse(data, int64(len(data))))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status code. The envelope
// carries the request ID and, when the request is traced, the trace ID.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	resp := dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c))
	resp.Error.TraceID = telemetry.GetTraceID(c.Request.Context())
	c.JSON(statusCode, resp)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 response for a request that failed binding
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
}

// HandleError maps service errors to HTTP responses. Remote store failures
// surface as 502 when the store answered badly and 503 when it could not be
// reached; messages of upstream errors are not exposed to clients.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	var storeErr *storefront.Error
	if errors.As(err, &storeErr) {
		h.handleStoreError(c, storeErr)
		return
	}

	if errors.Is(err, payment.ErrInvalidAmount) || errors.Is(err, payment.ErrMissingCurrency) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		logger.GetGinLogger(c).Warn("Stripe rejected the payment", zap.Error(err))
		h.Error(c, http.StatusPaymentRequired, dto.ErrCodePayment, stripeErr.Msg)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled request error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

func (h *BaseHandler) handleStoreError(c *gin.Context, err *storefront.Error) {
	log := logger.GetGinLogger(c)

	switch err.Kind {
	case storefront.KindNotFound:
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, err.Message)
	case storefront.KindConnection, storefront.KindTransientNetwork:
		log.Error("Remote store unavailable", zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable, "Remote store is unavailable")
	case storefront.KindProtocol, storefront.KindMalformedResponse, storefront.KindFetch:
		log.Error("Remote store returned an unusable response", zap.Error(err))
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, "Remote store returned an invalid response")
	default:
		log.Error("Remote store request failed", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
