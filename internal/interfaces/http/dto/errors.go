package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodePayment      = "ERR_PAYMENT"
)

// Remote store error codes
const (
	// ErrCodeUpstream is used when the remote store answered with something unusable
	ErrCodeUpstream = "ERR_UPSTREAM"
	// ErrCodeUpstreamUnavailable is used when the remote store could not be reached
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodePayment:             http.StatusPaymentRequired,
	ErrCodeUpstream:            http.StatusBadGateway,
	ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":     ErrCodeNotFound,
	"INVALID_INPUT": ErrCodeInvalidInput,
	"INVALID_STATE": ErrCodeInvalidState,
	"UNAUTHORIZED":  ErrCodeUnauthorized,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
