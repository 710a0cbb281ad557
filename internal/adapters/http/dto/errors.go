// Package dto defines the JSON shapes of the catalog API and request
// validation.
package dto

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Transport errors that have no domain counterpart.
var (
	// ErrRateLimited marks a request rejected by the rate limiter.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrRouteNotFound marks a request for an unknown route.
	ErrRouteNotFound = errors.New("route not found")
)

// ErrorResponse is the envelope of every error response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	// Code is a machine-readable category such as "NOT_FOUND".
	Code string `json:"code"`

	// Message is safe to show to API clients.
	Message string `json:"message"`

	// DomainCode is the stable catalog error number, when there is one.
	DomainCode int `json:"domainCode,omitempty"`

	// Details holds field-level validation messages.
	Details map[string]string `json:"details,omitempty"`
}

// Error categories.
const (
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeConflict     = "CONFLICT"
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeWriteFailed  = "WRITE_FAILED"
	ErrorCodeForbidden    = "FORBIDDEN"
	ErrorCodeUnauthorized = "UNAUTHORIZED"
	ErrorCodeRateLimited  = "RATE_LIMITED"
	ErrorCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout      = "TIMEOUT"
	ErrorCodeBadRequest   = "BAD_REQUEST"
	ErrorCodeTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrorCodeInternal     = "INTERNAL_ERROR"
)

// NewErrorResponse creates an error response.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// WithDomainCode sets the catalog error number.
func (e *ErrorResponse) WithDomainCode(code int) *ErrorResponse {
	e.Error.DomainCode = code
	return e
}

// WithDetails sets field-level details.
func (e *ErrorResponse) WithDetails(details map[string]string) *ErrorResponse {
	e.Error.Details = details
	return e
}

// WithTraceID sets the trace id.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// GetTraceID returns the OpenTelemetry trace id of the request, if any.
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}
