package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
)

// Tracing headers accepted from callers and echoed on every response.
const (
	// HeaderRequestID identifies a single request.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID identifies a business transaction that may span
	// several requests, for example a quote import and its upstream calls.
	HeaderCorrelationID = "X-Correlation-ID"
)

// maxIDLength bounds caller-supplied ids; longer ones are replaced.
const maxIDLength = 128

type enrichFunc func(ctx context.Context, id string) context.Context

// RequestID returns middleware that keeps a valid X-Request-ID or issues a
// UUID v4, echoes it, and stores it for loggers and outbound clients.
func RequestID() gin.HandlerFunc {
	return propagateID(HeaderRequestID, ContextWithRequestID, logging.WithRequestID)
}

// CorrelationID is RequestID for X-Correlation-ID. The id reaches quote
// import calls to the upstream API.
func CorrelationID() gin.HandlerFunc {
	return propagateID(HeaderCorrelationID, ContextWithCorrelationID, logging.WithCorrelationID)
}

// GetRequestID returns the request ID of c, or "" before RequestID ran.
func GetRequestID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}

	return RequestIDFromContext(c.Request.Context())
}

// GetCorrelationID returns the correlation ID of c, or "" before
// CorrelationID ran.
func GetCorrelationID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}

	return CorrelationIDFromContext(c.Request.Context())
}

func propagateID(header string, enrichers ...enrichFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Header(header, id)

		ctx := c.Request.Context()
		for _, enrich := range enrichers {
			ctx = enrich(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// validID accepts non-empty printable ASCII without spaces, so ids are safe
// to log and forward as headers.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] < '!' || id[i] > '~' {
			return false
		}
	}

	return true
}
