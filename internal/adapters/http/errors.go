package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
)

const internalErrorMessage = "an internal error occurred"

// MapDomainError maps an error to an HTTP status code and error response.
// Coded catalog errors carry their number and client message. Unknown errors
// are mapped to 500 with a generic message.
func MapDomainError(err error) (int, *dto.ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	status, code, message := classify(err)
	resp := dto.NewErrorResponse(code, message)

	if domainCode, ok := domain.CodeOf(err); ok {
		resp.WithDomainCode(int(domainCode))

		if msg, ok := domain.MessageOf(err); ok {
			resp.Error.Message = msg
		}
	}

	if status == http.StatusBadRequest {
		if details := fieldDetails(err); len(details) > 0 {
			resp.WithDetails(details)
		}
	}

	return status, resp
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "authentication required"

	case errors.Is(err, domain.ErrQuoteCountNotZero):
		return http.StatusConflict, dto.ErrorCodeConflict, err.Error()

	// A failed write can wrap a storage conflict, so it is checked first.
	case domain.IsWriteFailure(err):
		return http.StatusBadRequest, dto.ErrorCodeWriteFailed, "the change could not be saved"

	case domain.IsNotFound(err):
		return http.StatusNotFound, dto.ErrorCodeNotFound, err.Error()

	case domain.IsValidation(err):
		return http.StatusBadRequest, dto.ErrorCodeValidation, err.Error()

	case domain.IsConflict(err):
		return http.StatusConflict, dto.ErrorCodeConflict, err.Error()

	case domain.IsForbidden(err):
		return http.StatusForbidden, dto.ErrorCodeForbidden, err.Error()

	case domain.IsUnavailable(err):
		msg := "a required service is unavailable"

		var unavailable *domain.UnavailableError
		if errors.As(err, &unavailable) {
			msg = fmt.Sprintf("service %q unavailable", unavailable.Service)
		}

		return http.StatusServiceUnavailable, dto.ErrorCodeUnavailable, msg

	case errors.Is(err, dto.ErrRateLimited):
		return http.StatusTooManyRequests, dto.ErrorCodeRateLimited, "rate limit exceeded, retry later"

	case errors.Is(err, dto.ErrValidation):
		return http.StatusBadRequest, dto.ErrorCodeValidation, "request validation failed"

	case errors.As(err, new(*http.MaxBytesError)):
		return http.StatusRequestEntityTooLarge, dto.ErrorCodeTooLarge, "request body too large"

	case errors.Is(err, dto.ErrBinding):
		return http.StatusBadRequest, dto.ErrorCodeBadRequest, "malformed request body"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dto.ErrorCodeTimeout, "the request timed out"

	case errors.Is(err, dto.ErrRouteNotFound):
		return http.StatusNotFound, dto.ErrorCodeNotFound, "route not found"

	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternal, internalErrorMessage
	}
}

// fieldDetails collects field-level messages from request validation or a
// domain validation error.
func fieldDetails(err error) map[string]string {
	if details := dto.ValidationErrors(err); len(details) > 0 {
		return details
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) && validationErr.Field != "" {
		return map[string]string{validationErr.Field: validationErr.Message}
	}

	return nil
}

// RespondWithError writes an error response to the gin.Context.
// It maps the error, includes the trace ID if available and logs failures
// the client cannot act on.
func RespondWithError(c *gin.Context, err error) {
	status, errResp := MapDomainError(err)
	errResp.WithTraceID(dto.GetTraceID(c))

	logger := logging.FromContext(c.Request.Context())

	switch {
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.Int("status", status),
			slog.Any("error", err),
			slog.String("trace_id", errResp.TraceID),
		)
	default:
		logger.DebugContext(c.Request.Context(), "request rejected",
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(status, errResp)
}

// ErrorHandler renders the last error a handler or middleware attached with
// c.Error, unless a response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		RespondWithError(c, c.Errors.Last().Err)
	}
}
