package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jsamuelsen/quotes-service/internal/adapters/clients"
	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// upstreamError is the error body quotable-compatible APIs return.
type upstreamError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"statusMessage"`
	Error      string `json:"message"`
}

func (e upstreamError) text() string {
	if e.Message != "" {
		return e.Message
	}

	return e.Error
}

// MapHTTPError translates a client failure into the domain taxonomy. Every
// failure of the upstream itself is an outage from the catalog's point of
// view; a request the upstream rejects as malformed is a validation error.
func MapHTTPError(err error, service, operation string) error {
	if err == nil {
		return nil
	}

	var statusErr *clients.StatusError

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, "circuit breaker open during "+operation)
	case errors.Is(err, clients.ErrRetriesExhausted):
		return domain.NewUnavailableError(service, fmt.Sprintf("%s failed after retries", operation))
	case errors.As(err, &statusErr):
		return mapStatus(statusErr, service, operation)
	default:
		return domain.NewUnavailableError(service, fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatus(e *clients.StatusError, service, operation string) error {
	message := fmt.Sprintf("%s failed with status %d", operation, e.StatusCode)

	var body upstreamError
	if json.Unmarshal(e.Body, &body) == nil && body.text() != "" {
		message = body.text()
	}

	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.NewNotFoundError(service, "")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.NewValidationError("", message)
	default:
		return domain.NewUnavailableError(service, message)
	}
}
