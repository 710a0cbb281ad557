// Package clients provides the instrumented HTTP client used to reach
// upstream quote catalogs.
package clients

import (
	"errors"
	"fmt"
)

// Client errors describe transport failures. Adapters translate them into
// domain errors before they leave the adapter layer.
var (
	// ErrCircuitOpen is returned without contacting the upstream while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRetriesExhausted wraps the last failure after every attempt failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// StatusError is a response the upstream answered with a non-2xx status.
type StatusError struct {
	StatusCode int

	// Body holds the start of the response body for diagnostics.
	Body []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %d", e.StatusCode)
}
