// Package ports defines the contracts the catalog core depends on. Adapters
// implement them; the app layer only ever sees these interfaces.
//
// Every blocking method takes a context first and reports failures with the
// domain error types.
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// IDGenerator produces new globally unique identifiers for authors and quotes.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

// NewID calls f.
func (f IDGeneratorFunc) NewID() string { return f() }

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Principal identifies an authenticated API caller.
type Principal struct {
	Name string
}

// KeyResolver maps a presented API key to the principal that owns it.
type KeyResolver interface {
	// Resolve returns the key's owner, or an error matching
	// domain.ErrUnauthenticated for a missing or unknown key.
	Resolve(ctx context.Context, key string) (Principal, error)
}

// RateDecision is the outcome of one rate limit check.
type RateDecision struct {
	Allowed   bool
	Limit     int64
	Remaining int64

	// RetryAfter is how long until the current window closes.
	RetryAfter time.Duration
}

// RateLimiter decides whether a caller may make another request in the
// current window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}

// QuoteSource fetches quotes from an upstream catalog for import.
type QuoteSource interface {
	// RandomQuote returns one upstream quote. Upstream outages are reported
	// as domain.ErrUnavailable.
	RandomQuote(ctx context.Context) (domain.ImportCandidate, error)
}
