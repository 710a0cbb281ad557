package acl

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/jsamuelsen/quotes-service/internal/adapters/clients"
	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const randomPath = "/quotes/random"

// QuoteSource fetches random quotes from a quotable-compatible API.
type QuoteSource struct {
	client *clients.Client
}

var (
	_ ports.QuoteSource   = (*QuoteSource)(nil)
	_ ports.HealthChecker = (*QuoteSource)(nil)
)

// NewQuoteSource wraps client.
func NewQuoteSource(client *clients.Client) *QuoteSource {
	return &QuoteSource{client: client}
}

// RandomQuote fetches one random upstream quote.
func (s *QuoteSource) RandomQuote(ctx context.Context) (domain.ImportCandidate, error) {
	var quotes []quotableQuote

	err := s.client.GetJSON(ctx, randomPath, url.Values{"limit": {"1"}}, &quotes)
	if err != nil {
		return domain.ImportCandidate{}, MapHTTPError(err, s.client.Name(), "fetch random quote")
	}

	if len(quotes) == 0 {
		return domain.ImportCandidate{}, domain.NewUnavailableError(s.client.Name(), "empty response")
	}

	candidate, err := toCandidate(quotes[0])
	if err != nil {
		return domain.ImportCandidate{}, err
	}

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "fetched upstream quote",
		slog.String("source_id", candidate.SourceID),
		slog.String("author", candidate.AuthorName),
	)

	return candidate, nil
}

// Name implements ports.HealthChecker.
func (s *QuoteSource) Name() string { return s.client.Name() }

// Check implements ports.HealthChecker. It reports the breaker state rather
// than calling the upstream, so readiness probes add no upstream load.
func (s *QuoteSource) Check(context.Context) error {
	if state := s.client.CircuitState(); state == clients.StateOpen {
		return domain.NewUnavailableError(s.client.Name(), "circuit breaker "+state.String())
	}

	return nil
}
