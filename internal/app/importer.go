package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// Importer copies quotes from an upstream source into the catalog, creating
// authors as needed.
type Importer struct {
	source      ports.QuoteSource
	authors     *AuthorStore
	quotes      *QuoteStore
	flags       ports.FeatureFlags
	metrics     *Metrics
	maxCount    int
	concurrency int
}

// ImporterConfig configures an Importer.
type ImporterConfig struct {
	Source  ports.QuoteSource
	Authors *AuthorStore
	Quotes  *QuoteStore
	Flags   ports.FeatureFlags
	Metrics *Metrics

	// MaxCount caps one import request.
	MaxCount int

	// Concurrency caps parallel upstream fetches.
	Concurrency int
}

// NewImporter creates an importer.
func NewImporter(cfg ImporterConfig) *Importer {
	maxCount := cfg.MaxCount
	if maxCount <= 0 {
		maxCount = 20
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Importer{
		source:      cfg.Source,
		authors:     cfg.Authors,
		quotes:      cfg.Quotes,
		flags:       cfg.Flags,
		metrics:     cfg.Metrics,
		maxCount:    maxCount,
		concurrency: concurrency,
	}
}

// ImportFailure describes one upstream quote that was not imported.
type ImportFailure struct {
	AuthorName string
	Text       string
	Err        error
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Imported []domain.Quote
	Failed   []ImportFailure
}

// Import fetches count quotes from the upstream source and stores them. It
// fails only when nothing could be fetched; individual failures are listed in
// the result.
func (i *Importer) Import(ctx context.Context, count int) (*ImportResult, error) {
	if i.flags != nil && !i.flags.IsEnabled(ctx, ports.FlagQuoteImport, true) {
		return nil, domain.NewForbiddenError("import quotes", "quote import is disabled")
	}

	if count < 1 || count > i.maxCount {
		return nil, domain.NewValidationError("count", fmt.Sprintf("must be between 1 and %d", i.maxCount))
	}

	logger := logging.FromContext(ctx).With(slog.String("component", "app.Importer"))

	fetches := make([]func(context.Context) (domain.ImportCandidate, error), count)
	for n := range fetches {
		fetches[n] = i.source.RandomQuote
	}

	fetched := ParallelPartialLimit(ctx, i.concurrency, fetches...)

	result := &ImportResult{Imported: make([]domain.Quote, 0, count)}

	var fetchErrs []error

	for _, f := range fetched {
		if f.Err != nil {
			fetchErrs = append(fetchErrs, f.Err)
			result.Failed = append(result.Failed, ImportFailure{Err: f.Err})
			i.metrics.incImported(f.Err)

			continue
		}

		quote, err := i.store(ctx, f.Value)
		i.metrics.incImported(err)

		if err != nil {
			logger.WarnContext(ctx, "upstream quote not imported",
				slog.String("source_id", f.Value.SourceID),
				slog.Any("error", err),
			)

			result.Failed = append(result.Failed, ImportFailure{
				AuthorName: f.Value.AuthorName,
				Text:       f.Value.Text,
				Err:        err,
			})

			continue
		}

		result.Imported = append(result.Imported, quote)
	}

	if len(fetchErrs) == count {
		return nil, fmt.Errorf("fetching upstream quotes: %w", errors.Join(fetchErrs...))
	}

	logger.InfoContext(ctx, "import finished",
		slog.Int("imported", len(result.Imported)),
		slog.Int("failed", len(result.Failed)),
	)

	return result, nil
}

func (i *Importer) store(ctx context.Context, c domain.ImportCandidate) (domain.Quote, error) {
	name := strings.TrimSpace(c.AuthorName)
	text := strings.TrimSpace(c.Text)

	if name == "" || text == "" {
		return domain.Quote{}, domain.NewQuoteDataInvalid(nil)
	}

	if err := i.ensureAuthor(ctx, name); err != nil {
		return domain.Quote{}, err
	}

	return i.quotes.AddQuoteByAuthorName(ctx, name, text)
}

// ensureAuthor creates the author unless it exists. Losing a creation race to
// another request counts as success.
func (i *Importer) ensureAuthor(ctx context.Context, name string) error {
	_, err := i.authors.FindByName(ctx, name)
	if err == nil || !domain.IsNotFound(err) {
		return err
	}

	if _, err = i.authors.AddByName(ctx, name); err == nil {
		return nil
	}

	if _, findErr := i.authors.FindByName(ctx, name); findErr == nil {
		return nil
	}

	return err
}
