package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const instrumentationName = "github.com/jsamuelsen/quotes-service/internal/app"

var (
	// errEmptyQuoteSet is the cause of a random read against no quotes.
	errEmptyQuoteSet = errors.New("quote set is empty")

	// errOffsetVanished is the cause of a random read whose offset no longer
	// holds a row because quotes were deleted between count and fetch.
	errOffsetVanished = errors.New("no quote at drawn offset")
)

// QuoteStore owns quote rows and keeps author counts in step with them.
type QuoteStore struct {
	quotes  ports.QuoteRepository
	authors *AuthorStore
	tx      ports.Transactor
	ids     ports.IDGenerator
	intn    func(n int) int
	metrics *Metrics
	tracer  trace.Tracer
}

// QuoteStoreConfig holds the quote store's collaborators.
type QuoteStoreConfig struct {
	Quotes     ports.QuoteRepository
	Authors    *AuthorStore
	Transactor ports.Transactor
	IDs        ports.IDGenerator

	// Intn draws a uniform integer in [0, n). Defaults to math/rand/v2.IntN.
	Intn func(n int) int

	// Metrics is optional.
	Metrics *Metrics
}

// NewQuoteStore creates a quote store.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	intn := cfg.Intn
	if intn == nil {
		intn = rand.IntN
	}

	return &QuoteStore{
		quotes:  cfg.Quotes,
		authors: cfg.Authors,
		tx:      cfg.Transactor,
		ids:     cfg.IDs,
		intn:    intn,
		metrics: cfg.Metrics,
		tracer:  otel.Tracer(instrumentationName),
	}
}

func (s *QuoteStore) logger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx).With(slog.String("component", "app.QuoteStore"))
}

// GetRandomQuote picks a quote uniformly at random: count the quotes, draw
// an offset below the count, fetch the row at that offset in id order.
//
// Count and fetch share a transaction where the backend has one. A delete
// that lands between them can still leave the offset empty; that case is
// reported as not found and is safe to retry.
func (s *QuoteStore) GetRandomQuote(ctx context.Context) (domain.Quote, error) {
	var picked domain.Quote

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.quotes.Count(ctx, nil)
		if err != nil {
			return fmt.Errorf("counting quotes: %w", err)
		}

		if n == 0 {
			return errEmptyQuoteSet
		}

		offset := s.intn(n)

		rows, err := s.quotes.Find(ctx, nil,
			[]ports.Order{{Field: ports.FieldID}},
			ports.Page{Limit: 1, Offset: offset},
		)
		if err != nil {
			return fmt.Errorf("fetching quote at offset %d: %w", offset, err)
		}

		if len(rows) == 0 {
			return fmt.Errorf("%w: offset %d of %d", errOffsetVanished, offset, n)
		}

		picked = rows[0]

		return nil
	})
	if err != nil {
		if errors.Is(err, errEmptyQuoteSet) || errors.Is(err, errOffsetVanished) {
			return domain.Quote{}, domain.NewNoQuotesFound(err)
		}

		return domain.Quote{}, err
	}

	return s.attachAuthor(ctx, picked), nil
}

// GetQuoteByID returns the quote with id and its author.
func (s *QuoteStore) GetQuoteByID(ctx context.Context, id string) (domain.Quote, error) {
	quote, err := s.findQuote(ctx, id)
	if err != nil {
		return domain.Quote{}, err
	}

	return s.attachAuthor(ctx, quote), nil
}

// GetQuotesByAuthorID returns every quote of the author with id. An unknown
// id is an error.
func (s *QuoteStore) GetQuotesByAuthorID(ctx context.Context, id string) ([]domain.Quote, error) {
	author, err := s.authors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.quotesOf(ctx, author)
}

// GetQuotesByAuthorName returns every quote of the author called name. An
// unknown name yields an empty list, not an error.
func (s *QuoteStore) GetQuotesByAuthorName(ctx context.Context, name string) ([]domain.Quote, error) {
	author, err := s.authors.FindByName(ctx, name)
	if err != nil {
		if domain.IsNotFound(err) {
			s.logger(ctx).DebugContext(ctx, "author not resolved, returning no quotes", slog.String("author", name))
			return []domain.Quote{}, nil
		}

		return nil, err
	}

	return s.quotesOf(ctx, author)
}

type addQuoteInput struct {
	author domain.Author
	text   string
}

// AddQuoteByAuthorName stores a new quote for the author called name and
// recomputes that author's count. An unknown author fails with the lookup
// error; every later failure is reported as a NotAdded error.
func (s *QuoteStore) AddQuoteByAuthorName(ctx context.Context, name, text string) (domain.Quote, error) {
	author, err := s.authors.FindByName(ctx, name)
	if err != nil {
		return domain.Quote{}, err
	}

	quote, err := Execute(ctx, Operation[addQuoteInput, domain.Quote, domain.Quote, domain.Quote]{
		Name: "add_quote",
		Validate: func(_ context.Context, in addQuoteInput) error {
			if in.text == "" {
				return domain.NewValidationError(ports.FieldText, "must not be empty")
			}

			return nil
		},
		Perform: func(ctx context.Context, in addQuoteInput) (domain.Quote, error) {
			quote := domain.NewQuote(s.ids.NewID(), in.text, in.author.ID())
			if err := s.quotes.Insert(ctx, quote); err != nil {
				return domain.Quote{}, fmt.Errorf("inserting quote: %w", err)
			}

			return quote, nil
		},
		Verify: func(ctx context.Context, _ addQuoteInput, performed domain.Quote) (domain.Quote, error) {
			return s.quotes.FindOne(ctx, ports.Criteria{ports.FieldID: performed.ID()})
		},
		Archive: func(ctx context.Context, in addQuoteInput, _ domain.Quote) error {
			updated, err := s.recompute(ctx, in.author.ID())
			if err == nil {
				author = updated
			}

			return err
		},
		Respond: func(_ context.Context, _ addQuoteInput, verified domain.Quote) (domain.Quote, error) {
			return verified.WithAuthor(author), nil
		},
	}, addQuoteInput{author: author, text: text})
	if err != nil {
		return domain.Quote{}, domain.NewQuoteNotAdded(text, name, err)
	}

	s.logger(ctx).InfoContext(ctx, "quote added",
		slog.String("quote_id", quote.ID()),
		slog.String("author_id", author.ID()),
		slog.Int("quote_count", author.QuoteCount()),
	)

	return quote, nil
}

// RemoveByID deletes a quote and recomputes its author's count. It reports
// failure as false; the cause is logged.
func (s *QuoteStore) RemoveByID(ctx context.Context, id string) bool {
	logger := s.logger(ctx).With(slog.String("quote_id", id))

	quote, err := s.findQuote(ctx, id)
	if err != nil {
		logger.WarnContext(ctx, "quote not removed", slog.Any("error", err))
		return false
	}

	author, err := s.authors.FindByID(ctx, quote.AuthorID())
	if err != nil {
		logger.WarnContext(ctx, "quote not removed", slog.Any("error", err))
		return false
	}

	removed, err := s.quotes.Delete(ctx, ports.Criteria{ports.FieldID: id})
	if err != nil || removed == 0 {
		logger.WarnContext(ctx, "quote not removed",
			slog.Int64("removed", removed),
			slog.Any("error", err),
		)

		return false
	}

	if _, err := s.recompute(ctx, author.ID()); err != nil {
		logger.ErrorContext(ctx, "quote removed but author count not recomputed",
			slog.String("author_id", author.ID()),
			slog.Any("error", err),
		)

		return false
	}

	logger.InfoContext(ctx, "quote removed", slog.String("author_id", author.ID()))

	return true
}

// RemoveByAuthorID deletes every quote of the author with id and persists a
// zero count. It reports failure as false; the cause is logged.
func (s *QuoteStore) RemoveByAuthorID(ctx context.Context, id string) bool {
	logger := s.logger(ctx).With(slog.String("author_id", id))

	author, err := s.authors.FindByID(ctx, id)
	if err != nil {
		logger.WarnContext(ctx, "author quotes not removed", slog.Any("error", err))
		return false
	}

	removed, err := s.quotes.Delete(ctx, ports.Criteria{ports.FieldAuthorID: author.ID()})
	if err != nil {
		logger.WarnContext(ctx, "author quotes not removed", slog.Any("error", err))
		return false
	}

	if _, err := s.recompute(ctx, author.ID()); err != nil {
		logger.ErrorContext(ctx, "author quotes removed but count not recomputed", slog.Any("error", err))
		return false
	}

	logger.InfoContext(ctx, "author quotes removed", slog.Int64("removed", removed))

	return true
}

// QuoteChanges lists the fields of a partial quote update. Nil fields are
// left unchanged.
type QuoteChanges struct {
	Text     *string
	AuthorID *string
}

// UpdateByID applies changes to the quote with id. Moving a quote to another
// author recomputes both authors' counts.
func (s *QuoteStore) UpdateByID(ctx context.Context, id string, changes QuoteChanges) (domain.Quote, error) {
	current, err := s.findQuote(ctx, id)
	if err != nil {
		return domain.Quote{}, err
	}

	updated := current
	if changes.Text != nil {
		updated = updated.WithText(*changes.Text)
	}

	moved := changes.AuthorID != nil && *changes.AuthorID != current.AuthorID()

	var target domain.Author
	if moved {
		target, err = s.authors.FindByID(ctx, *changes.AuthorID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.Quote{}, err
			}

			return domain.Quote{}, domain.NewQuoteNotUpdated(id, err)
		}

		updated = updated.WithAuthor(target)
	}

	if err := s.quotes.Save(ctx, updated.WithoutAuthor()); err != nil {
		s.logger(ctx).ErrorContext(ctx, "failed to update quote",
			slog.String("quote_id", id),
			slog.Any("error", err),
		)

		return domain.Quote{}, domain.NewQuoteNotUpdated(id, err)
	}

	if !moved {
		return s.attachAuthor(ctx, updated), nil
	}

	_, newAuthor, err := Parallel2(ctx,
		func(ctx context.Context) (domain.Author, error) { return s.recompute(ctx, current.AuthorID()) },
		func(ctx context.Context) (domain.Author, error) { return s.recompute(ctx, target.ID()) },
	)
	if err != nil {
		return domain.Quote{}, domain.NewQuoteNotUpdated(id, err)
	}

	s.logger(ctx).InfoContext(ctx, "quote reassigned",
		slog.String("quote_id", id),
		slog.String("from_author_id", current.AuthorID()),
		slog.String("to_author_id", newAuthor.ID()),
	)

	return updated.WithAuthor(newAuthor), nil
}

// Recount recomputes and persists the quote count of the author with id.
func (s *QuoteStore) Recount(ctx context.Context, authorID string) (domain.Author, error) {
	return s.recompute(ctx, authorID)
}

// recompute re-reads the author and its quotes and persists the author with a
// count equal to the number of quotes found. Read and write share one
// transaction where the backend supports it. The quote mutation that
// triggered the recompute is not part of that transaction.
func (s *QuoteStore) recompute(ctx context.Context, authorID string) (domain.Author, error) {
	ctx, span := s.tracer.Start(ctx, "QuoteStore.recompute",
		trace.WithAttributes(attribute.String("author.id", authorID)),
	)
	defer span.End()

	start := time.Now()

	var updated domain.Author

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		author, err := s.authors.FindByID(ctx, authorID)
		if err != nil {
			return err
		}

		quotes, err := s.quotes.Find(ctx, ports.Criteria{ports.FieldAuthorID: authorID}, nil, ports.Page{})
		if err != nil {
			return fmt.Errorf("reading quotes of author %q: %w", authorID, err)
		}

		updated, err = s.authors.UpdateAuthor(ctx, author.WithQuotes(quotes...))

		return err
	})

	s.metrics.observeRecompute(start, err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Author{}, fmt.Errorf("recomputing quote count: %w", err)
	}

	span.SetAttributes(attribute.Int("author.quote_count", updated.QuoteCount()))

	return updated, nil
}

func (s *QuoteStore) findQuote(ctx context.Context, id string) (domain.Quote, error) {
	quote, err := s.quotes.FindOne(ctx, ports.Criteria{ports.FieldID: id})
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Quote{}, domain.NewQuoteIDNotFound(id, err)
		}

		return domain.Quote{}, fmt.Errorf("finding quote %q: %w", id, err)
	}

	return quote, nil
}

func (s *QuoteStore) quotesOf(ctx context.Context, author domain.Author) ([]domain.Quote, error) {
	rows, err := s.quotes.Find(ctx,
		ports.Criteria{ports.FieldAuthorID: author.ID()},
		[]ports.Order{{Field: ports.FieldID}},
		ports.Page{},
	)
	if err != nil {
		return nil, fmt.Errorf("listing quotes of author %q: %w", author.ID(), err)
	}

	quotes := make([]domain.Quote, len(rows))
	for i, q := range rows {
		quotes[i] = q.WithAuthor(author)
	}

	return quotes, nil
}

// attachAuthor resolves the quote's author for output. A missing author row
// is replaced by a placeholder rather than failing the read.
func (s *QuoteStore) attachAuthor(ctx context.Context, quote domain.Quote) domain.Quote {
	author, err := s.authors.FindByID(ctx, quote.AuthorID())
	if err != nil {
		s.logger(ctx).WarnContext(ctx, "quote author not resolved",
			slog.String("quote_id", quote.ID()),
			slog.String("author_id", quote.AuthorID()),
			slog.Any("error", err),
		)

		author = domain.UnknownAuthor(quote.AuthorID())
	}

	return quote.WithAuthor(author)
}
