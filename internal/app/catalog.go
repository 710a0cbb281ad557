package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const (
	maxAuthorNameLength  = 255
	defaultRandomRetries = 3
)

// Catalog is the set of operations offered to the transport layer. It
// validates input and composes the author and quote stores.
type Catalog struct {
	authors *AuthorStore
	quotes  *QuoteStore
	flags   ports.FeatureFlags
	metrics *Metrics
	retries int
}

// CatalogConfig configures a Catalog.
type CatalogConfig struct {
	Authors *AuthorStore
	Quotes  *QuoteStore

	// Flags is optional. Without it cascade deletes are refused.
	Flags ports.FeatureFlags

	// RandomRetries bounds how often a random read that lost a race with a
	// delete is retried. Zero uses the default.
	RandomRetries int

	Metrics *Metrics
}

// NewCatalog creates a catalog.
func NewCatalog(cfg CatalogConfig) *Catalog {
	retries := cfg.RandomRetries
	if retries <= 0 {
		retries = defaultRandomRetries
	}

	return &Catalog{
		authors: cfg.Authors,
		quotes:  cfg.Quotes,
		flags:   cfg.Flags,
		metrics: cfg.Metrics,
		retries: retries,
	}
}

// ListAuthors returns all authors ordered by name.
func (c *Catalog) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	return c.authors.FindAll(ctx)
}

// GetAuthor returns the author called name.
func (c *Catalog) GetAuthor(ctx context.Context, name string) (domain.Author, error) {
	return c.authors.FindByName(ctx, name)
}

// CreateAuthor adds an author called name.
func (c *Catalog) CreateAuthor(ctx context.Context, name string) (domain.Author, error) {
	name, err := cleanAuthorName(name)
	if err != nil {
		return domain.Author{}, err
	}

	return c.authors.AddByName(ctx, name)
}

// RenameAuthor renames the author called oldName.
func (c *Catalog) RenameAuthor(ctx context.Context, oldName, newName string) (domain.Author, error) {
	newName, err := cleanAuthorName(newName)
	if err != nil {
		return domain.Author{}, err
	}

	return c.authors.UpdateByName(ctx, oldName, newName)
}

// DeleteAuthor removes the author called name. Without cascade the author
// must have no quotes; its count is recomputed first so a stale count cannot
// hide quotes. With cascade the author's quotes are removed first.
func (c *Catalog) DeleteAuthor(ctx context.Context, name string, cascade bool) error {
	author, err := c.authors.FindByName(ctx, name)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx).With(
		slog.String("component", "app.Catalog"),
		slog.String("author_id", author.ID()),
	)

	if cascade {
		if !c.flagEnabled(ctx, ports.FlagCascadeDelete, false) {
			return domain.NewForbiddenError("delete author", "cascading deletes are disabled")
		}

		if !c.quotes.RemoveByAuthorID(ctx, author.ID()) {
			return domain.NewAuthorNotDeleted(name, errors.New("removing the author's quotes failed"))
		}
	} else if _, err := c.quotes.Recount(ctx, author.ID()); err != nil {
		logger.WarnContext(ctx, "recount before delete failed, using stored count", slog.Any("error", err))
	}

	return c.authors.RemoveByName(ctx, name)
}

// ListQuotesByAuthor returns the quotes of the author called name, or an
// empty list if there is no such author.
func (c *Catalog) ListQuotesByAuthor(ctx context.Context, name string) ([]domain.Quote, error) {
	return c.quotes.GetQuotesByAuthorName(ctx, name)
}

// PurgeAuthorQuotes removes every quote of the author called name.
func (c *Catalog) PurgeAuthorQuotes(ctx context.Context, name string) (bool, error) {
	author, err := c.authors.FindByName(ctx, name)
	if err != nil {
		return false, err
	}

	return c.quotes.RemoveByAuthorID(ctx, author.ID()), nil
}

// AddQuote stores text as a quote of the author called authorName.
func (c *Catalog) AddQuote(ctx context.Context, authorName, text string) (domain.Quote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Quote{}, domain.NewQuoteDataInvalid(domain.NewValidationError(ports.FieldText, "is required"))
	}

	return c.quotes.AddQuoteByAuthorName(ctx, authorName, text)
}

// RandomQuote returns a uniformly chosen quote. A read that raced a delete
// is retried a bounded number of times.
func (c *Catalog) RandomQuote(ctx context.Context) (domain.Quote, error) {
	retries := c.retries
	if c.flags != nil {
		retries = c.flags.GetInt(ctx, ports.FlagRandomRetries, retries)
	}

	for attempt := 0; ; attempt++ {
		quote, err := c.quotes.GetRandomQuote(ctx)
		if err == nil || !errors.Is(err, errOffsetVanished) || attempt >= retries || ctx.Err() != nil {
			return quote, err
		}

		c.metrics.incRandomRetry()
	}
}

// GetQuote returns the quote with id.
func (c *Catalog) GetQuote(ctx context.Context, id string) (domain.Quote, error) {
	return c.quotes.GetQuoteByID(ctx, id)
}

// DeleteQuote removes the quote with id and reports whether it did.
func (c *Catalog) DeleteQuote(ctx context.Context, id string) bool {
	return c.quotes.RemoveByID(ctx, id)
}

// UpdateQuote applies a partial update. At least one field must be set and a
// new text must not be blank.
func (c *Catalog) UpdateQuote(ctx context.Context, id string, changes QuoteChanges) (domain.Quote, error) {
	if changes.Text == nil && changes.AuthorID == nil {
		return domain.Quote{}, domain.NewQuoteDataInvalid(domain.NewValidationError("", "no fields to update"))
	}

	if changes.Text != nil {
		text := strings.TrimSpace(*changes.Text)
		if text == "" {
			return domain.Quote{}, domain.NewQuoteDataInvalid(domain.NewValidationError(ports.FieldText, "is required"))
		}

		changes.Text = &text
	}

	if changes.AuthorID != nil && strings.TrimSpace(*changes.AuthorID) == "" {
		return domain.Quote{}, domain.NewQuoteDataInvalid(domain.NewValidationError(ports.FieldAuthorID, "is required"))
	}

	return c.quotes.UpdateByID(ctx, id, changes)
}

func (c *Catalog) flagEnabled(ctx context.Context, flag string, def bool) bool {
	if c.flags == nil {
		return def
	}

	return c.flags.IsEnabled(ctx, flag, def)
}

func cleanAuthorName(name string) (string, error) {
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return "", domain.NewAuthorDataInvalid(domain.NewValidationError(ports.FieldName, "is required"))
	case utf8.RuneCountInString(name) > maxAuthorNameLength:
		return "", domain.NewAuthorDataInvalid(domain.NewValidationError(ports.FieldName, "is too long"))
	}

	return name, nil
}
