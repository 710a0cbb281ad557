// Package memory is a process-local storage backend. It enforces the same
// constraints as the SQL backends (unique author names, quotes referencing
// existing authors, no deleting a referenced author) but has no transactions
// and loses everything on exit.
package memory

import (
	"context"
	"sync"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// Store holds author and quote tables.
type Store struct {
	mu      sync.RWMutex
	authors *table[domain.Author]
	quotes  *table[domain.Quote]
}

var _ ports.Storage = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{}

	s.authors = newTable(&s.mu, schema[domain.Author]{
		entity: "author",
		id:     domain.Author.ID,
		fields: func(a domain.Author) map[string]any {
			return map[string]any{
				ports.FieldID:         a.ID(),
				ports.FieldName:       a.Name(),
				ports.FieldQuoteCount: a.QuoteCount(),
			}
		},
		unique:   []string{ports.FieldName},
		restrict: s.authorUnreferenced,
	})

	s.quotes = newTable(&s.mu, schema[domain.Quote]{
		entity: "quote",
		id:     domain.Quote.ID,
		fields: func(q domain.Quote) map[string]any {
			return map[string]any{
				ports.FieldID:       q.ID(),
				ports.FieldText:     q.Text(),
				ports.FieldAuthorID: q.AuthorID(),
			}
		},
		check: s.authorExists,
	})

	return s
}

// Authors returns the author repository.
func (s *Store) Authors() ports.AuthorRepository { return s.authors }

// Quotes returns the quote repository. Stored quotes never carry an author.
func (s *Store) Quotes() ports.QuoteRepository { return detached{s.quotes} }

// WithinTx runs fn directly; the memory backend has no transactions.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "storage" }

// Check implements ports.HealthChecker.
func (s *Store) Check(context.Context) error { return nil }

// Close implements ports.Storage.
func (s *Store) Close() error { return nil }

func (s *Store) authorExists(q domain.Quote) error {
	if _, ok := s.authors.get(q.AuthorID()); !ok {
		return domain.NewConflictErrorWithDetails("quote", "foreign key constraint", ports.FieldAuthorID)
	}

	return nil
}

func (s *Store) authorUnreferenced(a domain.Author) error {
	for _, q := range s.quotes.rows {
		if q.AuthorID() == a.ID() {
			return domain.NewConflictErrorWithDetails("author", "foreign key constraint", "referenced by quote "+q.ID())
		}
	}

	return nil
}

// detached strips transient author attachments before quotes are stored.
type detached struct {
	*table[domain.Quote]
}

func (d detached) Insert(ctx context.Context, q domain.Quote) error {
	return d.table.Insert(ctx, q.WithoutAuthor())
}

func (d detached) Save(ctx context.Context, q domain.Quote) error {
	return d.table.Save(ctx, q.WithoutAuthor())
}
