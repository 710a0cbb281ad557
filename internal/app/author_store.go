// Package app holds the catalog's use cases. The author and quote stores keep
// every author's quote count equal to the number of quotes referencing it;
// Catalog and Importer expose those stores to the transport layer.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// AuthorStore owns author rows. It never touches quotes.
type AuthorStore struct {
	repo ports.AuthorRepository
	ids  ports.IDGenerator
}

// NewAuthorStore creates an author store over repo.
func NewAuthorStore(repo ports.AuthorRepository, ids ports.IDGenerator) *AuthorStore {
	return &AuthorStore{repo: repo, ids: ids}
}

func (s *AuthorStore) logger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx).With(slog.String("component", "app.AuthorStore"))
}

// FindAll returns every author ordered by name. An empty catalog is an error.
func (s *AuthorStore) FindAll(ctx context.Context) ([]domain.Author, error) {
	authors, err := s.repo.Find(ctx, nil, []ports.Order{{Field: ports.FieldName}}, ports.Page{})
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}

	if len(authors) == 0 {
		return nil, domain.NewNoAuthorsFound(nil)
	}

	return authors, nil
}

// FindByID returns the author with id.
func (s *AuthorStore) FindByID(ctx context.Context, id string) (domain.Author, error) {
	author, err := s.repo.FindOne(ctx, ports.Criteria{ports.FieldID: id})
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Author{}, domain.NewAuthorIDNotFound(id, err)
		}

		return domain.Author{}, fmt.Errorf("finding author %q: %w", id, err)
	}

	return author, nil
}

// FindByName returns the author called name.
func (s *AuthorStore) FindByName(ctx context.Context, name string) (domain.Author, error) {
	author, err := s.repo.FindOne(ctx, ports.Criteria{ports.FieldName: name})
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Author{}, domain.NewAuthorNameNotFound(name, err)
		}

		return domain.Author{}, fmt.Errorf("finding author named %q: %w", name, err)
	}

	return author, nil
}

// AddByName creates an author with no quotes. A name already in use fails
// with a NotAdded error.
func (s *AuthorStore) AddByName(ctx context.Context, name string) (domain.Author, error) {
	author := domain.NewAuthor(s.ids.NewID(), name)

	if err := s.repo.Insert(ctx, author); err != nil {
		s.logger(ctx).ErrorContext(ctx, "failed to add author",
			slog.String("author", name),
			slog.Any("error", err),
		)

		return domain.Author{}, domain.NewAuthorNotAdded(name, err)
	}

	s.logger(ctx).InfoContext(ctx, "author added",
		slog.String("author_id", author.ID()),
		slog.String("author", name),
	)

	return author, nil
}

// RemoveByName deletes the author called name. Authors that still own quotes
// are refused before storage is touched.
func (s *AuthorStore) RemoveByName(ctx context.Context, name string) error {
	author, err := s.FindByName(ctx, name)
	if err != nil {
		return err
	}

	if author.QuoteCount() > 0 {
		return domain.NewQuoteCountNotZero(author.QuoteCount())
	}

	removed, err := s.repo.Delete(ctx, ports.Criteria{ports.FieldID: author.ID()})
	if err != nil {
		s.logger(ctx).ErrorContext(ctx, "failed to delete author",
			slog.String("author", name),
			slog.Any("error", err),
		)

		return domain.NewAuthorNotDeleted(name, err)
	}

	if removed == 0 {
		return domain.NewAuthorNameNotFound(name, domain.ErrNotFound)
	}

	s.logger(ctx).InfoContext(ctx, "author deleted", slog.String("author_id", author.ID()))

	return nil
}

// UpdateByName renames an author. Taking a name that belongs to another
// author fails with a NotUpdated error and leaves the old name in place.
func (s *AuthorStore) UpdateByName(ctx context.Context, oldName, newName string) (domain.Author, error) {
	author, err := s.FindByName(ctx, oldName)
	if err != nil {
		return domain.Author{}, err
	}

	renamed := author.WithName(newName)

	if err := s.repo.Save(ctx, renamed); err != nil {
		s.logger(ctx).ErrorContext(ctx, "failed to rename author",
			slog.String("from", oldName),
			slog.String("to", newName),
			slog.Any("error", err),
		)

		return domain.Author{}, domain.NewAuthorNotUpdated(oldName, newName, err)
	}

	return renamed, nil
}

// UpdateAuthor persists a as given. It is the write-back step of a quote
// count recompute and performs no checks of its own.
func (s *AuthorStore) UpdateAuthor(ctx context.Context, a domain.Author) (domain.Author, error) {
	if err := s.repo.Save(ctx, a); err != nil {
		return domain.Author{}, fmt.Errorf("persisting author %q: %w", a.ID(), err)
	}

	return a, nil
}
