package ports

import (
	"context"

	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// Field names shared by every storage adapter. Criteria and Order keys must
// use these.
const (
	FieldID         = "id"
	FieldName       = "name"
	FieldQuoteCount = "quote_count"
	FieldText       = "text"
	FieldAuthorID   = "author_id"
)

// Criteria is a conjunction of exact-match conditions keyed by field name.
// A nil or empty Criteria matches every row.
type Criteria map[string]any

// Order sorts results by a field.
type Order struct {
	Field string
	Desc  bool
}

// Page bounds a result set. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Repository is the generic data-access contract over one row shape.
//
// Adapters report a miss as domain.ErrNotFound and a constraint violation
// (unique name, dangling author id, author still referenced) as
// domain.ErrConflict. Any other failure is returned wrapped.
type Repository[T any] interface {
	// FindOne returns the single row matching where.
	FindOne(ctx context.Context, where Criteria) (T, error)

	// Find returns matching rows sorted by order and bounded by page.
	Find(ctx context.Context, where Criteria, order []Order, page Page) ([]T, error)

	// Count returns the number of matching rows.
	Count(ctx context.Context, where Criteria) (int, error)

	// Insert stores a new row.
	Insert(ctx context.Context, row T) error

	// Save overwrites the stored row with the same id.
	// Returns domain.ErrNotFound if no such row exists.
	Save(ctx context.Context, row T) error

	// Delete removes matching rows and returns how many were removed.
	Delete(ctx context.Context, where Criteria) (int64, error)
}

// AuthorRepository stores authors.
type AuthorRepository = Repository[domain.Author]

// QuoteRepository stores quotes. Returned quotes carry no author attachment.
type QuoteRepository = Repository[domain.Quote]

// Transactor runs fn inside a storage transaction. Repositories called with
// the context passed to fn take part in that transaction. Adapters without
// transactions run fn directly.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Storage bundles the repositories of one backend.
type Storage interface {
	Transactor
	HealthChecker

	Authors() AuthorRepository
	Quotes() QuoteRepository
	Close() error
}
