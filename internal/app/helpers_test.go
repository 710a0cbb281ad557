package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// sequentialIDs returns ids that sort in creation order.
func sequentialIDs(prefix string) ports.IDGenerator {
	var n atomic.Int64

	return ports.IDGeneratorFunc(func() string {
		return fmt.Sprintf("%s-%04d", prefix, n.Add(1))
	})
}

type fixture struct {
	storage  *memory.Store
	registry *prometheus.Registry
	authors  *AuthorStore
	quotes   *QuoteStore
	catalog  *Catalog
}

func newFixture(t *testing.T, opts ...func(*QuoteStoreConfig)) *fixture {
	t.Helper()

	storage := memory.New()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	authors := NewAuthorStore(storage.Authors(), sequentialIDs("a"))

	cfg := QuoteStoreConfig{
		Quotes:     storage.Quotes(),
		Authors:    authors,
		Transactor: storage,
		IDs:        sequentialIDs("q"),
		Metrics:    metrics,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	quotes := NewQuoteStore(cfg)

	return &fixture{
		storage:  storage,
		registry: registry,
		authors:  authors,
		quotes:   quotes,
		catalog:  NewCatalog(CatalogConfig{Authors: authors, Quotes: quotes, Metrics: metrics}),
	}
}

func (f *fixture) addAuthor(t *testing.T, name string) domain.Author {
	t.Helper()

	author, err := f.authors.AddByName(context.Background(), name)
	require.NoError(t, err)

	return author
}

func (f *fixture) addQuote(t *testing.T, author, text string) domain.Quote {
	t.Helper()

	quote, err := f.quotes.AddQuoteByAuthorName(context.Background(), author, text)
	require.NoError(t, err)

	return quote
}

// requireCountsConsistent checks that every stored author count equals the
// number of stored quotes referencing it.
func (f *fixture) requireCountsConsistent(t *testing.T) {
	t.Helper()

	ctx := context.Background()

	authors, err := f.storage.Authors().Find(ctx, nil, nil, ports.Page{})
	require.NoError(t, err)

	for _, a := range authors {
		n, err := f.storage.Quotes().Count(ctx, ports.Criteria{ports.FieldAuthorID: a.ID()})
		require.NoError(t, err)
		require.Equalf(t, n, a.QuoteCount(), "author %s", a.Name())
	}
}

func (f *fixture) storedAuthor(t *testing.T, name string) domain.Author {
	t.Helper()

	author, err := f.storage.Authors().FindOne(context.Background(), ports.Criteria{ports.FieldName: name})
	require.NoError(t, err)

	return author
}

func requireCode(t *testing.T, err error, want domain.Code) {
	t.Helper()

	require.Error(t, err)

	code, ok := domain.CodeOf(err)
	require.Truef(t, ok, "error %v carries no code", err)
	require.Equal(t, want, code)
}
