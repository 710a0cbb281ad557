package app

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/mocks"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

func TestCatalog_ScenarioA_DeleteBlockedByQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	twain, err := f.catalog.CreateAuthor(ctx, "Twain")
	require.NoError(t, err)
	assert.Zero(t, twain.QuoteCount())

	_, err = f.catalog.AddQuote(ctx, "Twain", "The report of my death was an exaggeration.")
	require.NoError(t, err)

	twain, err = f.catalog.GetAuthor(ctx, "Twain")
	require.NoError(t, err)
	assert.Equal(t, 1, twain.QuoteCount())

	err = f.catalog.DeleteAuthor(ctx, "Twain", false)
	requireCode(t, err, domain.CodeQuoteCountNotZero)
	assert.Equal(t, "Author has more than zero quotes. Actual count is 1", err.Error())

	quotes, err := f.catalog.ListQuotesByAuthor(ctx, "Twain")
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}

func TestCatalog_ScenarioB_QuoteForUnknownAuthor(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.AddQuote(context.Background(), "Ghost", "Boo.")
	requireCode(t, err, domain.CodeAuthorNameNotFound)
	assert.True(t, domain.IsNotFound(err))
}

func TestCatalog_ScenarioC_RandomFromEmptySet(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.RandomQuote(context.Background())
	requireCode(t, err, domain.CodeNoQuotesFound)
	assert.InDelta(t, 0, testutil.ToFloat64(f.quotes.metrics.randomRetries), 0.001)
}

func TestCatalog_ScenarioD_DeleteAfterQuotesRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateAuthor(ctx, "A")
	require.NoError(t, err)

	first, err := f.catalog.AddQuote(ctx, "A", "first")
	require.NoError(t, err)
	second, err := f.catalog.AddQuote(ctx, "A", "second")
	require.NoError(t, err)

	author, err := f.catalog.GetAuthor(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, author.QuoteCount())

	require.True(t, f.catalog.DeleteQuote(ctx, first.ID()))
	author, err = f.catalog.GetAuthor(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, author.QuoteCount())

	require.True(t, f.catalog.DeleteQuote(ctx, second.ID()))
	author, err = f.catalog.GetAuthor(ctx, "A")
	require.NoError(t, err)
	assert.Zero(t, author.QuoteCount())

	require.NoError(t, f.catalog.DeleteAuthor(ctx, "A", false))

	_, err = f.catalog.ListAuthors(ctx)
	requireCode(t, err, domain.CodeNoAuthorsFound)
}

func TestCatalog_DeleteAuthor_RecountsStaleCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	twain := f.addAuthor(t, "Twain")
	f.addQuote(t, "Twain", "one")

	// A stale zero must not let the delete through.
	require.NoError(t, f.storage.Authors().Save(ctx, domain.RestoreAuthor(twain.ID(), "Twain", 0)))

	err := f.catalog.DeleteAuthor(ctx, "Twain", false)
	requireCode(t, err, domain.CodeQuoteCountNotZero)
	assert.Equal(t, 1, f.storedAuthor(t, "Twain").QuoteCount())
}

func TestCatalog_DeleteAuthor_Cascade(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		wantErr bool
	}{
		{name: "flag off refuses", enabled: false, wantErr: true},
		{name: "flag on removes quotes and author", enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.addAuthor(t, "Twain")
			f.addQuote(t, "Twain", "one")
			f.addQuote(t, "Twain", "two")

			flags := mocks.NewMockFeatureFlags(t)
			flags.EXPECT().IsEnabled(mock.Anything, ports.FlagCascadeDelete, false).Return(tt.enabled)

			catalog := NewCatalog(CatalogConfig{Authors: f.authors, Quotes: f.quotes, Flags: flags})

			err := catalog.DeleteAuthor(ctx, "Twain", true)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsForbidden(err))
				assert.Equal(t, 2, f.storedAuthor(t, "Twain").QuoteCount())

				return
			}

			require.NoError(t, err)

			_, err = catalog.GetAuthor(ctx, "Twain")
			requireCode(t, err, domain.CodeAuthorNameNotFound)

			n, err := f.storage.Quotes().Count(ctx, nil)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestCatalog_CreateAuthor_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		code  domain.Code
	}{
		{name: "trims whitespace", input: "  Twain  ", want: "Twain"},
		{name: "blank", input: "   ", code: domain.CodeAuthorDataInvalid},
		{name: "too long", input: strings.Repeat("x", 256), code: domain.CodeAuthorDataInvalid},
		{name: "multibyte at limit", input: strings.Repeat("é", 255), want: strings.Repeat("é", 255)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			author, err := f.catalog.CreateAuthor(context.Background(), tt.input)
			if tt.code != 0 {
				requireCode(t, err, tt.code)
				assert.True(t, domain.IsValidation(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, author.Name())
		})
	}
}

func TestCatalog_RenameAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addAuthor(t, "Twain")

	_, err := f.catalog.RenameAuthor(ctx, "Twain", "")
	requireCode(t, err, domain.CodeAuthorDataInvalid)

	renamed, err := f.catalog.RenameAuthor(ctx, "Twain", " Mark Twain ")
	require.NoError(t, err)
	assert.Equal(t, "Mark Twain", renamed.Name())
}

func TestCatalog_PurgeAuthorQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addAuthor(t, "Twain")
	f.addQuote(t, "Twain", "one")

	purged, err := f.catalog.PurgeAuthorQuotes(ctx, "Twain")
	require.NoError(t, err)
	assert.True(t, purged)
	assert.Zero(t, f.storedAuthor(t, "Twain").QuoteCount())

	_, err = f.catalog.PurgeAuthorQuotes(ctx, "Ghost")
	requireCode(t, err, domain.CodeAuthorNameNotFound)
}

func TestCatalog_AddQuote_BlankText(t *testing.T) {
	f := newFixture(t)
	f.addAuthor(t, "Twain")

	_, err := f.catalog.AddQuote(context.Background(), "Twain", " \t ")
	requireCode(t, err, domain.CodeQuoteDataInvalid)
}

func TestCatalog_UpdateQuote_Validation(t *testing.T) {
	ptr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		changes QuoteChanges
	}{
		{name: "no fields", changes: QuoteChanges{}},
		{name: "blank text", changes: QuoteChanges{Text: ptr("  ")}},
		{name: "blank author id", changes: QuoteChanges{AuthorID: ptr("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.catalog.UpdateQuote(context.Background(), "q-0001", tt.changes)
			requireCode(t, err, domain.CodeQuoteDataInvalid)
		})
	}
}

func TestCatalog_RandomQuote_RetriesLostRace(t *testing.T) {
	tests := []struct {
		name        string
		misses      int
		retries     int
		wantErr     bool
		wantRetries float64
	}{
		{name: "succeeds after two misses", misses: 2, retries: 3, wantRetries: 2},
		{name: "gives up when retries run out", misses: 5, retries: 1, wantErr: true, wantRetries: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, repo, _ := mockedQuotes(t)
			metrics := NewMetrics(prometheus.NewRegistry())

			flags := mocks.NewMockFeatureFlags(t)
			flags.EXPECT().GetInt(mock.Anything, ports.FlagRandomRetries, defaultRandomRetries).Return(tt.retries)

			attempts := min(tt.misses, tt.retries+1)

			repo.EXPECT().Count(mock.Anything, ports.Criteria(nil)).Return(2, nil).Times(attempts + boolToInt(!tt.wantErr))
			repo.EXPECT().Find(mock.Anything, ports.Criteria(nil), mock.Anything, mock.Anything).
				Return([]domain.Quote{}, nil).Times(attempts)

			if !tt.wantErr {
				repo.EXPECT().Find(mock.Anything, ports.Criteria(nil), mock.Anything, mock.Anything).
					Return([]domain.Quote{domain.NewQuote("q-1", "found", "a-1")}, nil).Once()
			}

			catalog := NewCatalog(CatalogConfig{Quotes: store, Flags: flags, Metrics: metrics})

			quote, err := catalog.RandomQuote(context.Background())
			if tt.wantErr {
				requireCode(t, err, domain.CodeNoQuotesFound)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "q-1", quote.ID())
			}

			assert.InDelta(t, tt.wantRetries, testutil.ToFloat64(metrics.randomRetries), 0.001)
		})
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
