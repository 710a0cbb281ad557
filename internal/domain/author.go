package domain

// UnknownAuthorName labels the placeholder attached to quotes whose author
// row could not be loaded.
const UnknownAuthorName = "Unknown Author"

// Author is a named source of quotes. It is a value type: every change
// produces a new Author and leaves the receiver untouched.
type Author struct {
	id         string
	name       string
	quoteCount int
}

// NewAuthor returns an author with no quotes.
func NewAuthor(id, name string) Author {
	return Author{id: id, name: name}
}

// RestoreAuthor rebuilds an author from a stored row, including its
// persisted quote count. Only storage adapters should call it.
func RestoreAuthor(id, name string, quoteCount int) Author {
	if quoteCount < 0 {
		quoteCount = 0
	}

	return Author{id: id, name: name, quoteCount: quoteCount}
}

// UnknownAuthor returns the placeholder for an author id that did not resolve.
func UnknownAuthor(id string) Author {
	return Author{id: id, name: UnknownAuthorName}
}

// ID returns the author's immutable identifier.
func (a Author) ID() string { return a.id }

// Name returns the author's unique name.
func (a Author) Name() string { return a.name }

// QuoteCount returns the number of quotes that reference this author.
func (a Author) QuoteCount() int { return a.quoteCount }

// IsZero reports whether a is the zero Author.
func (a Author) IsZero() bool { return a == Author{} }

// WithName returns a renamed copy.
func (a Author) WithName(name string) Author {
	a.name = name
	return a
}

// WithQuotes returns a copy whose quote count is len(quotes). This is the only
// way to change the count of an existing author.
func (a Author) WithQuotes(quotes ...Quote) Author {
	a.quoteCount = len(quotes)
	return a
}
