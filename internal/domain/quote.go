package domain

// Quote is a piece of text attributed to an author. The attached Author is
// transient: it is rebuilt on every read and never persisted.
type Quote struct {
	id       string
	text     string
	authorID string
	author   *Author
}

// NewQuote returns a quote referencing authorID with no author attached.
func NewQuote(id, text, authorID string) Quote {
	return Quote{id: id, text: text, authorID: authorID}
}

// ID returns the quote's immutable identifier.
func (q Quote) ID() string { return q.id }

// Text returns the quote text.
func (q Quote) Text() string { return q.text }

// AuthorID returns the id of the owning author.
func (q Quote) AuthorID() string { return q.authorID }

// Author returns the attached author, if one has been resolved.
func (q Quote) Author() (Author, bool) {
	if q.author == nil {
		return Author{}, false
	}

	return *q.author, true
}

// WithText returns a copy with new text.
func (q Quote) WithText(text string) Quote {
	q.text = text
	return q
}

// WithAuthor returns a copy attached to a. The author id always follows the
// attachment so the two never disagree.
func (q Quote) WithAuthor(a Author) Quote {
	q.author = &a
	q.authorID = a.ID()

	return q
}

// WithAuthorID returns a copy owned by authorID. A stale attachment is dropped.
func (q Quote) WithAuthorID(authorID string) Quote {
	if q.authorID != authorID {
		q.author = nil
	}

	q.authorID = authorID

	return q
}

// WithoutAuthor returns a copy with no author attached.
func (q Quote) WithoutAuthor() Quote {
	q.author = nil
	return q
}

// ImportCandidate is a quote fetched from an upstream source that has not yet
// been stored in the catalog.
type ImportCandidate struct {
	SourceID   string
	Text       string
	AuthorName string
}
