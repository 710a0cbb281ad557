package dto

import (
	"github.com/jsamuelsen/quotes-service/internal/app"
	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// AuthorResponse is an author as the API returns it.
type AuthorResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Quotes int    `json:"quotes"`
}

// QuoteResponse is a quote with its author attached.
type QuoteResponse struct {
	ID     string         `json:"id"`
	Text   string         `json:"text"`
	Author AuthorResponse `json:"author"`
}

// AuthorRequest creates or renames an author.
type AuthorRequest struct {
	Name string `json:"name" validate:"required,notempty,max=255"`
}

// AddQuoteRequest adds a quote to an author.
type AddQuoteRequest struct {
	Text string `json:"text" validate:"required,notempty"`
}

// ReplaceQuoteRequest replaces both fields of a quote.
type ReplaceQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notempty"`
	AuthorID string `json:"authorId" validate:"required,notempty"`
}

// PatchQuoteRequest changes any subset of a quote's fields.
type PatchQuoteRequest struct {
	Text     *string `json:"text"     validate:"omitnil,notempty"`
	AuthorID *string `json:"authorId" validate:"omitnil,notempty"`
}

// Validate requires at least one field.
func (r PatchQuoteRequest) Validate() error {
	if r.Text == nil && r.AuthorID == nil {
		return domain.NewValidationError("", "at least one of text or authorId is required")
	}

	return nil
}

// Changes converts the request to a store update.
func (r PatchQuoteRequest) Changes() app.QuoteChanges {
	return app.QuoteChanges{Text: r.Text, AuthorID: r.AuthorID}
}

// Changes converts the request to a store update.
func (r ReplaceQuoteRequest) Changes() app.QuoteChanges {
	return app.QuoteChanges{Text: &r.Text, AuthorID: &r.AuthorID}
}

// ImportRequest asks for count upstream quotes.
type ImportRequest struct {
	Count int `json:"count" validate:"required,min=1"`
}

// ImportFailure is one upstream quote that was not imported.
type ImportFailure struct {
	Author string `json:"author,omitempty"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason"`
}

// ImportResponse reports an import.
type ImportResponse struct {
	Imported []QuoteResponse `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

// DeletedResponse reports whether a delete removed anything.
type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

// PingResponse acknowledges a ping with the server time in unix seconds.
type PingResponse struct {
	Ack int64 `json:"ack"`
}

// NewAuthorResponse converts an author.
func NewAuthorResponse(a domain.Author) AuthorResponse {
	return AuthorResponse{ID: a.ID(), Name: a.Name(), Quotes: a.QuoteCount()}
}

// NewAuthorResponses converts authors, keeping an empty result as [].
func NewAuthorResponses(authors []domain.Author) []AuthorResponse {
	out := make([]AuthorResponse, 0, len(authors))
	for _, a := range authors {
		out = append(out, NewAuthorResponse(a))
	}

	return out
}

// NewQuoteResponse converts a quote. A quote whose author is not attached
// reports only the author id.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	resp := QuoteResponse{ID: q.ID(), Text: q.Text(), Author: AuthorResponse{ID: q.AuthorID()}}

	if a, ok := q.Author(); ok {
		resp.Author = NewAuthorResponse(a)
	}

	return resp
}

// NewQuoteResponses converts quotes, keeping an empty result as [].
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// NewImportResponse converts an import result. Failure reasons use the
// client-facing message of coded errors only.
func NewImportResponse(r *app.ImportResult) ImportResponse {
	resp := ImportResponse{
		Imported: NewQuoteResponses(r.Imported),
		Failed:   make([]ImportFailure, 0, len(r.Failed)),
	}

	for _, f := range r.Failed {
		reason, ok := domain.MessageOf(f.Err)
		if !ok {
			reason = "upstream quote could not be imported"
		}

		resp.Failed = append(resp.Failed, ImportFailure{Author: f.AuthorName, Text: f.Text, Reason: reason})
	}

	return resp
}
