package acl

import (
	"strings"

	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// quotableQuote is one quote as the quotable API serves it.
type quotableQuote struct {
	ID         string   `json:"_id"`
	Content    string   `json:"content"`
	Author     string   `json:"author"`
	AuthorSlug string   `json:"authorSlug"`
	Length     int      `json:"length"`
	Tags       []string `json:"tags"`
}

// toCandidate validates an upstream quote and converts it. Text and author
// are required; surrounding whitespace is dropped.
func toCandidate(q quotableQuote) (domain.ImportCandidate, error) {
	text := strings.TrimSpace(q.Content)
	author := strings.Join(strings.Fields(q.Author), " ")

	switch {
	case text == "":
		return domain.ImportCandidate{}, domain.NewValidationError("content", "is required")
	case author == "":
		return domain.ImportCandidate{}, domain.NewValidationError("author", "is required")
	}

	return domain.ImportCandidate{
		SourceID:   q.ID,
		Text:       text,
		AuthorName: author,
	}, nil
}
