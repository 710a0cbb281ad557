package domain

import (
	"errors"
	"fmt"
)

// Code is a stable numeric identifier for a catalog failure. Codes are part
// of the public API and must never be renumbered.
type Code int

// Author codes are 1xxx, quote codes 2xxx, access codes 9xxx.
const (
	CodeNoAuthorsFound     Code = 1001
	CodeAuthorIDNotFound   Code = 1002
	CodeAuthorNameNotFound Code = 1003
	CodeAuthorDataInvalid  Code = 1011
	CodeAuthorNotAdded     Code = 1102
	CodeAuthorNotUpdated   Code = 1103
	CodeAuthorNotDeleted   Code = 1104
	CodeQuoteCountNotZero  Code = 1201

	CodeNoQuotesFound    Code = 2001
	CodeQuoteIDNotFound  Code = 2002
	CodeQuoteDataInvalid Code = 2011
	CodeQuoteNotAdded    Code = 2102
	CodeQuoteNotUpdated  Code = 2103

	CodeInvalidAPIKey Code = 9001
)

type codeInfo struct {
	kinds    []error
	template string
}

var codeTable = map[Code]codeInfo{
	CodeNoAuthorsFound:     {[]error{ErrNotFound}, "No authors could be found"},
	CodeAuthorIDNotFound:   {[]error{ErrNotFound, ErrAuthorIDNotFound}, "Requested author %q could not be found"},
	CodeAuthorNameNotFound: {[]error{ErrNotFound}, "Requested author name %q could not be found"},
	CodeAuthorDataInvalid:  {[]error{ErrValidation}, "The author data provided was invalid"},
	CodeAuthorNotAdded:     {[]error{ErrNotAdded}, "Unable to add author %q"},
	CodeAuthorNotUpdated:   {[]error{ErrNotUpdated}, "Unable to update author name from %q to %q"},
	CodeAuthorNotDeleted:   {[]error{ErrNotDeleted}, "Unable to delete author %q"},
	CodeQuoteCountNotZero:  {[]error{ErrQuoteCountNotZero}, "Author has more than zero quotes. Actual count is %d"},
	CodeNoQuotesFound:      {[]error{ErrNotFound}, "No quotes could be found"},
	CodeQuoteIDNotFound:    {[]error{ErrNotFound}, "Requested quote %q could not be found"},
	CodeQuoteDataInvalid:   {[]error{ErrValidation}, "The quote data provided was invalid"},
	CodeQuoteNotAdded:      {[]error{ErrNotAdded}, "Unable to add quote %q for author %q"},
	CodeQuoteNotUpdated:    {[]error{ErrNotUpdated}, "Unable to update quote %q"},
	CodeInvalidAPIKey:      {[]error{ErrUnauthenticated}, "Invalid API key provided"},
}

// CodedError is implemented by every catalog failure.
type CodedError interface {
	error
	Code() Code
	Message() string
}

// CatalogError is a coded failure with a templated message. It unwraps to its
// kind sentinels and, when present, to the underlying cause.
type CatalogError struct {
	code  Code
	args  []any
	cause error
}

func newCatalogError(code Code, cause error, args ...any) *CatalogError {
	return &CatalogError{code: code, args: args, cause: cause}
}

// Code returns the stable numeric code.
func (e *CatalogError) Code() Code {
	return e.code
}

// Message renders the client-facing message.
func (e *CatalogError) Message() string {
	info, ok := codeTable[e.code]
	if !ok {
		return fmt.Sprintf("catalog error %d", e.code)
	}

	if len(e.args) == 0 {
		return info.template
	}

	return fmt.Sprintf(info.template, e.args...)
}

// Error implements the error interface. The cause is included for logs only.
func (e *CatalogError) Error() string {
	if e.cause != nil {
		return e.Message() + ": " + e.cause.Error()
	}

	return e.Message()
}

// Unwrap exposes the kind sentinels and the cause to errors.Is and errors.As.
func (e *CatalogError) Unwrap() []error {
	errs := append([]error(nil), codeTable[e.code].kinds...)
	if e.cause != nil {
		errs = append(errs, e.cause)
	}

	return errs
}

// Cause returns the wrapped storage or lookup failure, if any.
func (e *CatalogError) Cause() error {
	return e.cause
}

// QuoteCountNotZeroError blocks deleting an author that still owns quotes.
type QuoteCountNotZeroError struct {
	Count int
}

// Code returns CodeQuoteCountNotZero.
func (e *QuoteCountNotZeroError) Code() Code {
	return CodeQuoteCountNotZero
}

// Message renders the client-facing message.
func (e *QuoteCountNotZeroError) Message() string {
	return fmt.Sprintf(codeTable[CodeQuoteCountNotZero].template, e.Count)
}

// Error implements the error interface.
func (e *QuoteCountNotZeroError) Error() string {
	return e.Message()
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *QuoteCountNotZeroError) Unwrap() error {
	return ErrQuoteCountNotZero
}

// NewNoAuthorsFound reports an empty author table.
func NewNoAuthorsFound(cause error) error {
	return newCatalogError(CodeNoAuthorsFound, cause)
}

// NewAuthorIDNotFound reports an author id that did not resolve.
func NewAuthorIDNotFound(id string, cause error) error {
	return newCatalogError(CodeAuthorIDNotFound, cause, id)
}

// NewAuthorNameNotFound reports an author name that did not resolve.
func NewAuthorNameNotFound(name string, cause error) error {
	return newCatalogError(CodeAuthorNameNotFound, cause, name)
}

// NewAuthorDataInvalid reports a malformed author payload.
func NewAuthorDataInvalid(cause error) error {
	return newCatalogError(CodeAuthorDataInvalid, cause)
}

// NewAuthorNotAdded wraps a failed author insert.
func NewAuthorNotAdded(name string, cause error) error {
	return newCatalogError(CodeAuthorNotAdded, cause, name)
}

// NewAuthorNotUpdated wraps a failed rename.
func NewAuthorNotUpdated(oldName, newName string, cause error) error {
	return newCatalogError(CodeAuthorNotUpdated, cause, oldName, newName)
}

// NewAuthorNotDeleted wraps a failed author delete.
func NewAuthorNotDeleted(name string, cause error) error {
	return newCatalogError(CodeAuthorNotDeleted, cause, name)
}

// NewQuoteCountNotZero reports the count that blocked a delete.
func NewQuoteCountNotZero(count int) error {
	return &QuoteCountNotZeroError{Count: count}
}

// NewNoQuotesFound reports an empty quote table or a lost random read.
func NewNoQuotesFound(cause error) error {
	return newCatalogError(CodeNoQuotesFound, cause)
}

// NewQuoteIDNotFound reports a quote id that did not resolve.
func NewQuoteIDNotFound(id string, cause error) error {
	return newCatalogError(CodeQuoteIDNotFound, cause, id)
}

// NewQuoteDataInvalid reports a malformed quote payload.
func NewQuoteDataInvalid(cause error) error {
	return newCatalogError(CodeQuoteDataInvalid, cause)
}

// NewQuoteNotAdded wraps a failed quote insert or its follow-up recompute.
func NewQuoteNotAdded(text, authorName string, cause error) error {
	return newCatalogError(CodeQuoteNotAdded, cause, text, authorName)
}

// NewQuoteNotUpdated wraps a failed quote update.
func NewQuoteNotUpdated(id string, cause error) error {
	return newCatalogError(CodeQuoteNotUpdated, cause, id)
}

// NewInvalidAPIKey reports a missing or unknown API key.
func NewInvalidAPIKey() error {
	return newCatalogError(CodeInvalidAPIKey, nil)
}

// CodeOf returns the code of the outermost CodedError in err's chain.
func CodeOf(err error) (Code, bool) {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code(), true
	}

	return 0, false
}

// MessageOf returns the client-facing message of the outermost CodedError.
func MessageOf(err error) (string, bool) {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Message(), true
	}

	return "", false
}
