package ports

import (
	"context"
)

// Feature flag names evaluated by the service.
const (
	// FlagCascadeDelete allows deleting an author together with its quotes.
	FlagCascadeDelete = "author-cascade-delete"

	// FlagQuoteImport enables importing quotes from the upstream source.
	FlagQuoteImport = "quote-import"

	// FlagRandomRetries overrides how often a lost random read is retried.
	FlagRandomRetries = "random-quote-retries"
)

// FeatureFlags evaluates feature flags. Implementations return the default
// when a flag is unknown or cannot be evaluated.
type FeatureFlags interface {
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool
	GetInt(ctx context.Context, flag string, defaultValue int) int
}
