// Package flags evaluates feature flags from configuration.
package flags

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// Static serves flag values fixed at startup. Values are parsed on every
// evaluation so a malformed value falls back to the caller's default
// instead of failing startup.
type Static struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ ports.FeatureFlags = (*Static)(nil)

// NewStatic creates flags from raw values. Keys are normalized so that
// "quote_import" and "quote-import" name the same flag, since environment
// variables cannot contain dashes.
func NewStatic(values map[string]string) *Static {
	normalized := make(map[string]string, len(values))
	for k, v := range values {
		normalized[normalize(k)] = strings.TrimSpace(v)
	}

	return &Static{values: normalized}
}

// Set overrides a flag at runtime.
func (s *Static) Set(flag, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[normalize(flag)] = value
}

// IsEnabled implements ports.FeatureFlags.
func (s *Static) IsEnabled(ctx context.Context, flag string, defaultValue bool) bool {
	raw, ok := s.lookup(flag)
	if !ok {
		return defaultValue
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.malformed(ctx, flag, raw, err)
		return defaultValue
	}

	return v
}

// GetInt implements ports.FeatureFlags.
func (s *Static) GetInt(ctx context.Context, flag string, defaultValue int) int {
	raw, ok := s.lookup(flag)
	if !ok {
		return defaultValue
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		s.malformed(ctx, flag, raw, err)
		return defaultValue
	}

	return v
}

func (s *Static) lookup(flag string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[normalize(flag)]

	return v, ok && v != ""
}

func (s *Static) malformed(ctx context.Context, flag, raw string, err error) {
	logging.FromContext(ctx).WarnContext(ctx, "malformed feature flag value, using default",
		slog.String("flag", flag),
		slog.String("value", raw),
		slog.Any("error", err),
	)
}

func normalize(flag string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(flag)), "_", "-")
}
