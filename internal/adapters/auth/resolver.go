// Package auth resolves API keys to the principals that own them.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const defaultCacheTTL = 5 * time.Minute

// Key binds a bcrypt hash of an API key to its owner.
type Key struct {
	Principal string
	Hash      string
}

// HashedKeyResolver checks presented keys against configured bcrypt hashes.
// bcrypt is slow on purpose, so outcomes are memoized for a while under the
// SHA-256 of the key. The plaintext key is never stored.
type HashedKeyResolver struct {
	keys  []Key
	cache *gocache.Cache
}

var _ ports.KeyResolver = (*HashedKeyResolver)(nil)

// lookup is a memoized outcome. An empty principal marks an unknown key.
type lookup struct {
	principal string
}

// NewHashedKeyResolver creates a resolver over keys. A non-positive ttl uses
// the default.
func NewHashedKeyResolver(keys []Key, ttl time.Duration) (*HashedKeyResolver, error) {
	for _, k := range keys {
		if strings.TrimSpace(k.Principal) == "" {
			return nil, errors.New("api key without principal")
		}

		if _, err := bcrypt.Cost([]byte(k.Hash)); err != nil {
			return nil, fmt.Errorf("api key of %q: %w", k.Principal, err)
		}
	}

	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &HashedKeyResolver{
		keys:  keys,
		cache: gocache.New(ttl, time.Minute),
	}, nil
}

// Resolve returns the principal owning key.
func (r *HashedKeyResolver) Resolve(ctx context.Context, key string) (ports.Principal, error) {
	if key == "" {
		return ports.Principal{}, domain.NewInvalidAPIKey()
	}

	digest := fingerprint(key)

	if v, ok := r.cache.Get(digest); ok {
		return result(v.(lookup))
	}

	found := lookup{}

	for _, k := range r.keys {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(key)) == nil {
			found.principal = k.Principal
			break
		}
	}

	r.cache.SetDefault(digest, found)

	if found.principal == "" {
		logging.FromContext(ctx).DebugContext(ctx, "unknown api key",
			slog.String("key_fingerprint", digest[:12]),
		)
	}

	return result(found)
}

func result(l lookup) (ports.Principal, error) {
	if l.principal == "" {
		return ports.Principal{}, domain.NewInvalidAPIKey()
	}

	return ports.Principal{Name: l.principal}, nil
}

func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
