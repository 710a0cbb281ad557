package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jsamuelsen/quotes-service/internal/domain"
)

func hashKey(t *testing.T, key string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)

	return string(hash)
}

func newResolver(t *testing.T) *HashedKeyResolver {
	t.Helper()

	r, err := NewHashedKeyResolver([]Key{
		{Principal: "reader", Hash: hashKey(t, "reader-key")},
		{Principal: "editor", Hash: hashKey(t, "editor-key")},
	}, time.Minute)
	require.NoError(t, err)

	return r
}

func TestHashedKeyResolver_Resolve(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		key       string
		principal string
	}{
		{name: "first key", key: "reader-key", principal: "reader"},
		{name: "second key", key: "editor-key", principal: "editor"},
		{name: "unknown key", key: "nope"},
		{name: "missing key", key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Resolve(ctx, tt.key)

			if tt.principal == "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrUnauthenticated)

				code, ok := domain.CodeOf(err)
				require.True(t, ok)
				assert.Equal(t, domain.CodeInvalidAPIKey, code)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.principal, p.Name)
		})
	}
}

func TestHashedKeyResolver_Memoizes(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "editor-key")
	require.NoError(t, err)

	_, err = r.Resolve(ctx, "wrong-key")
	require.Error(t, err)

	assert.Equal(t, 2, r.cache.ItemCount())

	// Drop the keys: cached outcomes still answer.
	r.keys = nil

	p, err := r.Resolve(ctx, "editor-key")
	require.NoError(t, err)
	assert.Equal(t, "editor", p.Name)

	_, err = r.Resolve(ctx, "wrong-key")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, found := r.cache.Get("editor-key")
	assert.False(t, found, "plaintext key must not be a cache key")
}

func TestNewHashedKeyResolver_Rejects(t *testing.T) {
	_, err := NewHashedKeyResolver([]Key{{Principal: "x", Hash: "plaintext"}}, 0)
	assert.Error(t, err)

	_, err = NewHashedKeyResolver([]Key{{Principal: " ", Hash: hashKey(t, "k")}}, 0)
	assert.Error(t, err)

	r, err := NewHashedKeyResolver(nil, 0)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		fingerprint(""),
	)
	assert.Len(t, fingerprint("reader-key"), 64)
}
