package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const (
	// HeaderAPIKey carries the caller's API key.
	HeaderAPIKey = "x-api-key"

	// ContextKeyPrincipal is the gin context key for the authenticated caller.
	ContextKeyPrincipal = "principal"
)

// APIKeyAuth returns middleware that requires a valid API key. The resolved
// principal is stored in the gin context, the request context and the
// request logger. A missing or unknown key aborts with domain code 9001.
func APIKeyAuth(resolver ports.KeyResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderAPIKey)
		if key == "" {
			_ = c.Error(domain.NewInvalidAPIKey())
			c.Abort()

			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), key)
		if err != nil {
			_ = c.Error(err)
			c.Abort()

			return
		}

		c.Set(ContextKeyPrincipal, principal.Name)

		ctx := ContextWithPrincipal(c.Request.Context(), principal.Name)
		ctx = logging.WithPrincipal(ctx, principal.Name)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetPrincipal returns the authenticated caller's name, or "" when the
// request was not authenticated.
func GetPrincipal(c *gin.Context) string {
	return c.GetString(ContextKeyPrincipal)
}
