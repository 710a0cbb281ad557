package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimit returns middleware that applies limiter per caller. Callers are
// keyed by principal when authenticated, else by client IP. Limiter failures
// let the request through.
func RateLimit(limiter ports.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logging.FromContext(c.Request.Context()).WarnContext(c.Request.Context(),
				"rate limiter unavailable, allowing request",
				slog.String("key", key),
				slog.Any("error", err),
			)
			c.Next()

			return
		}

		c.Header(HeaderRateLimitLimit, strconv.FormatInt(decision.Limit, 10))
		c.Header(HeaderRateLimitRemaining, strconv.FormatInt(decision.Remaining, 10))

		if !decision.Allowed {
			seconds := int64(math.Ceil(decision.RetryAfter.Seconds()))
			c.Header(HeaderRetryAfter, strconv.FormatInt(max(seconds, 1), 10))

			_ = c.Error(dto.ErrRateLimited)
			c.Abort()

			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if principal := GetPrincipal(c); principal != "" {
		return "principal:" + principal
	}

	return "ip:" + c.ClientIP()
}
