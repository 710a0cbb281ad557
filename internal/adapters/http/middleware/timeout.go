package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
)

// Timeout returns middleware that gives every request a deadline.
// Handlers run on the request goroutine and must respect ctx.Done(); when
// the deadline passes without a response, context.DeadlineExceeded is
// attached for the error handler, which answers 504.
func Timeout(timeout time.Duration, skipPaths ...string) gin.HandlerFunc {
	skipMap := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skipMap[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, skip := skipMap[c.Request.URL.Path]; skip || timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}

		logging.FromContext(ctx).WarnContext(ctx, "request timeout",
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Duration("timeout", timeout),
		)

		if !c.Writer.Written() && len(c.Errors) == 0 {
			_ = c.Error(ctx.Err())
		}
	}
}
