package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotes-service/internal/platform/telemetry"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// ServiceName names the server spans.
	ServiceName string

	HealthHandler *handlers.HealthHandler
	PingHandler   *handlers.PingHandler
	AuthorHandler *handlers.AuthorHandler
	QuoteHandler  *handlers.QuoteHandler

	// KeyResolver authenticates /api/v1 callers. Nil disables authentication.
	KeyResolver ports.KeyResolver

	// RateLimiter throttles /api/v1 callers. Nil disables rate limiting.
	RateLimiter ports.RateLimiter

	// Timeout is the API request deadline.
	Timeout time.Duration

	// TimeoutSkipPaths are API paths exempt from Timeout.
	TimeoutSkipPaths []string
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints and /ping)
//  6. Error handler - renders errors attached by everything below
//
// The /api/v1 group adds, in order, the request timeout, API key
// authentication and rate limiting.
//
// Route groups:
//   - / and /ping: reachability, no auth
//   - /-/ (internal): Health endpoints, no auth
//   - /api/v1/ (public API): catalog endpoints
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(
		middleware.Logging("/ping"),
		ErrorHandler(),
	)

	engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(dto.ErrRouteNotFound)
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	if cfg.PingHandler != nil {
		cfg.PingHandler.RegisterRoutes(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(apiMiddleware(cfg)...)

	setupAPIRoutes(apiV1, cfg)
}

func apiMiddleware(cfg RouterConfig) []gin.HandlerFunc {
	var chain []gin.HandlerFunc

	if cfg.Timeout > 0 {
		chain = append(chain, middleware.Timeout(cfg.Timeout, cfg.TimeoutSkipPaths...))
	}

	if cfg.KeyResolver != nil {
		chain = append(chain, middleware.APIKeyAuth(cfg.KeyResolver))
	}

	if cfg.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(cfg.RateLimiter))
	}

	return chain
}

// setupAPIRoutes registers the catalog routes.
func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthorHandler != nil {
		cfg.AuthorHandler.RegisterRoutes(rg)
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterRoutes(rg)
	}
}
