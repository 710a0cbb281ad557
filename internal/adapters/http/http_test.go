package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotes-service/internal/app"
	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/mocks"
	"github.com/jsamuelsen/quotes-service/internal/platform/config"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		domainCode     int
		message        string
		detailField    string
	}{
		{
			name:           "nil error returns 200",
			err:            nil,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown author id",
			err:            domain.NewAuthorIDNotFound("a-1", domain.NewNotFoundError("author", "a-1")),
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrorCodeNotFound,
			domainCode:     1002,
			message:        `Requested author "a-1" could not be found`,
		},
		{
			name:           "empty quote table",
			err:            domain.NewNoQuotesFound(nil),
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrorCodeNotFound,
			domainCode:     2001,
			message:        "No quotes could be found",
		},
		{
			name:           "invalid author payload",
			err:            domain.NewAuthorDataInvalid(dto.ErrValidation),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			domainCode:     1011,
			message:        "The author data provided was invalid",
		},
		{
			name: "failed insert wrapping a conflict",
			err: domain.NewAuthorNotAdded("Seneca",
				domain.NewConflictError("author", "name already exists")),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeWriteFailed,
			domainCode:     1102,
			message:        `Unable to add author "Seneca"`,
		},
		{
			name:           "author still owns quotes",
			err:            domain.NewQuoteCountNotZero(3),
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrorCodeConflict,
			domainCode:     1201,
			message:        "Author has more than zero quotes. Actual count is 3",
		},
		{
			name:           "invalid api key",
			err:            domain.NewInvalidAPIKey(),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   dto.ErrorCodeUnauthorized,
			domainCode:     9001,
			message:        "Invalid API key provided",
		},
		{
			name:           "field validation error",
			err:            domain.NewValidationError("cascade", "must be a boolean"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidation,
			detailField:    "cascade",
		},
		{
			name:           "conflict error",
			err:            domain.NewConflictError("author", "already exists"),
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrorCodeConflict,
		},
		{
			name:           "forbidden error",
			err:            domain.NewForbiddenError("import quotes", "not configured"),
			expectedStatus: http.StatusForbidden,
			expectedCode:   dto.ErrorCodeForbidden,
		},
		{
			name:           "unavailable error names the service",
			err:            fmt.Errorf("import: %w", domain.NewUnavailableError("quotable", "connection refused")),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   dto.ErrorCodeUnavailable,
			message:        `service "quotable" unavailable`,
		},
		{
			name:           "rate limited",
			err:            dto.ErrRateLimited,
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   dto.ErrorCodeRateLimited,
		},
		{
			name:           "malformed body",
			err:            fmt.Errorf("%w: unexpected EOF", dto.ErrBinding),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeBadRequest,
		},
		{
			name:           "oversized body",
			err:            fmt.Errorf("%w: %w", dto.ErrBinding, &http.MaxBytesError{Limit: 16}),
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedCode:   dto.ErrorCodeTooLarge,
		},
		{
			name:           "request deadline",
			err:            context.DeadlineExceeded,
			expectedStatus: http.StatusGatewayTimeout,
			expectedCode:   dto.ErrorCodeTimeout,
		},
		{
			name:           "unknown route",
			err:            dto.ErrRouteNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrorCodeNotFound,
		},
		{
			name:           "unknown error is hidden",
			err:            errors.New("pq: connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrorCodeInternal,
			message:        "an internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapDomainError(tt.err)

			assert.Equal(t, tt.expectedStatus, status)

			if tt.err == nil {
				assert.Nil(t, resp)
				return
			}

			require.NotNil(t, resp)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.Equal(t, tt.domainCode, resp.Error.DomainCode)

			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}

			if tt.detailField != "" {
				assert.Contains(t, resp.Error.Details, tt.detailField)
			}
		})
	}
}

func TestMapDomainError_RequestValidationDetails(t *testing.T) {
	err := dto.Validate(&nameRequest{})
	require.Error(t, err)

	status, resp := MapDomainError(domain.NewAuthorDataInvalid(err))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 1011, resp.Error.DomainCode)
	assert.Equal(t, "this field is required", resp.Error.Details["name"])
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/quotes/q-1", nil)

	RespondWithError(c, domain.NewQuoteIDNotFound("q-1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, c.IsAborted())

	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, dto.ErrorCodeNotFound, resp.Error.Code)
	assert.Equal(t, 2002, resp.Error.DomainCode)
	assert.Equal(t, `Requested quote "q-1" could not be found`, resp.Error.Message)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name           string
		handler        gin.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "renders the last attached error",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("first"))
				_ = c.Error(domain.NewNoAuthorsFound(nil))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "No authors could be found",
		},
		{
			name: "leaves successful responses alone",
			handler: func(c *gin.Context) {
				c.String(http.StatusOK, "fine")
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "fine",
		},
		{
			name: "does not overwrite a written response",
			handler: func(c *gin.Context) {
				c.String(http.StatusAccepted, "partial")
				_ = c.Error(errors.New("late failure"))
			},
			expectedStatus: http.StatusAccepted,
			expectedBody:   "partial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.Use(ErrorHandler())
			engine.GET("/test", tt.handler)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func newTestServerConfig(host string, port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:           host,
		Port:           port,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerNew(t *testing.T) {
	cfg := newTestServerConfig("127.0.0.1", 8080)
	logger := discardLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, logger, srv.logger)
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		name         string
		host         string
		port         int
		expectedAddr string
	}{
		{name: "localhost", host: "localhost", port: 8080, expectedAddr: "localhost:8080"},
		{name: "all interfaces", host: "0.0.0.0", port: 3000, expectedAddr: "0.0.0.0:3000"},
		{name: "dynamic port", host: "127.0.0.1", port: 0, expectedAddr: "127.0.0.1:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(newTestServerConfig(tt.host, tt.port), discardLogger())
			assert.Equal(t, tt.expectedAddr, srv.Addr())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(newTestServerConfig("127.0.0.1", 0), discardLogger())
	handlers.NewPingHandler(nil).RegisterRoutes(srv.Engine())

	errCh := srv.Start()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	default:
	}

	addr := srv.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr, "Addr should report the bound port")

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://"+addr+"/ping", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case _, ok := <-errCh:
		assert.False(t, ok, "error channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server to shutdown")
	}
}

func TestServerStart_AddressInUse(t *testing.T) {
	first := New(newTestServerConfig("127.0.0.1", 0), discardLogger())
	firstErr := first.Start()

	t.Cleanup(func() {
		_ = first.Shutdown(context.Background())
		<-firstErr
	})

	_, portText, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)

	second := New(newTestServerConfig("127.0.0.1", port), discardLogger())

	select {
	case err := <-second.Start():
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listening on")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a bind error")
	}
}

func TestMaxBodySize(t *testing.T) {
	cfg := newTestServerConfig("127.0.0.1", 0)
	cfg.MaxRequestSize = 16

	srv := New(cfg, discardLogger())
	srv.Engine().POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.String(http.StatusOK, string(body))
	})

	t.Run("body under limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short")))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "short", w.Body.String())
	})

	t.Run("body over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.NewReader(strings.Repeat("x", 64))
		srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", body))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrorCodeTooLarge)
	})

	t.Run("unknown length over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64)))
		req.ContentLength = -1
		srv.Engine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func newTestRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()

	engine := gin.New()
	cfg.ServiceName = "quotes-service-test"

	if cfg.HealthHandler == nil {
		cfg.HealthHandler = handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{Version: "test"})
	}

	if cfg.QuoteHandler == nil {
		storage := memory.New()
		authors := app.NewAuthorStore(storage.Authors(), ports.IDGeneratorFunc(func() string { return "a-1" }))
		quotes := app.NewQuoteStore(app.QuoteStoreConfig{
			Quotes:     storage.Quotes(),
			Authors:    authors,
			Transactor: storage,
			IDs:        ports.IDGeneratorFunc(func() string { return "q-1" }),
		})
		catalog := app.NewCatalog(app.CatalogConfig{Authors: authors, Quotes: quotes})

		cfg.AuthorHandler = handlers.NewAuthorHandler(catalog)
		cfg.QuoteHandler = handlers.NewQuoteHandler(catalog, nil)
	}

	if cfg.PingHandler == nil {
		cfg.PingHandler = handlers.NewPingHandler(ports.ClockFunc(func() time.Time {
			return time.Unix(1_700_000_000, 0)
		}))
	}

	SetupRouter(engine, cfg)

	return engine
}

func TestSetupRouter_PublicRoutes(t *testing.T) {
	engine := newTestRouter(t, RouterConfig{Timeout: DefaultRequestTimeout})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "ping", path: "/ping", expectedStatus: http.StatusOK, expectedBody: `{"ack":1700000000}`},
		{name: "root redirects", path: "/", expectedStatus: http.StatusFound},
		{name: "liveness", path: "/-/live", expectedStatus: http.StatusOK},
		{name: "readiness", path: "/-/ready", expectedStatus: http.StatusOK},
		{name: "unknown route", path: "/nope", expectedStatus: http.StatusNotFound, expectedBody: "route not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestSetupRouter_APIKeyAuth(t *testing.T) {
	resolver := mocks.NewMockKeyResolver(t)
	resolver.EXPECT().Resolve(mock.Anything, "good").Return(ports.Principal{Name: "ci"}, nil).Maybe()

	engine := newTestRouter(t, RouterConfig{KeyResolver: resolver})

	t.Run("missing key", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 9001, resp.Error.DomainCode)
	})

	t.Run("valid key reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random", nil)
		req.Header.Set("x-api-key", "good")

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		// The catalog is empty, so the handler itself answers 404.
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "No quotes could be found")
	})

	t.Run("health stays open", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSetupRouter_RateLimit(t *testing.T) {
	limiter := mocks.NewMockRateLimiter(t)
	limiter.EXPECT().Allow(mock.Anything, "ip:192.0.2.1").Return(ports.RateDecision{
		Allowed:    false,
		Limit:      10,
		Remaining:  0,
		RetryAfter: 1500 * time.Millisecond,
	}, nil)

	engine := newTestRouter(t, RouterConfig{RateLimiter: limiter})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random", nil)
	req.RemoteAddr = "192.0.2.1:4711"

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestSetupRouter_WithoutOptionalParts(t *testing.T) {
	require.NotPanics(t, func() {
		SetupRouter(gin.New(), RouterConfig{})
	})
}
