//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-service/internal/adapters/flags"
	httpadapter "github.com/jsamuelsen/quotes-service/internal/adapters/http"
	"github.com/jsamuelsen/quotes-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotes-service/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/quotes-service/internal/app"
	"github.com/jsamuelsen/quotes-service/internal/platform/config"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// service is the catalog API running in-process on a real listener.
type service struct {
	server  *httptest.Server
	catalog *app.Catalog
	storage ports.Storage
}

// serviceOptions tweaks newService.
type serviceOptions struct {
	storage  ports.Storage
	features map[string]string
	importer func(authors *app.AuthorStore, quotes *app.QuoteStore) *app.Importer
}

// sequentialIDs keeps generated ids predictable in assertions.
func sequentialIDs(prefix string) ports.IDGenerator {
	var n atomic.Int64

	return ports.IDGeneratorFunc(func() string {
		return fmt.Sprintf("%s-%04d", prefix, n.Add(1))
	})
}

// newService wires the catalog the way cmd/service does, minus telemetry
// exporters and access control.
func newService(tb testing.TB, opts serviceOptions) *service {
	tb.Helper()

	storage := opts.storage
	if storage == nil {
		storage = memory.New()
	}

	featureFlags := flags.NewStatic(opts.features)

	authors := app.NewAuthorStore(storage.Authors(), sequentialIDs("a"))
	quotes := app.NewQuoteStore(app.QuoteStoreConfig{
		Quotes:     storage.Quotes(),
		Authors:    authors,
		Transactor: storage,
		IDs:        sequentialIDs("q"),
	})
	catalog := app.NewCatalog(app.CatalogConfig{
		Authors: authors,
		Quotes:  quotes,
		Flags:   featureFlags,
	})

	var importer *app.Importer
	if opts.importer != nil {
		importer = opts.importer(authors, quotes)
	}

	registry := ports.NewHealthRegistry()
	require.NoError(tb, registry.Register(storage))

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		ServiceName:   "quotes-service-integration",
		HealthHandler: handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "none", "now")),
		PingHandler:   handlers.NewPingHandler(nil),
		AuthorHandler: handlers.NewAuthorHandler(catalog),
		QuoteHandler:  handlers.NewQuoteHandler(catalog, importer),
		Timeout:       5 * time.Second,
	})

	srv := httptest.NewServer(engine)
	tb.Cleanup(srv.Close)

	return &service{server: srv, catalog: catalog, storage: storage}
}

// openSQLite opens a private in-memory SQLite catalog.
func openSQLite(tb testing.TB) ports.Storage {
	tb.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		DSN:    "file::memory:",
	})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = store.Close() })

	return store
}

// response is a fully read HTTP response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends a request to the service and reads the whole response. A
// non-empty body is sent as JSON.
func (s *service) do(tb testing.TB, method, path, body string) response {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reader := io.Reader(http.NoBody)
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.server.URL+path, reader)
	require.NoError(tb, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(tb, err)

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)

	return response{status: resp.StatusCode, header: resp.Header, body: data}
}

// decode unmarshals a response body.
func decode[T any](tb testing.TB, r response) T {
	tb.Helper()

	var v T
	require.NoError(tb, json.Unmarshal(r.body, &v), string(r.body))

	return v
}

// testClientConfig is a fast-failing upstream client configuration.
func testClientConfig() config.ClientConfig {
	return config.ClientConfig{
		Timeout: 2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       time.Minute,
			HalfOpenLimit: 1,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     time.Minute,
		},
	}
}
