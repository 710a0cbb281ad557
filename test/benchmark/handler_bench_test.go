package benchmark

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpadapter "github.com/jsamuelsen/quotes-service/internal/adapters/http"
	"github.com/jsamuelsen/quotes-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotes-service/internal/app"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

func init() {
	// Set Gin to release mode for accurate benchmarks
	gin.SetMode(gin.ReleaseMode)
}

// createGinContext creates a Gin context for handler testing.
func createGinContext(w http.ResponseWriter, r *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = r
	return c
}

// setupHealthHandler creates a HealthHandler with a minimal registry for benchmarking.
func setupHealthHandler() *handlers.HealthHandler {
	registry := ports.NewHealthRegistry()
	buildInfo := handlers.NewBuildInfo("1.0.0", "abc123", "2024-01-01T00:00:00Z")
	return handlers.NewHealthHandler(registry, buildInfo)
}

// seededCatalog returns an in-memory catalog holding the given number of
// authors with quotesPerAuthor quotes each.
func seededCatalog(b *testing.B, authors, quotesPerAuthor int) *app.Catalog {
	b.Helper()

	storage := memory.New()
	ids := ports.IDGeneratorFunc(uuid.NewString)

	authorStore := app.NewAuthorStore(storage.Authors(), ids)
	catalog := app.NewCatalog(app.CatalogConfig{
		Authors: authorStore,
		Quotes: app.NewQuoteStore(app.QuoteStoreConfig{
			Quotes:     storage.Quotes(),
			Authors:    authorStore,
			Transactor: storage,
			IDs:        ids,
		}),
	})

	ctx := context.Background()

	for a := range authors {
		name := fmt.Sprintf("Author %d", a)
		if _, err := catalog.CreateAuthor(ctx, name); err != nil {
			b.Fatal(err)
		}

		for q := range quotesPerAuthor {
			if _, err := catalog.AddQuote(ctx, name, fmt.Sprintf("Quote %d by %s", q, name)); err != nil {
				b.Fatal(err)
			}
		}
	}

	return catalog
}

// setupRouter builds the full router over a seeded catalog.
func setupRouter(b *testing.B) *gin.Engine {
	b.Helper()

	catalog := seededCatalog(b, 10, 10)

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		ServiceName:   "quotes-service-bench",
		HealthHandler: setupHealthHandler(),
		PingHandler:   handlers.NewPingHandler(nil),
		AuthorHandler: handlers.NewAuthorHandler(catalog),
		QuoteHandler:  handlers.NewQuoteHandler(catalog, nil),
		Timeout:       5 * time.Second,
	})

	return engine
}

// BenchmarkLivenessHandler measures the performance of the liveness endpoint.
// This is a critical path for Kubernetes probes and should be extremely fast.
func BenchmarkLivenessHandler(b *testing.B) {
	handler := setupHealthHandler()
	req := httptest.NewRequest(http.MethodGet, "/-/live", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.Liveness(c)
	}
}

// BenchmarkReadinessHandler_WithChecks measures readiness with registered health checks.
func BenchmarkReadinessHandler_WithChecks(b *testing.B) {
	registry := ports.NewHealthRegistry()

	_ = registry.Register(&simpleHealthChecker{name: "storage"})
	_ = registry.Register(&simpleHealthChecker{name: "quotable"})

	buildInfo := handlers.NewBuildInfo("1.0.0", "abc123", "2024-01-01T00:00:00Z")
	handler := handlers.NewHealthHandler(registry, buildInfo)
	req := httptest.NewRequest(http.MethodGet, "/-/ready", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.Readiness(c)
	}
}

// BenchmarkPingHandler measures the ping endpoint in isolation.
func BenchmarkPingHandler(b *testing.B) {
	handler := handlers.NewPingHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.Ping(c)
	}
}

// BenchmarkRandomQuote measures a random pick from a seeded catalog.
func BenchmarkRandomQuote(b *testing.B) {
	handler := handlers.NewQuoteHandler(seededCatalog(b, 50, 20), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.Random(c)
	}
}

// BenchmarkRouter measures requests through the full middleware chain.
func BenchmarkRouter(b *testing.B) {
	router := setupRouter(b)

	paths := []string{
		"/ping",
		"/api/v1/authors",
		"/api/v1/authors/Author%203/quotes",
		"/api/v1/quotes/random",
	}

	for _, path := range paths {
		b.Run(path, func(b *testing.B) {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)

			b.ReportAllocs()

			for b.Loop() {
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)

				if w.Code != http.StatusOK {
					b.Fatalf("unexpected status %d", w.Code)
				}
			}
		})
	}
}

// simpleHealthChecker is a minimal health checker for benchmarking.
type simpleHealthChecker struct {
	name string
}

func (s *simpleHealthChecker) Name() string {
	return s.name
}

func (s *simpleHealthChecker) Check(_ context.Context) error {
	return nil
}
