// Package main is the entry point for the service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/jsamuelsen/quotes-service/internal/adapters/auth"
	"github.com/jsamuelsen/quotes-service/internal/adapters/clients"
	"github.com/jsamuelsen/quotes-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotes-service/internal/adapters/flags"
	"github.com/jsamuelsen/quotes-service/internal/adapters/http"
	"github.com/jsamuelsen/quotes-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-service/internal/adapters/ratelimit"
	"github.com/jsamuelsen/quotes-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotes-service/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/quotes-service/internal/app"
	"github.com/jsamuelsen/quotes-service/internal/platform/config"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/platform/telemetry"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command line flags.
type options struct {
	profile   string
	configDir string
	envFile   string
}

func parseFlags(args []string) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("quotes-service", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.profile, "profile", "p", os.Getenv("APP_ENVIRONMENT"), "configuration profile (local, dev, qa, prod, test)")
	flagSet.StringVar(&opts.configDir, "config-dir", config.DefaultConfigDir, "directory holding base.yaml and the profile files")
	flagSet.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}

	if opts.profile == "" {
		opts.profile = "local"
	}

	return opts, nil
}

func run(args []string) error {
	ctx := context.Background()

	// 1. Parse flags and load the optional dotenv file
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", opts.envFile, err)
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.LoadFrom(opts.configDir, opts.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			Level:      cfg.Log.File.Level,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("database", cfg.Database.Driver),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Open storage; it is the one critical health check
	healthRegistry := ports.NewHealthRegistry()

	storage, err := openStorage(ctx, &cfg.Database)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := storage.Close(); closeErr != nil {
			logger.Error("closing storage", slog.Any("error", closeErr))
		}
	}()

	if err := healthRegistry.Register(storage); err != nil {
		return fmt.Errorf("registering storage health check: %w", err)
	}

	// 6. Build the catalog (application layer)
	metrics := app.NewMetrics(prometheus.DefaultRegisterer)
	featureFlags := flags.NewStatic(cfg.Features)
	ids := ports.IDGeneratorFunc(uuid.NewString)

	authors := app.NewAuthorStore(storage.Authors(), ids)
	quotes := app.NewQuoteStore(app.QuoteStoreConfig{
		Quotes:     storage.Quotes(),
		Authors:    authors,
		Transactor: storage,
		IDs:        ids,
		Metrics:    metrics,
	})
	catalog := app.NewCatalog(app.CatalogConfig{
		Authors:       authors,
		Quotes:        quotes,
		Flags:         featureFlags,
		RandomRetries: cfg.Catalog.RandomRetries,
		Metrics:       metrics,
	})

	// 7. Optional upstream import through the anti-corruption layer
	importer, err := newImporter(&cfg.Importer, authors, quotes, featureFlags, metrics, healthRegistry)
	if err != nil {
		return err
	}

	// 8. Access control
	keyResolver, err := newKeyResolver(&cfg.Auth)
	if err != nil {
		return err
	}

	rateLimiter, err := newRateLimiter(&cfg.RateLimit, healthRegistry)
	if err != nil {
		return err
	}

	if closer, ok := rateLimiter.(io.Closer); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				logger.Error("closing rate limiter", slog.Any("error", closeErr))
			}
		}()
	}

	// 9. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	buildInfo.Service = cfg.App.Name
	buildInfo.Storage = cfg.Database.Driver

	// 10. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 11. Setup router with all middleware and routes
	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName:   cfg.Telemetry.ServiceName,
		HealthHandler: handlers.NewHealthHandler(healthRegistry, buildInfo),
		PingHandler:   handlers.NewPingHandler(ports.SystemClock),
		AuthorHandler: handlers.NewAuthorHandler(catalog),
		QuoteHandler:  handlers.NewQuoteHandler(catalog, importer),
		KeyResolver:   keyResolver,
		RateLimiter:   rateLimiter,
		Timeout:       cfg.Server.RequestTimeout,
	})

	// 12. Start server (non-blocking)
	serverErr := server.Start()

	// 13. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

func openStorage(ctx context.Context, cfg *config.DatabaseConfig) (ports.Storage, error) {
	if cfg.Driver == "memory" {
		return memory.New(), nil
	}

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	return store, nil
}

// newImporter returns nil when import is disabled in configuration.
func newImporter(
	cfg *config.ImporterConfig,
	authors *app.AuthorStore,
	quotes *app.QuoteStore,
	featureFlags ports.FeatureFlags,
	metrics *app.Metrics,
	registry ports.HealthRegistry,
) (*app.Importer, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := clients.New(cfg.Name, cfg.BaseURL, cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Name, err)
	}

	source := acl.NewQuoteSource(client)

	if err := registry.RegisterOptional(source); err != nil {
		return nil, fmt.Errorf("registering %s health check: %w", cfg.Name, err)
	}

	return app.NewImporter(app.ImporterConfig{
		Source:      source,
		Authors:     authors,
		Quotes:      quotes,
		Flags:       featureFlags,
		Metrics:     metrics,
		MaxCount:    cfg.MaxCount,
		Concurrency: cfg.Concurrency,
	}), nil
}

// newKeyResolver returns nil when authentication is disabled.
func newKeyResolver(cfg *config.AuthConfig) (ports.KeyResolver, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	keys := make([]auth.Key, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		keys = append(keys, auth.Key{Principal: k.Principal, Hash: k.KeyHash})
	}

	resolver, err := auth.NewHashedKeyResolver(keys, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("creating key resolver: %w", err)
	}

	return resolver, nil
}

// newRateLimiter returns nil when rate limiting is disabled.
func newRateLimiter(cfg *config.RateLimitConfig, registry ports.HealthRegistry) (ports.RateLimiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	limits := ratelimit.Config{
		Requests: cfg.Requests,
		Window:   cfg.Window,
		Prefix:   cfg.Redis.Prefix,
	}

	var limiter interface {
		ports.RateLimiter
		ports.HealthChecker
	}

	switch cfg.Backend {
	case "redis":
		limiter = ratelimit.NewRedis(limits, ratelimit.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		limiter = ratelimit.NewMemory(limits)
	}

	if err := registry.RegisterOptional(limiter); err != nil {
		return nil, fmt.Errorf("registering rate limiter health check: %w", err)
	}

	return limiter, nil
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	// Listen for OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		// Server error during startup or runtime
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	// Stop accepting new requests, drain in-flight
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
