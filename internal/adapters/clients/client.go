package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotes-service/internal/platform/config"
	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotes-service/internal/adapters/clients"

	defaultTimeout = 10 * time.Second

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4 << 10
)

// Client calls one upstream JSON API. Every call goes through the circuit
// breaker, is retried with jittered exponential backoff on transport errors,
// 5xx and 429 responses, and is traced and measured with OpenTelemetry.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	retry   config.RetryConfig
	breaker *CircuitBreaker

	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter

	// wait sleeps between attempts. Tests replace it.
	wait func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	clock      ports.Clock
}

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithClock sets the clock the circuit breaker measures cool-downs with.
func WithClock(clock ports.Clock) Option {
	return func(o *clientOptions) { o.clock = clock }
}

// New creates a client for the upstream called name at baseURL.
func New(name, baseURL string, cfg config.ClientConfig, opts ...Option) (*Client, error) {
	if name == "" {
		return nil, errors.New("upstream name is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url for %s: %w", name, err)
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.Transport.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
			},
		}
	}

	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of upstream requests including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requests, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Upstream requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	c := &Client{
		name:     name,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     o.httpClient,
		retry:    cfg.Retry,
		breaker:  NewCircuitBreaker(cfg.CircuitBreaker, o.clock),
		tracer:   otel.Tracer(instrumentationName),
		duration: duration,
		requests: requests,
		wait:     sleep,
	}

	c.breaker.OnStateChange(func(from, to State) {
		slog.Warn("circuit breaker state changed",
			slog.String("upstream", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return c, nil
}

// Name returns the upstream name.
func (c *Client) Name() string { return c.name }

// CircuitState returns the breaker state.
func (c *Client) CircuitState() State { return c.breaker.State() }

// GetJSON fetches path and decodes the JSON body into out. A non-2xx answer
// that is not retried is returned as *StatusError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	start := time.Now()
	target := c.buildURL(path, query)

	logger := logging.FromContext(ctx).With(
		slog.String("upstream", c.name),
		slog.String("path", path),
	)

	if !c.breaker.Allow() {
		c.record(ctx, 0, start, "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, "GET "+c.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", http.MethodGet),
			attribute.String("http.url", target),
			attribute.String("peer.service", c.name),
		),
	)
	defer span.End()

	resp, err := c.attempt(ctx, target, logger)
	if err != nil {
		c.breaker.RecordFailure()
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, 0, start, "error")
		logger.ErrorContext(ctx, "upstream request failed", slog.Any("error", err))

		return err
	}
	defer func() { _ = resp.Body.Close() }()

	c.breaker.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.record(ctx, resp.StatusCode, start, fmt.Sprintf("%dxx", resp.StatusCode/100))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", c.name, err)
	}

	logger.Log(ctx, logging.LevelTrace, "upstream request complete",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

// attempt runs the retry loop. It returns the first response that should
// not be retried, or the last failure once attempts run out.
func (c *Client) attempt(ctx context.Context, target string, logger *slog.Logger) (*http.Response, error) {
	var (
		lastErr    error
		retryAfter time.Duration
	)

	for n := range c.retry.MaxAttempts {
		if n > 0 {
			delay := max(c.backoff(n), retryAfter)
			logger.DebugContext(ctx, "retrying upstream request",
				slog.Int("attempt", n+1),
				slog.Duration("backoff", delay),
			)

			if err := c.wait(ctx, delay); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		c.injectHeaders(ctx, req)

		resp, err := c.http.Do(req)
		if err != nil {
			if !isRetryable(err) {
				return nil, err
			}

			lastErr = err
			retryAfter = 0

			continue
		}

		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()

		lastErr = &StatusError{StatusCode: resp.StatusCode, Body: body}
		retryAfter = c.parseRetryAfter(resp.Header.Get("Retry-After"))
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.retry.MaxAttempts, lastErr)
}

func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Accept", "application/json")

	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return target
}

// backoff returns initial * multiplier^(attempt-1), capped at the max
// interval, spread by the jitter factor.
func (c *Client) backoff(attempt int) time.Duration {
	d := float64(c.retry.InitialInterval) * math.Pow(c.retry.Multiplier, float64(attempt-1))
	if c.retry.MaxInterval > 0 {
		d = math.Min(d, float64(c.retry.MaxInterval))
	}

	if c.retry.JitterFactor > 0 {
		d += d * c.retry.JitterFactor * (rand.Float64()*2 - 1) //nolint:gosec // jitter needs no crypto randomness
	}

	return time.Duration(d)
}

// parseRetryAfter reads a delay in seconds, capped at the max interval.
func (c *Client) parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}

	d := time.Duration(secs) * time.Second
	if c.retry.MaxInterval > 0 && d > c.retry.MaxInterval {
		d = c.retry.MaxInterval
	}

	return d
}

func (c *Client) record(ctx context.Context, status int, start time.Time, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("peer.service", c.name),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	c.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryable reports whether a transport error may succeed on retry.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
