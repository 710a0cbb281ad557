package ratelimit

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// Memory counts requests in process. Counters of finished windows expire
// with the window.
type Memory struct {
	cfg      Config
	mu       sync.Mutex
	counters *gocache.Cache
}

var (
	_ ports.RateLimiter   = (*Memory)(nil)
	_ ports.HealthChecker = (*Memory)(nil)
)

// NewMemory creates an in-process limiter.
func NewMemory(cfg Config) *Memory {
	cfg = cfg.withDefaults()

	return &Memory{
		cfg:      cfg,
		counters: gocache.New(cfg.Window, time.Minute),
	}
}

// Allow counts one request for key.
func (m *Memory) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	if err := ctx.Err(); err != nil {
		return ports.RateDecision{}, err
	}

	start, left := m.cfg.window(m.cfg.Clock.Now())
	counter := m.cfg.counterKey(key, start)

	m.mu.Lock()
	defer m.mu.Unlock()

	hits, err := m.counters.IncrementInt64(counter, 1)
	if err != nil {
		// First hit in this window.
		hits = 1
		m.counters.Set(counter, hits, m.cfg.Window)
	}

	return m.cfg.decide(hits, left), nil
}

// Name implements ports.HealthChecker.
func (m *Memory) Name() string { return "rate_limiter" }

// Check implements ports.HealthChecker. The in-process limiter is always
// healthy.
func (m *Memory) Check(context.Context) error { return nil }
