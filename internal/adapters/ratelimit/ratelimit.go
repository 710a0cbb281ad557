// Package ratelimit implements fixed window rate limiting per caller, either
// in process or shared through Redis.
package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// Backend names accepted in configuration.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

const (
	defaultRequests = 120
	defaultWindow   = time.Minute
	defaultPrefix   = "quotes:rl:"
)

// Config sets the window shared by all backends.
type Config struct {
	// Requests is the number of requests allowed per window.
	Requests int

	// Window is the length of one window.
	Window time.Duration

	// Prefix namespaces the counter keys.
	Prefix string

	// Clock defaults to the wall clock.
	Clock ports.Clock
}

func (c Config) withDefaults() Config {
	if c.Requests <= 0 {
		c.Requests = defaultRequests
	}

	if c.Window <= 0 {
		c.Window = defaultWindow
	}

	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}

	if c.Clock == nil {
		c.Clock = ports.SystemClock
	}

	return c
}

// window returns the start of the window containing now and the time left
// in it.
func (c Config) window(now time.Time) (time.Time, time.Duration) {
	start := now.Truncate(c.Window)
	return start, start.Add(c.Window).Sub(now)
}

func (c Config) counterKey(key string, start time.Time) string {
	return fmt.Sprintf("%s%s:%d", c.Prefix, strings.ReplaceAll(key, " ", "_"), start.Unix())
}

func (c Config) decide(hits int64, left time.Duration) ports.RateDecision {
	limit := int64(c.Requests)

	d := ports.RateDecision{
		Allowed:   hits <= limit,
		Limit:     limit,
		Remaining: max(limit-hits, 0),
	}

	if !d.Allowed {
		d.RetryAfter = left
	}

	return d
}
