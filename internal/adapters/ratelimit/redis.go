package ratelimit

import (
	"context"
	"fmt"

	rdb "github.com/redis/go-redis/v9"

	"github.com/jsamuelsen/quotes-service/internal/domain"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis counts requests in Redis so that all replicas share one budget per
// caller. Each window is a key incremented with INCR and expired with the
// window.
type Redis struct {
	cfg    Config
	client *rdb.Client
}

var (
	_ ports.RateLimiter   = (*Redis)(nil)
	_ ports.HealthChecker = (*Redis)(nil)
)

// NewRedis creates a limiter with its own client.
func NewRedis(cfg Config, rc RedisConfig) *Redis {
	return NewRedisWithClient(cfg, rdb.NewClient(&rdb.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	}))
}

// NewRedisWithClient creates a limiter on an existing client.
func NewRedisWithClient(cfg Config, client *rdb.Client) *Redis {
	return &Redis{cfg: cfg.withDefaults(), client: client}
}

// Allow counts one request for key.
func (r *Redis) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	start, left := r.cfg.window(r.cfg.Clock.Now())
	counter := r.cfg.counterKey(key, start)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, counter)

	if _, err := pipe.Exec(ctx); err != nil {
		return ports.RateDecision{}, fmt.Errorf("counting request: %w", err)
	}

	hits := incr.Val()

	// Expire on the first hit only, so later hits cannot extend the window.
	if hits == 1 {
		if err := r.client.Expire(ctx, counter, r.cfg.Window).Err(); err != nil {
			return ports.RateDecision{}, fmt.Errorf("expiring window: %w", err)
		}
	}

	return r.cfg.decide(hits, left), nil
}

// Name implements ports.HealthChecker.
func (r *Redis) Name() string { return "rate_limiter" }

// Check implements ports.HealthChecker.
func (r *Redis) Check(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return domain.NewUnavailableError("redis", err.Error())
	}

	return nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
