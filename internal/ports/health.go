package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by components that can report their health,
// such as the storage backend, the rate limiter and the upstream quote source.
type HealthChecker interface {
	// Name identifies the check in readiness output.
	Name() string

	// Check returns nil when the component is healthy.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates health checks.
type HealthRegistry interface {
	// Register adds a critical checker. A failing critical checker makes the
	// service unhealthy.
	Register(checker HealthChecker) error

	// RegisterOptional adds a checker whose failure only degrades the service.
	RegisterOptional(checker HealthChecker) error

	// CheckAll runs every checker concurrently.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus represents a health state.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult contains the aggregated health check results.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Optional bool          `json:"optional,omitempty"`
	Duration time.Duration `json:"duration"`
}

type registration struct {
	checker  HealthChecker
	optional bool
}

// DefaultHealthRegistry is a thread-safe HealthRegistry.
type DefaultHealthRegistry struct {
	mu    sync.RWMutex
	items []registration
	clock Clock
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{
		items: make([]registration, 0),
		clock: SystemClock,
	}
}

// Register adds a critical checker.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	return r.add(checker, false)
}

// RegisterOptional adds a non-critical checker.
func (r *DefaultHealthRegistry) RegisterOptional(checker HealthChecker) error {
	return r.add(checker, true)
}

func (r *DefaultHealthRegistry) add(checker HealthChecker, optional bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, item := range r.items {
		if item.checker.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.items = append(r.items, registration{checker: checker, optional: optional})

	return nil
}

// CheckAll runs all registered checks concurrently. The overall status is the
// worst of: healthy, degraded (an optional check failed), unhealthy (a
// critical check failed).
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	items := make([]registration, len(r.items))
	copy(items, r.items)
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(items)),
		Timestamp: r.clock.Now(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, item := range items {
		wg.Go(func() {
			start := time.Now()
			err := item.checker.Check(ctx)

			check := &CheckResult{
				Status:   HealthStatusHealthy,
				Optional: item.optional,
				Duration: time.Since(start),
			}

			if err != nil {
				check.Status = HealthStatusUnhealthy
				check.Message = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()

			result.Checks[item.checker.Name()] = check

			switch {
			case err == nil:
			case !item.optional:
				result.Status = HealthStatusUnhealthy
			case result.Status == HealthStatusHealthy:
				result.Status = HealthStatusDegraded
			}
		})
	}

	wg.Wait()

	return result
}
