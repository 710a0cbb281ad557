package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/quotes-service/internal/platform/config"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the cool-down has passed.
	StateOpen

	// StateHalfOpen lets a few probes through to test recovery.
	StateHalfOpen
)

// String returns the state name used in logs and health output.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calls to an upstream after repeated failures.
//
//   - closed to open after MaxFailures consecutive failures
//   - open to half-open once Timeout has passed since the last failure
//   - half-open to closed after HalfOpenLimit consecutive successes
//   - half-open to open on any failure
type CircuitBreaker struct {
	mu          sync.Mutex
	cfg         config.CircuitBreakerConfig
	clock       ports.Clock
	state       State
	failures    int
	successes   int
	probes      int
	lastFailure time.Time
	onChange    func(from, to State)
}

// NewCircuitBreaker creates a closed breaker. A nil clock uses the wall clock.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig, clock ports.Clock) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}

	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}

	if clock == nil {
		clock = ports.SystemClock
	}

	return &CircuitBreaker{cfg: cfg, clock: clock}
}

// OnStateChange registers fn to run after every transition. It runs outside
// the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onChange = fn
}

// Allow reports whether a request may proceed. In half-open state at most
// HalfOpenLimit probes are in flight.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed bool
		notify  func()
	)

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.clock.Now().Sub(cb.lastFailure) >= cb.cfg.Timeout {
			notify = cb.transition(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	cb.mu.Unlock()
	run(notify)

	return allowed
}

// RecordSuccess reports a request the upstream answered.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var notify func()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.successes++

		if cb.successes >= cb.cfg.HalfOpenLimit {
			notify = cb.transition(StateClosed)
		}
	}

	cb.mu.Unlock()
	run(notify)
}

// RecordFailure reports a request the upstream failed.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var notify func()

	cb.lastFailure = cb.clock.Now()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			notify = cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		notify = cb.transition(StateOpen)
	}

	cb.mu.Unlock()
	run(notify)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// transition switches state and returns the pending notification. Callers
// hold the lock.
func (cb *CircuitBreaker) transition(to State) func() {
	from := cb.state
	if from == to {
		return nil
	}

	cb.state = to
	cb.failures = 0
	cb.successes = 0

	if cb.onChange == nil {
		return nil
	}

	fn := cb.onChange

	return func() { fn(from, to) }
}

func run(fn func()) {
	if fn != nil {
		fn()
	}
}
