// Package resilience guards outbound calls to the Alignment Feed API.
package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCircuitOpen is returned when the breaker is rejecting requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker state.
type State int

const (
	// StateClosed means upstream calls flow normally.
	StateClosed State = iota
	// StateOpen means the breaker has tripped and rejects calls.
	StateOpen
	// StateHalfOpen means probe calls are allowed to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config holds breaker thresholds.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the consecutive-success count in half-open that closes it.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Stats is a snapshot of breaker counters.
type Stats struct {
	State          State
	TotalSuccesses int64
	TotalFailures  int64
}

// Breaker implements the circuit breaker pattern around upstream calls.
type Breaker struct {
	mu sync.Mutex

	config Config

	state           State
	consecFailures  int
	consecSuccesses int
	lastFailure     time.Time

	totalSuccesses atomic.Int64
	totalFailures  atomic.Int64
}

// New creates a breaker in the closed state.
func New(config Config) *Breaker {
	return &Breaker{config: config, state: StateClosed}
}

// Allow reports whether a call may proceed, transitioning open → half-open
// after the cooldown.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailure) > b.config.Cooldown {
			b.state = StateHalfOpen
			b.consecSuccesses = 0
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess notes a successful upstream call.
func (b *Breaker) RecordSuccess() {
	b.totalSuccesses.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecFailures = 0
	b.consecSuccesses++

	if b.state == StateHalfOpen && b.consecSuccesses >= b.config.SuccessThreshold {
		b.state = StateClosed
		b.consecSuccesses = 0
	}
}

// RecordFailure notes a failed upstream call. Any failure while half-open
// re-trips the circuit.
func (b *Breaker) RecordFailure() {
	b.totalFailures.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecSuccesses = 0
	b.consecFailures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.consecFailures >= b.config.FailureThreshold {
			b.state = StateOpen
		}
	case StateHalfOpen:
		b.state = StateOpen
	}
}

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.lastFailure) > b.config.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Snapshot returns current counters.
func (b *Breaker) Snapshot() Stats {
	return Stats{
		State:          b.State(),
		TotalSuccesses: b.totalSuccesses.Load(),
		TotalFailures:  b.totalFailures.Load(),
	}
}

// Execute runs fn if the breaker allows it and records the outcome.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if !b.Allow() {
		return zero, ErrCircuitOpen
	}
	v, err := fn()
	if err != nil {
		b.RecordFailure()
		return zero, err
	}
	b.RecordSuccess()
	return v, nil
}
