// Package circuitbreaker stops the service from hammering the statistics
// provider or the moderation API while they are failing.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the position of a breaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the open period ends.
	StateOpen
	// StateHalfOpen lets a single probe through at a time.
	StateHalfOpen
)

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

var (
	// ErrCircuitOpen is returned while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrProbeInFlight is returned in half-open state while another call probes.
	ErrProbeInFlight = errors.New("circuit breaker probe in flight")
)

// IsRejected reports whether err came from the breaker refusing a call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrProbeInFlight)
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// Settings configures a breaker. Zero values take the defaults noted.
type Settings struct {
	// Name labels state-change callbacks and rejection errors.
	Name string

	// MaxFailures is the consecutive failure count that opens the circuit (5).
	MaxFailures int

	// CloseAfter is the consecutive half-open successes that close it (1).
	CloseAfter int

	// OpenFor is how long the circuit stays open before probing (30s).
	OpenFor time.Duration

	// IsFailure selects the errors that count against the circuit. Nil
	// counts every error.
	IsFailure func(error) bool

	// OnStateChange is called on every transition, under the breaker lock.
	OnStateChange func(name string, from, to State)
}

// Counts are the breaker's running tallies since the last Reset.
type Counts struct {
	Successes            int
	Failures             int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
}

// ══════════════════════════════════════════════════════════════════════════════
// BREAKER
// ══════════════════════════════════════════════════════════════════════════════

// CircuitBreaker guards calls to one upstream. Safe for concurrent use.
type CircuitBreaker struct {
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool
}

// New creates a closed breaker.
func New(s Settings) *CircuitBreaker {
	if s.MaxFailures <= 0 {
		s.MaxFailures = 5
	}
	if s.CloseAfter <= 0 {
		s.CloseAfter = 1
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	if s.IsFailure == nil {
		s.IsFailure = func(error) bool { return true }
	}
	return &CircuitBreaker{settings: s, now: time.Now}
}

// Execute runs fn unless the circuit rejects it, then records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return fmt.Errorf("%s: %w", cb.settings.Name, err)
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// Call runs fn through cb and returns its value.
func Call[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.settings.OpenFor {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probing = true
		return nil
	case StateHalfOpen:
		if cb.probing {
			return ErrProbeInFlight
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if err != nil && cb.settings.IsFailure(err) {
		cb.counts.Failures++
		cb.counts.ConsecutiveFailures++
		cb.counts.ConsecutiveSuccesses = 0
		if cb.state == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.settings.MaxFailures {
			cb.transition(StateOpen)
		}
		return
	}

	cb.counts.Successes++
	cb.counts.ConsecutiveSuccesses++
	cb.counts.ConsecutiveFailures = 0
	if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.settings.CloseAfter {
		cb.transition(StateClosed)
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.counts.ConsecutiveFailures = 0
	cb.counts.ConsecutiveSuccesses = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}

// State returns the current state. An open breaker whose period has ended
// still reports open until the next call probes it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a copy of the tallies.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the circuit and clears the tallies without firing OnStateChange.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.counts = Counts{}
	cb.probing = false
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// UpstreamBreaker guards the statistics provider. isFailure decides which
// errors count; an unknown handle is an answer, not an outage.
func UpstreamBreaker(threshold int, openFor time.Duration, isFailure func(error) bool, onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:          "leetcode-api",
		MaxFailures:   threshold,
		CloseAfter:    2,
		OpenFor:       openFor,
		IsFailure:     isFailure,
		OnStateChange: onStateChange,
	})
}

// ModerationBreaker guards the moderation API.
func ModerationBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:          "moderation-api",
		MaxFailures:   3,
		OpenFor:       30 * time.Second,
		OnStateChange: onStateChange,
	})
}
