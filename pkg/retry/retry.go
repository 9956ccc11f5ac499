// Package retry runs an operation again after transient failures, with
// doubling backoff and jitter. Used for statistics provider lookups,
// moderation calls and conflicted document store writes.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MARKERS
// ══════════════════════════════════════════════════════════════════════════════

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Retryable marks err as transient. Do returns the unwrapped error once
// attempts run out.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// Permanent marks err as final even when a RetryIf predicate would accept it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// unmark strips a top-level marker so callers see the original error.
func unmark(err error) error {
	switch e := err.(type) {
	case *retryableError:
		return e.err
	case *permanentError:
		return e.err
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// RETRIER
// ══════════════════════════════════════════════════════════════════════════════

// Option configures a Retrier.
type Option func(*Retrier)

// WithMaxAttempts sets the number of attempts, the first one included.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithInitialDelay sets the wait before the first retry. Later waits double.
func WithInitialDelay(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.base = d
		}
	}
}

// WithMaxDelay caps a single wait.
func WithMaxDelay(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.ceiling = d
		}
	}
}

// WithJitter spreads each wait by ±j of its length, 0 <= j <= 1.
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		if j >= 0 && j <= 1 {
			r.jitter = j
		}
	}
}

// WithRetryIf replaces the default test (Retryable-marked errors only).
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) { r.retryIf = fn }
}

// WithOnRetry registers a hook run before every wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(r *Retrier) { r.onRetry = fn }
}

// Retrier executes operations with retries. Safe for concurrent use.
type Retrier struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	jitter   float64
	retryIf  func(error) bool
	onRetry  func(attempt int, err error, delay time.Duration)
}

// New creates a Retrier: 3 attempts, 100ms doubling to 30s, 10% jitter.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		attempts: 3,
		base:     100 * time.Millisecond,
		ceiling:  30 * time.Second,
		jitter:   0.1,
		retryIf:  isRetryable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs op until it succeeds, fails with an error the Retrier does not
// retry, or attempts run out. A cancelled context stops the loop and the
// last operation error (or the context error) is returned.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return unmark(last)
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		var p *permanentError
		if errors.As(err, &p) || !r.retryIf(err) || attempt >= r.attempts {
			return unmark(err)
		}

		delay := r.backoff(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unmark(last)
		case <-timer.C:
		}
	}
}

func (r *Retrier) backoff(attempt int) time.Duration {
	d := r.base
	for i := 1; i < attempt && d < r.ceiling; i++ {
		d *= 2
	}
	d = min(d, r.ceiling)
	if r.jitter > 0 {
		d += time.Duration(float64(d) * r.jitter * (rand.Float64()*2 - 1))
	}
	return max(d, 0)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// UpstreamRetrier is tuned for the statistics provider: slow enough not to
// trip its own throttling. opts apply after the preset.
func UpstreamRetrier(maxAttempts int, opts ...Option) *Retrier {
	return New(append([]Option{
		WithMaxAttempts(maxAttempts),
		WithInitialDelay(300 * time.Millisecond),
		WithMaxDelay(5 * time.Second),
		WithJitter(0.2),
	}, opts...)...)
}

// ModerationRetrier allows one retry of a moderation call.
func ModerationRetrier(opts ...Option) *Retrier {
	return New(append([]Option{
		WithMaxAttempts(2),
		WithInitialDelay(250 * time.Millisecond),
		WithMaxDelay(2 * time.Second),
	}, opts...)...)
}

// StoreRetrier retries document store writes that lost a transaction conflict.
func StoreRetrier() *Retrier {
	return New(
		WithMaxAttempts(8),
		WithInitialDelay(5*time.Millisecond),
		WithMaxDelay(200*time.Millisecond),
		WithJitter(0.5),
	)
}
