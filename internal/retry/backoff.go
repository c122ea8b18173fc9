package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vvka-141/oews/pkg/oews"
)

// ExponentialBackoff grows the delay geometrically up to a cap, with optional jitter.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64

	// maxAttempts counts retries after the first attempt (-1 = unlimited, 0 = none).
	maxAttempts int

	// jitter of 0.1 spreads each delay by +/- 10%.
	jitter     float64
	jitterFunc func() float64
}

// BackoffOption configures ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc replaces the random source; it must return values in [0, 1).
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff creates a backoff with maxAttempts retries.
//
// Example:
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(200*time.Millisecond),
//	    retry.WithMaxDelay(10*time.Second),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		jitterFunc:   rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.jitterFunc == nil {
		b.jitterFunc = rand.Float64
	}
	return b
}

// DefaultBackoff is the strategy used for connecting to the store.
func DefaultBackoff() *ExponentialBackoff {
	return NewExponentialBackoff(oews.DefaultRetryMaxAttempts,
		WithInitialDelay(oews.DefaultRetryInitialDelay),
		WithMaxDelay(oews.DefaultRetryMaxDelay),
	)
}

// NextDelay returns the wait before retry number attempt (0-based).
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if delay > float64(b.maxDelay) || math.IsInf(delay, 1) {
		delay = float64(b.maxDelay)
	}

	if b.jitter > 0 {
		offset := (b.jitterFunc() - 0.5) * 2.0 // [0,1) -> [-1,1)
		delay *= 1.0 + b.jitter*offset
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func (b *ExponentialBackoff) MaxAttempts() int { return b.maxAttempts }

// MaxDelay returns the delay cap.
func (b *ExponentialBackoff) MaxDelay() time.Duration { return b.maxDelay }
