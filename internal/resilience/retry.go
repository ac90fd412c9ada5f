// Package resilience retries transient failures of outbound calls and stops
// calling a dependency that keeps failing.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls exponential backoff between attempts.
type Policy struct {
	// Attempts is the total number of tries including the first. Default: 3.
	Attempts int
	// Initial is the delay before the first retry. Default: 200ms.
	Initial time.Duration
	// Max caps a single delay. Default: 5s.
	Max time.Duration
	// Jitter randomizes each delay by ±Jitter of itself (0 to 1).
	Jitter float64
	// Retryable overrides IsTransient when set.
	Retryable func(err error) bool
}

// DefaultPolicy suits short lookups made while a user waits.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Initial: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2}
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Initial <= 0 {
		p.Initial = 200 * time.Millisecond
	}
	if p.Max <= 0 {
		p.Max = 5 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// delay returns the wait before retry n (0-based).
func (p Policy) delay(n int) time.Duration {
	d := float64(p.Initial) * math.Pow(2, float64(n))
	if d > float64(p.Max) {
		d = float64(p.Max)
	}
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(max(d, 0))
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts, or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for n := 0; n < p.Attempts; n++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil || !p.Retryable(err) || n == p.Attempts-1 {
			break
		}

		zap.L().Debug("resilience: retrying",
			zap.String("operation", op),
			zap.Int("attempt", n+1),
			zap.Error(err),
		)
		timer := time.NewTimer(p.delay(n))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}
