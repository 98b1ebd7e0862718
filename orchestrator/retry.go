package orchestrator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/convoloop/convoloop/logging"
	"github.com/convoloop/convoloop/provider"
)

// RetryPolicy bounds how often a failed stage invocation is repeated and
// how long the orchestrator waits between attempts. Delays grow
// geometrically from InitialDelay and are capped at MaxDelay. With Jitter
// enabled each delay is randomized within [delay/2, delay] so concurrent
// runs do not retry in lockstep.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, including the first try.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Multiplier scales the delay after every failed attempt.
	Multiplier float64

	// Jitter randomizes delays to avoid synchronized retries.
	Jitter bool
}

// DefaultRetryPolicy returns the policy used when none is configured:
// three attempts starting at 500ms, doubling up to 30s, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// delay computes the backoff before attempt+1, where attempt counts the
// failures so far (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	if p.Jitter {
		half := d / 2
		d = half + rand.Float64()*half
	}
	return time.Duration(d)
}

// retrier applies a RetryPolicy and a per-attempt timeout to a stage
// invocation.
type retrier struct {
	policy  RetryPolicy
	timeout time.Duration
	logger  logging.Logger
}

// do runs fn until it succeeds, fails permanently, or the attempt budget
// is exhausted. Each attempt gets its own deadline derived from ctx; a
// timed-out attempt surfaces as context.DeadlineExceeded, which counts as
// transient. Cancellation of the parent ctx always wins and is returned
// unwrapped.
func (r retrier) do(ctx context.Context, stage string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if r.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !provider.IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}
		wait := r.policy.delay(attempt)
		r.logger.Warn("stage attempt failed, backing off",
			"stage", stage,
			"attempt", attempt,
			"backoff", wait.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s stage failed after %d attempts: %w", stage, r.policy.MaxAttempts, lastErr)
}
