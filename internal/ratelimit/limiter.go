package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/bid-award/internal/metrics"
	"github.com/senyabanana/bid-award/internal/utils"
)

// ErrCounterUnavailable is returned by Allow when the counter store failed and
// the policy fails closed.
var ErrCounterUnavailable = errors.New("rate limit counter unavailable")

// Policy is a named budget of attempts within any sliding window of length Window.
type Policy struct {
	Name        string
	KeyPrefix   string
	Window      time.Duration
	MaxAttempts int
	// FailOpen admits requests when the counter store is unreachable.
	FailOpen bool
}

// Key composes the counter key for identity.
func (p Policy) Key(identity string) string {
	return p.KeyPrefix + ":" + identity
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// RetryAfter is how long the caller should wait before a slot frees up.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Counter is an atomic sliding-window log of hits per key.
type Counter interface {
	// Increment drops hits older than window, records this attempt if fewer
	// than limit hits remain, and returns the number of hits in the window
	// including this attempt together with the time until the oldest recorded
	// hit leaves the window. Rejected attempts are not recorded.
	Increment(ctx context.Context, key string, window time.Duration, limit int) (int64, time.Duration, error)
	// Reset drops the counter for key.
	Reset(ctx context.Context, key string) error
}

// Limiter applies policies against a Counter.
type Limiter struct {
	counter Counter
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Limiter. m may be nil.
func New(counter Counter, m *metrics.Metrics) *Limiter {
	return &Limiter{counter: counter, metrics: m, now: time.Now}
}

// Allow counts one attempt for identity under policy.
func (l *Limiter) Allow(ctx context.Context, policy Policy, identity string) (Result, error) {
	now := l.now()
	count, ttl, err := l.counter.Increment(ctx, policy.Key(identity), policy.Window, policy.MaxAttempts)
	if err != nil {
		fields := map[string]any{"policy": policy.Name, "error": err.Error()}
		if policy.FailOpen {
			utils.Warn("rate limit counter failed, admitting request", fields)
			l.metrics.RateLimitDecision(policy.Name, "fail_open")
			return Result{Allowed: true, Remaining: policy.MaxAttempts, ResetTime: now.Add(policy.Window)}, nil
		}
		utils.Error("rate limit counter failed, rejecting request", fields)
		l.metrics.RateLimitDecision(policy.Name, "fail_closed")
		return Result{Allowed: false, ResetTime: now.Add(policy.Window)}, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}

	remaining := policy.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   count <= int64(policy.MaxAttempts),
		Remaining: remaining,
		ResetTime: now.Add(ttl),
	}
	if res.Allowed {
		l.metrics.RateLimitDecision(policy.Name, "allowed")
	} else {
		l.metrics.RateLimitDecision(policy.Name, "denied")
	}
	return res, nil
}

// Reset clears the budget of identity under policy.
func (l *Limiter) Reset(ctx context.Context, policy Policy, identity string) error {
	return l.counter.Reset(ctx, policy.Key(identity))
}
