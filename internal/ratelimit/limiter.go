// Package ratelimit provides per-origin, per-endpoint-class fixed-window
// rate limiting.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/vyrodovalexey/storegw/internal/ratelimit/store"
)

// Class is a named category of routes sharing one rate-limit policy.
type Class string

const (
	// ClassLogin covers the login endpoint.
	ClassLogin Class = "login"

	// ClassPurchase covers the purchase endpoint.
	ClassPurchase Class = "purchase"

	// ClassDownload covers the download endpoint.
	ClassDownload Class = "download"

	// ClassDefault covers every other protected route.
	ClassDefault Class = "default"
)

// Limit is the policy for one endpoint class.
type Limit struct {
	// Requests is the maximum number of requests allowed per window.
	Requests int64

	// Window is the fixed window duration.
	Window time.Duration
}

// Policy maps endpoint classes to their limits.
type Policy map[Class]Limit

// DefaultPolicy returns the gateway's standing rate-limit policy.
func DefaultPolicy() Policy {
	return Policy{
		ClassLogin:    {Requests: 5, Window: 15 * time.Minute},
		ClassPurchase: {Requests: 20, Window: time.Hour},
		ClassDownload: {Requests: 10, Window: time.Hour},
		ClassDefault:  {Requests: 60, Window: time.Minute},
	}
}

// Result is the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Limit is the class threshold.
	Limit int64

	// Remaining is the number of requests left in the current window.
	Remaining int64

	// RetryAfter is how long to wait before retrying, when not allowed.
	RetryAfter time.Duration
}

// Limiter applies fixed-window counting per (class, origin) pair over a
// counter store.
type Limiter struct {
	policy Policy
	store  store.Store
}

// NewLimiter creates a limiter with the given policy backed by the given
// store. A nil policy uses DefaultPolicy.
func NewLimiter(policy Policy, s store.Store) *Limiter {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Limiter{policy: policy, store: s}
}

// Limit returns the policy for a class, falling back to the default
// class.
func (l *Limiter) Limit(class Class) Limit {
	if limit, ok := l.policy[class]; ok {
		return limit
	}
	return l.policy[ClassDefault]
}

// Allow counts one request from origin against the class window and
// reports whether it is within the threshold. The counter is incremented
// even for rejected requests so the window reflects every attempt.
func (l *Limiter) Allow(ctx context.Context, class Class, origin string) (Result, error) {
	limit := l.Limit(class)
	now := time.Now()

	// Window key: requests in the same window share one counter, and a
	// new window starts a new key. The old key expires out of the store.
	windowStart := now.Truncate(limit.Window)
	key := fmt.Sprintf("%s:%s:%d", class, origin, windowStart.Unix())

	count, err := l.store.IncrementWithExpiry(ctx, key, 1, limit.Window)
	if err != nil {
		return Result{}, fmt.Errorf("incrementing rate counter: %w", err)
	}

	result := Result{
		Allowed:   count <= limit.Requests,
		Limit:     limit.Requests,
		Remaining: max(limit.Requests-count, 0),
	}
	if !result.Allowed {
		result.RetryAfter = windowStart.Add(limit.Window).Sub(now)
	}

	return result, nil
}

// Reset clears the current window for (class, origin).
func (l *Limiter) Reset(ctx context.Context, class Class, origin string) error {
	limit := l.Limit(class)
	windowStart := time.Now().Truncate(limit.Window)
	key := fmt.Sprintf("%s:%s:%d", class, origin, windowStart.Unix())
	return l.store.Delete(ctx, key)
}

// Close releases the underlying store.
func (l *Limiter) Close() error {
	return l.store.Close()
}
