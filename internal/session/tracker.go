// Package session tracks per-origin activity and expires idle origins.
//
// The tracker is not a per-user session store: upstream identity is held
// by the single shared credential. It throttles idle network origins so
// a client that disappears for longer than the timeout must be seen as
// expired once before continuing.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vyrodovalexey/storegw/internal/observability"
)

const (
	// DefaultTimeout is how long an origin may stay idle before its
	// next request is rejected as expired.
	DefaultTimeout = 24 * time.Hour

	// DefaultSweepInterval is how often expired entries are removed.
	DefaultSweepInterval = time.Hour
)

// ErrExpired is returned by Touch when the origin has been idle beyond
// the timeout.
var ErrExpired = errors.New("session expired")

// Tracker maps client origins to their last activity time.
type Tracker struct {
	mu            sync.RWMutex
	lastActivity  map[string]time.Time
	timeout       time.Duration
	sweepInterval time.Duration
	logger        observability.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// Option is a functional option for configuring the tracker.
type Option func(*Tracker)

// WithTimeout sets the idle timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Tracker) {
		t.timeout = timeout
	}
}

// WithSweepInterval sets the background sweep interval.
func WithSweepInterval(interval time.Duration) Option {
	return func(t *Tracker) {
		t.sweepInterval = interval
	}
}

// WithLogger sets the logger for the tracker.
func WithLogger(logger observability.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a new tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		lastActivity:  make(map[string]time.Time),
		timeout:       DefaultTimeout,
		sweepInterval: DefaultSweepInterval,
		logger:        observability.NopLogger(),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Touch records activity for the origin. If the origin's previous
// activity is older than the timeout it returns ErrExpired and drops the
// stale entry rather than refreshing it: a rejected request must not
// resurrect a dead session, and the request after the rejection starts a
// fresh one.
func (t *Tracker) Touch(origin string) error {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if last, ok := t.lastActivity[origin]; ok && now.Sub(last) > t.timeout {
		delete(t.lastActivity, origin)
		return ErrExpired
	}

	t.lastActivity[origin] = now
	return nil
}

// Len returns the number of tracked origins.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.lastActivity)
}

// Sweep removes entries idle beyond the timeout and returns how many
// were removed.
func (t *Tracker) Sweep() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for origin, last := range t.lastActivity {
		if now.Sub(last) > t.timeout {
			delete(t.lastActivity, origin)
			removed++
		}
	}
	return removed
}

// Run sweeps on the configured interval until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := t.Sweep(); removed > 0 {
				t.logger.Debug("swept expired sessions",
					observability.Int("removed", removed),
					observability.Int("remaining", t.Len()),
				)
			}
		}
	}
}
