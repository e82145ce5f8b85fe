// Package store provides storage backends for rate limiting.
package store

import (
	"context"
	"time"
)

// Store is the counter storage used by the fixed-window limiter.
type Store interface {
	// IncrementWithExpiry atomically increments the counter for key and
	// sets the expiration when the key is created. It returns the
	// post-increment value.
	IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error)

	// Delete removes the key from the store.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases resources.
	Close() error
}
