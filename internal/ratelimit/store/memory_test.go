package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Increment(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "a", 5, time.Minute)
	require.NoError(t, err)

	count, err := s.IncrementWithExpiry(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ExpiredKeyRestarts(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "k", 3, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	count, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "k", 4, time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "k"))

	count, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	const goroutines = 16
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				// Spread across shards and hammer one shared key.
				_, _ = s.IncrementWithExpiry(ctx, "shared", 1, time.Minute)
				_, _ = s.IncrementWithExpiry(ctx, fmt.Sprintf("key-%d", n), 1, time.Minute)
			}
		}(i)
	}
	wg.Wait()

	count, err := s.IncrementWithExpiry(ctx, "shared", 0, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine), count)
}
