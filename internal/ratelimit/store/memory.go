package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// shardCount is the number of lock shards. Sharding by key keeps
// concurrent requests from distinct origins off the same mutex.
const shardCount = 16

// entry represents a stored counter with expiration.
type entry struct {
	value      int64
	expiration time.Time
}

type shard struct {
	mu   sync.Mutex
	data map[string]entry
}

// MemoryStore implements Store with sharded in-memory counters. Expired
// entries are lazily replaced on increment and periodically removed by a
// cleanup goroutine.
type MemoryStore struct {
	shards  [shardCount]*shard
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithCleanupInterval(time.Minute)
}

// NewMemoryStoreWithCleanupInterval creates a new in-memory store with a
// custom cleanup interval.
func NewMemoryStoreWithCleanupInterval(interval time.Duration) *MemoryStore {
	s := &MemoryStore{
		cleanup: time.NewTicker(interval),
		done:    make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]entry)}
	}

	go s.runCleanup()

	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// IncrementWithExpiry implements Store.
func (s *MemoryStore) IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	now := time.Now()
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.data[key]
	if !ok || now.After(e.expiration) {
		e = entry{value: 0, expiration: now.Add(expiration)}
	}
	e.value += delta
	sh.data[key] = e

	return e.value, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.data, key)
	sh.mu.Unlock()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.once.Do(func() {
		s.cleanup.Stop()
		close(s.done)
	})
	return nil
}

func (s *MemoryStore) runCleanup() {
	for {
		select {
		case <-s.done:
			return
		case <-s.cleanup.C:
			now := time.Now()
			for _, sh := range s.shards {
				sh.mu.Lock()
				for key, e := range sh.data {
					if now.After(e.expiration) {
						delete(sh.data, key)
					}
				}
				sh.mu.Unlock()
			}
		}
	}
}
