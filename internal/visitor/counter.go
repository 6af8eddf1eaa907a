package visitor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Counter is the persisted site-wide visitor tally.
type Counter interface {
	Increment(ctx context.Context) (int64, error)
	Current(ctx context.Context) (int64, error)
}

const counterKey = "bspot:visitors"

// RedisCounter persists the tally with a single INCR key and remembers the
// last value it saw, so the handler can fall back to a stale-but-sane count
// when redis is unreachable.
type RedisCounter struct {
	client    *redis.Client
	lastKnown atomic.Int64
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Increment(ctx context.Context) (int64, error) {
	n, err := c.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return c.lastKnown.Load(), err
	}
	c.lastKnown.Store(n)
	return n, nil
}

func (c *RedisCounter) Current(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, counterKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return c.lastKnown.Load(), err
	}
	c.lastKnown.Store(n)
	return n, nil
}

// MemoryCounter keeps the tally in the process. Used in tests and when no
// redis address is configured; the count resets with the process.
type MemoryCounter struct {
	mu sync.Mutex
	n  int64
}

func NewMemoryCounter() *MemoryCounter { return &MemoryCounter{} }

func (c *MemoryCounter) Increment(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n, nil
}

func (c *MemoryCounter) Current(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n, nil
}
