package ratelimit

import (
	"context"
	"time"
)

// Config describes one fixed window: at most MaxRequests admitted per Window.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultConfig matches the chat endpoint: 10 requests per minute.
func DefaultConfig() Config {
	return Config{MaxRequests: 10, Window: time.Minute}
}

type Result struct {
	Allowed   bool
	Remaining int       // requests left in the current window (0 when rejected)
	ResetTime time.Time // when the current window ends
}

// RetryAfter returns the whole seconds a rejected caller should wait,
// rounded up, never below 1.
func (r Result) RetryAfter(now time.Time) int64 {
	secs := int64((r.ResetTime.Sub(now) + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

type Limiter interface {
	Allow(ctx context.Context, key string, cfg Config, now time.Time) (Result, error)
	Close() error
}
