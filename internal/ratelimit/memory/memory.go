package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/ratelimit"
)

// entry is one identifier's window. It is replaced, never merged, once the
// window has elapsed.
type entry struct {
	count     int
	resetTime time.Time
}

// Limiter is a fixed-window counter keyed by caller identifier. State lives
// for the process only; a restart clears all windows.
type Limiter struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Limiter {
	return &Limiter{
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

func (l *Limiter) Close() error { return nil }

// Allow decides admission for key under cfg at time now. It never fails.
//
// An expired entry is treated as absent and replaced with a fresh window, so a
// delayed sweep cannot cause a wrong decision. A rejected request does not
// touch the entry: rejections never consume quota. Fixed windows admit up to
// 2×MaxRequests across a boundary straddle; that imprecision is inherent to
// the algorithm.
func (l *Limiter) Allow(_ context.Context, key string, cfg ratelimit.Config, now time.Time) (ratelimit.Result, error) {
	if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		cfg = ratelimit.DefaultConfig()
	}
	if now.IsZero() {
		now = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !e.resetTime.After(now) {
		e = &entry{count: 1, resetTime: now.Add(cfg.Window)}
		l.entries[key] = e
		return ratelimit.Result{
			Allowed:   true,
			Remaining: cfg.MaxRequests - 1,
			ResetTime: e.resetTime,
		}, nil
	}

	if e.count >= cfg.MaxRequests {
		return ratelimit.Result{
			Allowed:   false,
			Remaining: 0,
			ResetTime: e.resetTime,
		}, nil
	}

	e.count++
	return ratelimit.Result{
		Allowed:   true,
		Remaining: cfg.MaxRequests - e.count,
		ResetTime: e.resetTime,
	}, nil
}

// Sweep drops every entry whose window has already ended. Best-effort
// housekeeping: Allow already treats expired entries as absent, so sweeping
// only reclaims memory.
func (l *Limiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if !e.resetTime.After(now) {
			delete(l.entries, key)
		}
	}
}

// Len reports the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartSweeper runs Sweep every period until ctx is cancelled.
func (l *Limiter) StartSweeper(ctx context.Context, period time.Duration) {
	if period <= 0 {
		return
	}
	t := time.NewTicker(period)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep()
			}
		}
	}()
}
