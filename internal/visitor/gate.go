package visitor

import (
	"context"
	"sync"
	"time"
)

// Gate answers one question: has this identifier fired within the window?
// It is deliberately simpler than the counted rate limiter; the visitor
// counter only needs a once-per-hour latch, not a quota.
type Gate struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewGate(window time.Duration) *Gate {
	if window <= 0 {
		window = time.Hour
	}
	return &Gate{
		window: window,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// Try records the identifier and reports true if it had not fired within the
// trailing window. When gated it returns how long until the latch releases.
func (g *Gate) Try(id string) (bool, time.Duration) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.seen[id]; ok {
		elapsed := now.Sub(last)
		if elapsed < g.window {
			return false, g.window - elapsed
		}
	}
	g.seen[id] = now
	return true, 0
}

// Sweep drops identifiers whose latch has released.
func (g *Gate) Sweep() {
	cutoff := g.now().Add(-g.window)

	g.mu.Lock()
	defer g.mu.Unlock()

	for id, last := range g.seen {
		if last.Before(cutoff) {
			delete(g.seen, id)
		}
	}
}

func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// StartSweeper runs Sweep every period until ctx is cancelled.
func (g *Gate) StartSweeper(ctx context.Context, period time.Duration) {
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
				g.Sweep()
			}
		}
	}()
}
