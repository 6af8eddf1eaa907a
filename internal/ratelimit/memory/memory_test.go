package memory

import (
	"context"
	"testing"
	"time"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/ratelimit"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func cfg(max int, window time.Duration) ratelimit.Config {
	return ratelimit.Config{MaxRequests: max, Window: window}
}

func TestAllow_FirstRequestOpensWindow(t *testing.T) {
	l := New()

	res, err := l.Allow(context.Background(), "1.2.3.4", cfg(10, time.Minute), base)
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !res.Allowed {
		t.Fatal("first request should be allowed")
	}
	if res.Remaining != 9 {
		t.Errorf("remaining = %d, want 9", res.Remaining)
	}
	if want := base.Add(time.Minute); !res.ResetTime.Equal(want) {
		t.Errorf("resetTime = %v, want %v", res.ResetTime, want)
	}
}

func TestAllow_QuotaExhaustion(t *testing.T) {
	l := New()
	c := cfg(2, time.Second)

	want := []struct {
		allowed   bool
		remaining int
	}{
		{true, 1},
		{true, 0},
		{false, 0},
	}
	for i, w := range want {
		res, _ := l.Allow(context.Background(), "1.2.3.4", c, base)
		if res.Allowed != w.allowed || res.Remaining != w.remaining {
			t.Fatalf("call %d: got allowed=%v remaining=%d, want allowed=%v remaining=%d",
				i+1, res.Allowed, res.Remaining, w.allowed, w.remaining)
		}
	}
}

func TestAllow_RemainingDecreasesByOne(t *testing.T) {
	l := New()
	c := cfg(5, time.Minute)

	prev := 5
	for i := 0; i < 5; i++ {
		res, _ := l.Allow(context.Background(), "k", c, base)
		if res.Remaining != prev-1 {
			t.Fatalf("call %d: remaining = %d, want %d", i+1, res.Remaining, prev-1)
		}
		if res.Remaining < 0 {
			t.Fatalf("remaining went negative: %d", res.Remaining)
		}
		prev = res.Remaining
	}
}

func TestAllow_RejectionIsIdempotent(t *testing.T) {
	l := New()
	c := cfg(1, time.Minute)

	first, _ := l.Allow(context.Background(), "k", c, base)
	if !first.Allowed {
		t.Fatal("first request should be allowed")
	}

	var last ratelimit.Result
	for i := 0; i < 5; i++ {
		last, _ = l.Allow(context.Background(), "k", c, base.Add(time.Duration(i)*time.Second))
		if last.Allowed {
			t.Fatalf("rejection %d: should stay rejected until reset", i+1)
		}
		if last.Remaining != 0 {
			t.Fatalf("rejection %d: remaining = %d, want 0", i+1, last.Remaining)
		}
		if !last.ResetTime.Equal(first.ResetTime) {
			t.Fatalf("rejection %d: resetTime drifted from %v to %v", i+1, first.ResetTime, last.ResetTime)
		}
	}
}

func TestAllow_RejectedRequestsDoNotConsumeQuota(t *testing.T) {
	l := New()
	c := cfg(2, time.Minute)

	l.Allow(context.Background(), "k", c, base)
	l.Allow(context.Background(), "k", c, base)
	for i := 0; i < 10; i++ {
		l.Allow(context.Background(), "k", c, base)
	}

	// after reset the quota is whole again, proving rejections left count at 2
	res, _ := l.Allow(context.Background(), "k", c, base.Add(time.Minute))
	if !res.Allowed || res.Remaining != 1 {
		t.Fatalf("post-reset: got allowed=%v remaining=%d, want allowed=true remaining=1", res.Allowed, res.Remaining)
	}
}

func TestAllow_WindowResetRestoresFullQuota(t *testing.T) {
	l := New()
	c := cfg(2, time.Second)

	l.Allow(context.Background(), "k", c, base)

	res, _ := l.Allow(context.Background(), "k", c, base.Add(1100*time.Millisecond))
	if !res.Allowed {
		t.Fatal("request after window elapsed should be allowed")
	}
	if res.Remaining != 1 {
		t.Errorf("remaining = %d, want 1 (fresh window)", res.Remaining)
	}
	if want := base.Add(1100 * time.Millisecond).Add(time.Second); !res.ResetTime.Equal(want) {
		t.Errorf("resetTime = %v, want %v", res.ResetTime, want)
	}
}

func TestAllow_ResetAtExactBoundary(t *testing.T) {
	l := New()
	c := cfg(1, time.Minute)

	l.Allow(context.Background(), "k", c, base)

	// resetTime == now counts as expired: the entry is replaced
	res, _ := l.Allow(context.Background(), "k", c, base.Add(time.Minute))
	if !res.Allowed || res.Remaining != 0 {
		t.Fatalf("boundary call: got allowed=%v remaining=%d, want allowed=true remaining=0", res.Allowed, res.Remaining)
	}
}

func TestAllow_IdentifiersAreIndependent(t *testing.T) {
	l := New()
	c := cfg(1, time.Minute)

	if res, _ := l.Allow(context.Background(), "a", c, base); !res.Allowed {
		t.Fatal("a's first request should be allowed")
	}
	if res, _ := l.Allow(context.Background(), "a", c, base); res.Allowed {
		t.Fatal("a's second request should be rejected")
	}
	if res, _ := l.Allow(context.Background(), "b", c, base); !res.Allowed {
		t.Fatal("b must not be affected by a's exhausted quota")
	}
}

func TestAllow_ZeroConfigFallsBackToDefault(t *testing.T) {
	l := New()

	res, _ := l.Allow(context.Background(), "k", ratelimit.Config{}, base)
	if !res.Allowed || res.Remaining != 9 {
		t.Fatalf("got allowed=%v remaining=%d, want default 10/min window", res.Allowed, res.Remaining)
	}
}

func TestSweep_RemovesExpiredEntries(t *testing.T) {
	l := New()
	c := cfg(1, time.Second)

	l.Allow(context.Background(), "stale", c, base)
	l.Allow(context.Background(), "fresh", c, base.Add(30*time.Second))

	l.now = func() time.Time { return base.Add(31 * time.Second) }
	l.Sweep()

	if got := l.Len(); got != 0 {
		// "fresh" expired at base+31s too
		t.Fatalf("entries after sweep = %d, want 0", got)
	}

	// history is forgotten: the identifier starts a fresh window
	res, _ := l.Allow(context.Background(), "stale", c, base.Add(32*time.Second))
	if !res.Allowed || res.Remaining != 0 {
		t.Fatalf("post-sweep call: got allowed=%v remaining=%d, want a fresh window", res.Allowed, res.Remaining)
	}
}

func TestSweep_KeepsLiveEntries(t *testing.T) {
	l := New()
	c := cfg(5, time.Hour)

	l.Allow(context.Background(), "live", c, base)

	l.now = func() time.Time { return base.Add(time.Minute) }
	l.Sweep()

	if got := l.Len(); got != 1 {
		t.Fatalf("entries after sweep = %d, want 1", got)
	}

	// the surviving entry still carries its count
	res, _ := l.Allow(context.Background(), "live", c, base.Add(2*time.Minute))
	if res.Remaining != 3 {
		t.Fatalf("remaining = %d, want 3 (count preserved across sweep)", res.Remaining)
	}
}

func TestRetryAfter_RoundsUp(t *testing.T) {
	res := ratelimit.Result{ResetTime: base.Add(1500 * time.Millisecond)}
	if got := res.RetryAfter(base); got != 2 {
		t.Errorf("RetryAfter = %d, want 2", got)
	}
	if got := (ratelimit.Result{ResetTime: base}).RetryAfter(base); got != 1 {
		t.Errorf("RetryAfter at boundary = %d, want 1", got)
	}
}
