// Package redisstore is the distributed counterpart of the in-memory
// fixed-window limiter, for deployments that need one budget shared across
// replicas. It relies on redis INCR plus a window-length expiry, so no
// sweeper is needed: redis reclaims idle keys itself.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/ratelimit"
)

const keyPrefix = "bspot:ratelimit:"

type Limiter struct {
	client *redis.Client
}

// New pings the client once so a misconfigured address fails at startup
// rather than on the first request.
func New(ctx context.Context, client *redis.Client) (*Limiter, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return &Limiter{client: client}, nil
}

func (l *Limiter) Close() error { return l.client.Close() }

// Allow increments the key's window counter and reads its remaining TTL in
// one transaction. Unlike the memory backend, rejected requests still bump
// the counter; with a shared store that is the price of staying atomic
// without a round trip per decision.
func (l *Limiter) Allow(ctx context.Context, key string, cfg ratelimit.Config, now time.Time) (ratelimit.Result, error) {
	if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		cfg = ratelimit.DefaultConfig()
	}

	rkey := keyPrefix + key

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, rkey)
	ttl := pipe.PTTL(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Result{}, err
	}

	window := ttl.Val()
	if count.Val() == 1 || window < 0 {
		// first hit of a window, or a key that lost its expiry
		window = cfg.Window
		if err := l.client.PExpire(ctx, rkey, window).Err(); err != nil {
			return ratelimit.Result{}, err
		}
	}
	reset := now.Add(window)

	n := int(count.Val())
	if n > cfg.MaxRequests {
		return ratelimit.Result{Allowed: false, Remaining: 0, ResetTime: reset}, nil
	}
	return ratelimit.Result{
		Allowed:   true,
		Remaining: cfg.MaxRequests - n,
		ResetTime: reset,
	}, nil
}
