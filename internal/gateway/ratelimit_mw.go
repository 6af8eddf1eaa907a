package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/ratelimit"
)

// RateLimit gates the wrapped handler per client IP with a fixed window.
// Every response carries the X-RateLimit-* headers; a rejection is a 429
// with a Retry-After hint, the admission decision itself is never an error.
func RateLimit(lim ratelimit.Limiter, cfg ratelimit.Config, onLimited func(key string)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			key := ClientIP(r)

			res, err := lim.Allow(r.Context(), key, cfg, now)
			if err != nil {
				// shared-store backend unreachable: fail open, the memory
				// backend never errors
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))

			if !res.Allowed {
				if onLimited != nil {
					onLimited(key)
				}
				retry := res.RetryAfter(now)
				h.Set("Retry-After", strconv.FormatInt(retry, 10))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests. Please wait ` +
					strconv.FormatInt(retry, 10) + ` seconds and try again."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
