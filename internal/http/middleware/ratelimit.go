// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-caller token bucket limiter mounted on the
// authenticated API group. Buckets live in process memory, keyed by user id
// (or client IP before authentication), and are swept after sitting idle.
// A websocket handshake costs one token like any other request; frames on an
// open session are not limited here.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	bucketIdleTTL = 10 * time.Minute
	sweepEvery    = 4096
)

// KeyFunc maps a request to its bucket key and a caller kind used as the
// metrics label ("user" or "anonymous").
type KeyFunc func(*gin.Context) (key, caller string)

// ByUserOrIP keys authenticated callers by user id and everyone else by
// client IP. The prefixes keep the two namespaces apart.
func ByUserOrIP(c *gin.Context) (string, string) {
	if uid := userKey(c); uid != "" {
		return "user:" + uid, "user"
	}
	return "ip:" + c.ClientIP(), "anonymous"
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter holds one token bucket per caller. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn KeyFunc
	idle  time.Duration
	now   func() time.Time

	mu         sync.Mutex
	buckets    map[string]*bucket
	sinceSweep int
}

// NewRateLimiter refills rps tokens per second up to burst (min 1). An rps
// of 0 disables limiting.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if keyFn == nil {
		keyFn = ByUserOrIP
	}
	return &RateLimiter{
		limit:   limit,
		burst:   max(burst, 1),
		keyFn:   keyFn,
		idle:    bucketIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// limiter returns the bucket for key. Every sweepEvery lookups, buckets idle
// for at least rl.idle are dropped first, so a stale bucket is recreated
// full rather than refreshed.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.sinceSweep++; rl.sinceSweep >= sweepEvery {
		rl.sinceSweep = 0
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.idle {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// Len reports how many buckets are tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// IsRateBypass reports whether IdempotencyValidator found a stored result
// for this request; replays do not spend tokens.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler rejects over-limit requests with 429 and a Retry-After rounded up
// to whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	if rl.limit == rate.Inf {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key, caller := rl.keyFn(c)
		now := rl.now()
		res := rl.limiter(key, now).ReserveN(now, 1)
		delay := res.DelayFrom(now)
		if res.OK() && delay == 0 {
			c.Next()
			return
		}
		res.CancelAt(now)
		rateLimited.WithLabelValues(caller).Inc()

		retry := int(math.Ceil(delay.Seconds()))
		c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
