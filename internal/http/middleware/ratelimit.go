package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-order-backend/internal/observability"
)

const (
	defaultBucketIdle = 10 * time.Minute
	sweepInterval     = time.Minute
)

// KeyFunc maps a request to the identity its token bucket is keyed on.
type KeyFunc func(*gin.Context) string

// KeyBySessionOrIP keys buckets on the verified session mobile when there is
// one and on the client address otherwise. Keys are prefixed "user:" or "ip:"
// so the two namespaces never collide.
func KeyBySessionOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if s := SessionFrom(c); s != nil && s.Mobile != "" {
			return "user:" + s.Mobile
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token-bucket limiter with one bucket per
// key. Buckets idle for longer than IdleTTL are swept at most once a minute.
// It is safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	key   KeyFunc

	// IdleTTL bounds how long an unused bucket is retained.
	IdleTTL time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if key == nil {
		key = KeyBySessionOrIP()
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		key:     key,
		IdleTTL: defaultBucketIdle,
		buckets: make(map[string]*bucket),
	}
}

func (rl *RateLimiter) now() time.Time {
	if rl.Now != nil {
		return rl.Now()
	}
	return time.Now()
}

// limiter returns the bucket for key, creating it on first use. Expired
// buckets are swept before the lookup so a stale bucket is replaced rather
// than refreshed.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= sweepInterval {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.IdleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// Len reports the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay that should not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit. A rejected request gets 429 with a Retry-After
// header holding the whole seconds until a token is available.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := rl.key(c)
		now := rl.now()
		lim := rl.limiter(key, now)
		if lim.AllowN(now, 1) {
			c.Next()
			return
		}

		kind := "ip"
		if strings.HasPrefix(key, "user:") {
			kind = "session"
		}
		observability.RateLimited.WithLabelValues(kind).Inc()
		LoggerFrom(c).Debug().Str("key_kind", kind).Msg("rate limited")

		c.Header("Retry-After", strconv.Itoa(retryAfter(lim, now)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": GetRequestID(c),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfter estimates the wait for the next token without consuming it.
func retryAfter(lim *rate.Limiter, now time.Time) int {
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return 1
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	if s := int(math.Ceil(d.Seconds())); s > 1 {
		return s
	}
	return 1
}
