package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-order-backend/internal/observability"
	"github.com/tbourn/go-order-backend/internal/services"
)

func TestKeyBySessionOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	if key := KeyBySessionOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip-based key; got %q", key)
	}

	c.Set(ctxKeySession, &services.Session{Mobile: "+919876543210"})
	if key := KeyBySessionOrIP()(c); key != "user:+919876543210" {
		t.Fatalf("expected user-based key; got %q", key)
	}

	// a session without a mobile still keys on the address
	c.Set(ctxKeySession, &services.Session{Name: "Asha"})
	if key := KeyBySessionOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip-based key; got %q", key)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, nil)
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	if rl.key == nil {
		t.Fatal("nil key func should default")
	}
	if rl.IdleTTL != defaultBucketIdle {
		t.Fatalf("IdleTTL = %v", rl.IdleTTL)
	}

	now := time.Unix(1_700_000_000, 0)
	lim := rl.limiter("k1", now)
	if got := rl.limiter("k1", now.Add(time.Second)); got != lim {
		t.Fatal("expected the same bucket to be reused")
	}
	if rl.Len() != 1 {
		t.Fatalf("Len = %d", rl.Len())
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.IdleTTL = 5 * time.Minute
	t0 := time.Unix(1_700_000_000, 0)

	rl.limiter("old", t0)
	rl.limiter("warm", t0.Add(4*time.Minute))

	// before the sweep interval elapses nothing is removed
	rl.limiter("mid", t0.Add(30*time.Second))
	if rl.Len() != 3 {
		t.Fatalf("Len = %d; want 3", rl.Len())
	}

	rl.limiter("new", t0.Add(6*time.Minute))
	rl.mu.Lock()
	_, old := rl.buckets["old"]
	_, warm := rl.buckets["warm"]
	_, fresh := rl.buckets["new"]
	rl.mu.Unlock()
	if old || !warm || !fresh {
		t.Fatalf("old=%v warm=%v new=%v", old, warm, fresh)
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if IsRateBypass(c) {
		t.Fatal("expected false by default")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatal("expected true when set")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatal("non-bool values read as false")
	}
}

func TestRateLimiter_Handler_Allow_Deny_And_Bypass(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1.0, 1, KeyBySessionOrIP())
	rl.Now = func() time.Time { return now }

	r := gin.New()
	r.Use(RequestID())
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	serve := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		return w
	}

	if w := serve(); w.Code != http.StatusOK {
		t.Fatalf("first request should be allowed, got %d", w.Code)
	}

	before := testutil.ToFloat64(observability.RateLimited.WithLabelValues("ip"))
	w2 := serve()
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate-limited, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "rate_limited" || body["message"] != "rate limit exceeded" || body["request_id"] == "" {
		t.Fatalf("unexpected JSON body: %v", body)
	}
	if got := testutil.ToFloat64(observability.RateLimited.WithLabelValues("ip")); got != before+1 {
		t.Fatalf("rate limited counter = %v; want %v", got, before+1)
	}

	// the rejected request did not consume the refill
	now = now.Add(time.Second)
	if w := serve(); w.Code != http.StatusOK {
		t.Fatalf("request after refill should pass, got %d", w.Code)
	}

	rBypass := gin.New()
	rBypass.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	rBypass.Use(rl.Handler())
	rBypass.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w3 := httptest.NewRecorder()
	rBypass.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("bypass request should be allowed, got %d", w3.Code)
	}
}

func TestRetryAfter_SlowRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	lim := rate.NewLimiter(rate.Every(5*time.Second), 1)
	if !lim.AllowN(now, 1) {
		t.Fatal("first token should be available")
	}
	if got := retryAfter(lim, now); got != 5 {
		t.Fatalf("retryAfter = %d; want 5", got)
	}
	// probing twice must not push the estimate further out
	if got := retryAfter(lim, now); got != 5 {
		t.Fatalf("second retryAfter = %d; want 5", got)
	}
}

func TestRetryAfter_ZeroRate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	lim := rate.NewLimiter(0, 1)
	lim.AllowN(now, 1)
	if got := retryAfter(lim, now); got != 1 {
		t.Fatalf("retryAfter = %d; want 1", got)
	}
}
