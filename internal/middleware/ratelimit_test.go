package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, rpm, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: rpm,
		BurstSize:         burst,
		CleanupInterval:   time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

// ---------------------------------------------------------------------------
// Config constructors
// ---------------------------------------------------------------------------

func TestRateLimitConfigs(t *testing.T) {
	if cfg := DefaultRateLimitConfig(); cfg.RequestsPerMinute != 60 || cfg.BurstSize != 10 {
		t.Errorf("DefaultRateLimitConfig() = %+v, want 60/10", cfg)
	}
	if cfg := PublicRateLimitConfig(); cfg.RequestsPerMinute != 10 || cfg.BurstSize != 5 {
		t.Errorf("PublicRateLimitConfig() = %+v, want 10/5", cfg)
	}
}

// ---------------------------------------------------------------------------
// RateLimiter
// ---------------------------------------------------------------------------

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := newTestLimiter(t, 1, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := rl.Allow(ctx, "user:a")
		if err != nil || !ok {
			t.Fatalf("request %d: Allow() = %v, %v, want allowed", i+1, ok, err)
		}
	}
	ok, remaining, _ := rl.Allow(ctx, "user:a")
	if ok {
		t.Error("4th request allowed, want denied")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, 1, 1)
	ctx := context.Background()

	if ok, _, _ := rl.Allow(ctx, "user:a"); !ok {
		t.Fatal("first request for a denied")
	}
	if ok, _, _ := rl.Allow(ctx, "user:b"); !ok {
		t.Error("first request for b denied, want independent bucket")
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := newTestLimiter(t, 60, 1)
	_, _, _ = rl.Allow(context.Background(), "ip:1.2.3.4")

	rl.evictIdle(time.Now().Add(time.Hour), 10*time.Minute)

	rl.mu.Lock()
	n := len(rl.buckets)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("buckets after eviction = %d, want 0", n)
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimitConfig())
	rl.Stop()
	rl.Stop()
}

// ---------------------------------------------------------------------------
// RateLimitMiddleware
// ---------------------------------------------------------------------------

func newRateLimitedRouter(limiter Limiter, userID string) *gin.Engine {
	r := gin.New()
	if userID != "" {
		r.Use(func(c *gin.Context) { c.Set(UserIDKey, userID); c.Next() })
	}
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	r := newRateLimitedRouter(newTestLimiter(t, 1, 1), "u-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["error"] != "Rate limit exceeded" {
		t.Errorf("error = %v, want Rate limit exceeded", body["error"])
	}
}

func TestRateLimitMiddleware_KeyedByUser(t *testing.T) {
	limiter := newTestLimiter(t, 1, 1)

	for _, user := range []string{"u-1", "u-2"} {
		w := httptest.NewRecorder()
		newRateLimitedRouter(limiter, user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", user, w.Code)
		}
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, errors.New("connection refused")
}
func (failingLimiter) Limit() int { return 10 }

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	w := httptest.NewRecorder()
	newRateLimitedRouter(failingLimiter{}, "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when limiter errors", w.Code)
	}
}

func TestRateLimitKey(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.7:5555"
	if got := rateLimitKey(c); got != "ip:10.0.0.7" {
		t.Errorf("rateLimitKey() = %q, want ip:10.0.0.7", got)
	}
	c.Set(UserIDKey, "u-9")
	if got := rateLimitKey(c); got != "user:u-9" {
		t.Errorf("rateLimitKey() = %q, want user:u-9", got)
	}
}

// ---------------------------------------------------------------------------
// RedisRateLimiter
// ---------------------------------------------------------------------------

func TestRedisRateLimiter_UnreachableReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRedisRateLimiter(client, "auditor:", DefaultRateLimitConfig())
	if rl.Limit() != 60 {
		t.Errorf("Limit() = %d, want 60", rl.Limit())
	}
	if _, _, err := rl.Allow(context.Background(), "user:a"); err == nil {
		t.Error("Allow() error = nil, want connection error")
	}
}
