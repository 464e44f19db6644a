package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stall-rental/internal/config"
)

func limiterOver(t *testing.T, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewTokenBucket(cfg, rdb)
}

func rateLimitConfig(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl-test",
	}
}

func hit(mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/branches", nil)
	req.RemoteAddr = "203.0.113.9:4242"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = mw(okNext)(c)
	return rec
}

func TestTokenBucketAllowsUnderCapacity(t *testing.T) {
	mw := limiterOver(t, rateLimitConfig(3))

	for i := 0; i < 3; i++ {
		rec := hit(mw)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestTokenBucketBlocksOverCapacity(t *testing.T) {
	mw := limiterOver(t, rateLimitConfig(2))

	hit(mw)
	hit(mw)
	rec := hit(mw)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)

	for i := 0; i < 10; i++ {
		rec := hit(mw)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTokenBucketRedisDownPassesThrough(t *testing.T) {
	// A dead Redis degrades to pass-through instead of rejecting traffic.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()
	mw := NewTokenBucket(rateLimitConfig(1), rdb)

	for i := 0; i < 3; i++ {
		rec := hit(mw)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
