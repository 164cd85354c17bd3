package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/ZanzyTHEbar/neuropredict/internal/monitoring"
	"github.com/ZanzyTHEbar/neuropredict/internal/resilience"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallbackLimiter(t *testing.T, ipLimit int) (*RateLimiter, *monitoring.Metrics) {
	t.Helper()
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(nil, Config{IPLimit: ipLimit, CleanupInterval: time.Hour}, metrics, monitoring.NewPrometheus(nil))
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter, metrics
}

func TestNewRedisClientWithoutAddress(t *testing.T) {
	client, err := NewRedisClient("", "", 0)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.Error(t, client.HealthCheck(context.Background()))
	assert.NoError(t, client.Close())
	assert.Equal(t, map[string]interface{}{"enabled": false}, client.GetPoolStats())

	var nilClient *RedisClient
	assert.False(t, nilClient.IsEnabled())
}

func TestRateLimiterFallbackMode(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, 10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, Bucket{Scope: "test", IP: "192.0.2.1"}, PerMinute(5))
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := limiter.Allow(ctx, Bucket{Scope: "test", IP: "192.0.2.1"}, PerMinute(5))
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, result.RetryAfter, 12*time.Second)

	other, err := limiter.Allow(ctx, Bucket{Scope: "test", IP: "192.0.2.2"}, PerMinute(5))
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	assert.EqualValues(t, 7, metrics.RateLimitFallbackCount)
	assert.Equal(t, 2, limiter.GetStats()["fallback_limiters"])
	assert.Equal(t, false, limiter.GetStats()["redis_enabled"])
}

func TestRateLimiterRejectsInvalidRate(t *testing.T) {
	limiter, _ := newFallbackLimiter(t, 10)

	_, err := limiter.Allow(context.Background(), Bucket{Scope: "test", IP: "192.0.2.1"}, Rate{Limit: 0, Period: time.Minute})
	assert.Error(t, err)
}

func setupLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(apperrors.ErrorHandler(), limiter.IPRateLimitMiddleware())

	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/assess/audio", limiter.EndpointRateLimitMiddleware("assess_audio", 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/api/rate-limit", limiter.HandleRateLimitStatus(map[string]int{"assess_audio": 1}))
	return router
}

func TestIPRateLimitMiddleware(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, 2)
	router := setupLimitedRouter(limiter)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CategoryRateLimit, resp.Category)
	assert.EqualValues(t, 1, metrics.RateLimitIPBlocks)
}

func TestEndpointRateLimitMiddleware(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, 100)
	router := setupLimitedRouter(limiter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assess/audio", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assess/audio", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, map[string]int64{"assess_audio": 1}, metrics.GetRateLimitStats()["endpoint_blocks"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code, "other routes keep their own budget")
}

func TestRateLimiterPeekDoesNotCharge(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, 10)
	ctx := context.Background()
	b := Bucket{Scope: "test", IP: "192.0.2.1"}

	for i := 0; i < 3; i++ {
		result, err := limiter.Peek(ctx, b, PerMinute(5))
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 5, result.Remaining)
	}

	_, err := limiter.Allow(ctx, b, PerMinute(5))
	require.NoError(t, err)

	result, err := limiter.Peek(ctx, b, PerMinute(5))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Remaining)
	assert.EqualValues(t, 1, metrics.RateLimitFallbackCount)
}

func TestHandleRateLimitStatus(t *testing.T) {
	limiter, _ := newFallbackLimiter(t, 100)
	router := setupLimitedRouter(limiter)

	status := func() StatusResponse {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rate-limit", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	before := status()
	assert.Equal(t, "memory", before.Backend)
	assert.Equal(t, 100, before.IP.Limit)
	assert.Equal(t, 99, before.IP.Remaining, "the status request itself passes the IP limit")
	require.Contains(t, before.Endpoints, "assess_audio")
	assert.Equal(t, 1, before.Endpoints["assess_audio"].Remaining)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assess/audio", nil))
	require.Equal(t, http.StatusOK, w.Code)

	after := status()
	assert.Equal(t, 97, after.IP.Remaining)
	assert.Equal(t, 0, after.Endpoints["assess_audio"].Remaining)
}

// nothing listens on port 1, so every Redis call fails fast
func unreachableRedis(t *testing.T) *RedisClient {
	t.Helper()
	client := &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			MaxRetries:  -1,
			DialTimeout: 100 * time.Millisecond,
		}),
		enabled: true,
		addr:    "127.0.0.1:1",
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiterBreakerSkipsFailingRedis(t *testing.T) {
	unreachable := unreachableRedis(t)

	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(unreachable, Config{IPLimit: 100, CleanupInterval: time.Hour}, metrics, nil)
	t.Cleanup(func() { _ = limiter.Close() })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		result, err := limiter.AllowIP(ctx, "192.0.2.10")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "fallback still answers")
	}

	stats := metrics.GetRateLimitStats()
	assert.EqualValues(t, 3, stats["redis_errors"], "the breaker opens after three failures")
	assert.EqualValues(t, 5, stats["fallback_count"])
	assert.Equal(t, resilience.StateOpen, limiter.breaker.State())
	assert.Equal(t, "open", limiter.GetStats()["redis_breaker"].(map[string]interface{})["state"])
}

func TestRateLimiterFallbackLogKeepsAddressPrivate(t *testing.T) {
	var buf bytes.Buffer
	logger := monitoring.NewPrivateLogger(&buf, slog.LevelDebug, func(string) string { return "pseudonym" })
	prev := slog.Default()
	slog.SetDefault(logger.Logger)
	t.Cleanup(func() { slog.SetDefault(prev) })

	limiter := NewRateLimiter(unreachableRedis(t), Config{IPLimit: 100, CleanupInterval: time.Hour}, nil, nil)
	t.Cleanup(func() { _ = limiter.Close() })

	ctx := context.Background()
	_, err := limiter.AllowIP(ctx, "203.0.113.77")
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, endpointBucket("assess", "203.0.113.77"), PerMinute(5))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Redis rate limit check failed")
	assert.Contains(t, out, `"ip":"pseudonym"`)
	assert.Contains(t, out, `"scope":"endpoint:assess"`)
	assert.NotContains(t, out, "203.0.113.77")
}
