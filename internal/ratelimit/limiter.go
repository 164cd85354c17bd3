package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ZanzyTHEbar/neuropredict/internal/cache"
	"github.com/ZanzyTHEbar/neuropredict/internal/monitoring"
	"github.com/ZanzyTHEbar/neuropredict/internal/resilience"
	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimit         int           // requests per minute per IP
	CleanupInterval time.Duration // sweep interval for idle fallback limiters
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimit:         60,
		CleanupInterval: 5 * time.Minute,
	}
}

// Rate is a request budget per period.
type Rate struct {
	Limit  int
	Period time.Duration
}

// PerMinute returns a per-minute rate.
func PerMinute(limit int) Rate {
	return Rate{Limit: limit, Period: time.Minute}
}

// Bucket identifies one budget: a scope such as "ip" or "endpoint:assess"
// and the client it is charged to. The client address is kept apart from the
// scope so it only reaches the log as an "ip" attribute.
type Bucket struct {
	Scope string
	IP    string
}

func (b Bucket) key() string {
	return "ratelimit:" + b.Scope + ":" + b.IP
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter provides distributed rate limiting with Redis and in-memory fallback
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      *monitoring.Metrics
	prom         *monitoring.Prometheus
	breaker      *resilience.CircuitBreaker

	// idle fallback limiters expire from the store
	fallback *cache.Store[string, *rate.Limiter]
}

// NewRateLimiter creates a new rate limiter with Redis and in-memory fallback.
// metrics and prom may be nil.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics, prom *monitoring.Prometheus) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &RateLimiter{
		redisClient: redisClient,
		config:      config,
		metrics:     metrics,
		prom:        prom,
		fallback:    cache.NewStore[string, *rate.Limiter](time.Hour, config.CleanupInterval, nil),
		breaker: resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 1,
		}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	return rl
}

// AllowIP checks if an IP address is allowed to make a request (per-minute limit)
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, Bucket{Scope: "ip", IP: ip}, PerMinute(rl.config.IPLimit))
}

// Allow charges one request to b using Redis, or the in-memory fallback when
// Redis is disabled or failing. Repeated Redis failures open the breaker and
// skip Redis until it recovers.
func (rl *RateLimiter) Allow(ctx context.Context, b Bucket, r Rate) (*Result, error) {
	return rl.check(ctx, b, r, 1)
}

// Peek reports the state of b without charging it.
func (rl *RateLimiter) Peek(ctx context.Context, b Bucket, r Rate) (*Result, error) {
	return rl.check(ctx, b, r, 0)
}

func (rl *RateLimiter) check(ctx context.Context, b Bucket, r Rate, n int) (*Result, error) {
	if r.Limit <= 0 || r.Period <= 0 {
		return nil, fmt.Errorf("invalid rate %d per %s", r.Limit, r.Period)
	}

	if rl.redisClient.IsEnabled() && rl.redisLimiter != nil {
		var result *Result
		err := rl.breaker.Call(func() error {
			var err error
			result, err = rl.allowRedis(ctx, b.key(), r, n)
			return err
		})
		if err == nil {
			return result, nil
		}

		if !errors.Is(err, resilience.ErrOpen) {
			slog.Warn("Redis rate limit check failed, using fallback", "scope", b.Scope, "ip", b.IP, "error", err)
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitRedisError()
			}
		}
	}

	if rl.metrics != nil && n > 0 {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(b.key(), r, n), nil
}

// allowRedis performs rate limiting using the Redis GCRA limiter. n == 0
// reads the bucket without consuming.
func (rl *RateLimiter) allowRedis(ctx context.Context, key string, r Rate, n int) (*Result, error) {
	limit := redis_rate.Limit{
		Rate:   r.Limit,
		Burst:  r.Limit,
		Period: r.Period,
	}

	res, err := rl.redisLimiter.AllowN(ctx, key, limit, n)
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed >= n,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

func (rl *RateLimiter) fallbackLimiter(key string, r Rate) *rate.Limiter {
	storeKey := fmt.Sprintf("%s:%d:%s", key, r.Limit, r.Period)
	if limiter, ok := rl.fallback.Get(storeKey); ok {
		rl.fallback.Touch(storeKey)
		return limiter
	}

	limiter := rate.NewLimiter(rate.Limit(float64(r.Limit)/r.Period.Seconds()), r.Limit)
	rl.fallback.Set(storeKey, limiter)
	return limiter
}

// allowFallback performs rate limiting using an in-memory token bucket
func (rl *RateLimiter) allowFallback(key string, r Rate, n int) *Result {
	limiter := rl.fallbackLimiter(key, r)
	now := time.Now()

	allowed := true
	if n > 0 {
		allowed = limiter.AllowN(now, n)
	}
	tokens := limiter.TokensAt(now)

	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}

	perToken := time.Duration(float64(time.Second) / float64(limiter.Limit()))
	result := &Result{
		Allowed:   allowed,
		Limit:     r.Limit,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration((float64(r.Limit) - tokens) * float64(perToken))),
	}

	if !allowed {
		result.RetryAfter = time.Duration((1 - tokens) * float64(perToken))
		if result.RetryAfter <= 0 {
			result.RetryAfter = perToken
		}
	}

	return result
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": rl.fallback.Len(),
		"ip_limit_per_min":  rl.config.IPLimit,
	}

	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
		stats["redis_breaker"] = rl.breaker.Stats()
	}

	return stats
}

// Close stops the fallback sweeper. The Redis client is owned by the caller.
func (rl *RateLimiter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rl.fallback.Close(ctx)
}
