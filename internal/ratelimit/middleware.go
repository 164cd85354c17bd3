package ratelimit

import (
	"log/slog"
	"strconv"
	"time"

	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/gin-gonic/gin"
)

func (rl *RateLimiter) reject(c *gin.Context, scope string, result *Result) {
	if rl.prom != nil {
		rl.prom.ObserveRateLimited(scope)
	}

	retryAfter := int(result.RetryAfter.Round(time.Second).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	apperrors.Abort(c, apperrors.NewRateLimitError(strconv.Itoa(retryAfter)))
}

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// never block on limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}
			rl.reject(c, "ip", result)
			return
		}

		c.Next()
	}
}

// EndpointRateLimitMiddleware creates middleware for endpoint-specific rate limiting
func (rl *RateLimiter) EndpointRateLimitMiddleware(endpoint string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		result, err := rl.Allow(c.Request.Context(), endpointBucket(endpoint, ip), PerMinute(limit))
		if err != nil {
			slog.Error("Endpoint rate limit check failed", "endpoint", endpoint, "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Endpoint-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Endpoint-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitEndpoint(endpoint)
			}
			rl.reject(c, "endpoint", result)
			return
		}

		c.Next()
	}
}

func endpointBucket(endpoint, ip string) Bucket {
	return Bucket{Scope: "endpoint:" + endpoint, IP: ip}
}
