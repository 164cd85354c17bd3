package ratelimit

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
)

// QuotaStatus is the caller's standing in one bucket.
type QuotaStatus struct {
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Period    string `json:"period"`
	ResetAt   string `json:"reset_at"`
}

// StatusResponse is the body of the rate limit status endpoint.
type StatusResponse struct {
	Backend   string                 `json:"backend"`
	IP        QuotaStatus            `json:"ip"`
	Endpoints map[string]QuotaStatus `json:"endpoints"`
	Timestamp string                 `json:"timestamp"`
}

// HandleRateLimitStatus reports the caller's remaining quota without charging
// any bucket.
func (rl *RateLimiter) HandleRateLimitStatus(endpointLimits map[string]int) gin.HandlerFunc {
	names := make([]string, 0, len(endpointLimits))
	for name := range endpointLimits {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		ipResult, err := rl.Peek(ctx, Bucket{Scope: "ip", IP: ip}, PerMinute(rl.config.IPLimit))
		if err != nil {
			apperrors.Abort(c, apperrors.NewInternalError("rate limit status unavailable", err))
			return
		}

		resp := StatusResponse{
			Backend:   rl.backend(),
			IP:        quotaStatus(ipResult, time.Minute),
			Endpoints: make(map[string]QuotaStatus, len(names)),
			Timestamp: time.Now().Format(time.RFC3339),
		}
		for _, name := range names {
			res, err := rl.Peek(ctx, endpointBucket(name, ip), PerMinute(endpointLimits[name]))
			if err != nil {
				apperrors.Abort(c, apperrors.NewInternalError("rate limit status unavailable", err))
				return
			}
			resp.Endpoints[name] = quotaStatus(res, time.Minute)
		}

		c.JSON(http.StatusOK, resp)
	}
}

func quotaStatus(r *Result, period time.Duration) QuotaStatus {
	return QuotaStatus{
		Limit:     r.Limit,
		Remaining: r.Remaining,
		Period:    period.String(),
		ResetAt:   r.ResetAt.UTC().Format(time.RFC3339),
	}
}

func (rl *RateLimiter) backend() string {
	if rl.redisClient.IsEnabled() {
		return "redis"
	}
	return "memory"
}
