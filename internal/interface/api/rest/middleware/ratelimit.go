package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"file-vault-api/internal/application/ports"
)

const (
	CodeRateLimited = "rate_limited"
	MsgRateLimited  = "Call Limit Reached"
)

// RateLimit admits or rejects a request per owner before any handler runs.
// It must be mounted after Owner. A failing limiter lets the request through.
func RateLimit(limiter ports.RateLimiter, logger *zap.Logger, mCounter *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := OwnerFrom(c)

		d, err := limiter.Allow(c.Request.Context(), owner)
		if err != nil {
			logger.Error("rate limiter error", zap.Error(err), zap.String("owner", owner))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			if mCounter != nil {
				mCounter.WithLabelValues("rate_limited_total").Inc()
			}
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d)))
			c.AbortWithStatusJSON(
				http.StatusTooManyRequests,
				gin.H{"error": MsgRateLimited, "code": CodeRateLimited},
			)
			return
		}

		c.Next()
	}
}

// retryAfterSeconds rounds up so a client never retries inside the window.
func retryAfterSeconds(d ports.RateDecision) int {
	return max(int(math.Ceil(d.RetryAfter.Seconds())), 1)
}
