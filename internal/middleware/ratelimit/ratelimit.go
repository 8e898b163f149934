// Package ratelimit provides a sliding-window rate limit middleware
package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/ratelimit"
	"github.com/gravadigital/posterjudge-api/internal/response"
)

// Limit rejects requests over the limiter's budget with 429. Requests are
// keyed by client IP and route. A nil limiter lets everything through, and
// so does a limiter error. Preflight requests are never counted.
func Limit(limiter ratelimit.Limiter) gin.HandlerFunc {
	log := logger.Handler("ratelimit")

	return func(c *gin.Context) {
		if limiter == nil || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limiter unavailable, letting request through", "key", key, "error", err)
			c.Next()
			return
		}

		if !allowed {
			response.ErrorWithKind(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
