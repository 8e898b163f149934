// Package requestlog provides middleware that logs every request
package requestlog

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// HeaderRequestID carries the request id in and out
const HeaderRequestID = "X-Request-ID"

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// Middleware returns a middleware function that logs request details.
// An incoming X-Request-ID is kept; otherwise one is generated.
func Middleware() gin.HandlerFunc {
	httpLog := logger.HTTP()

	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)

		httpLog.Debug("Request started",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"remote_addr", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		c.Next()

		latency := time.Since(startTime)
		status := c.Writer.Status()

		level := log.InfoLevel
		switch {
		case status >= 500:
			level = log.ErrorLevel
		case status >= 400:
			level = log.WarnLevel
		}

		fields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency", latency,
			"size", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		httpLog.Log(level, "Request completed", fields...)
	}
}

// RequestID returns the id assigned to the current request
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
