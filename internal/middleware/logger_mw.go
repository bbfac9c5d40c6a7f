package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"phone_auth/internal/metrics"
	"phone_auth/internal/reqctx"

	"github.com/gin-gonic/gin"
)

// AccessLogMiddleware logs one line per request and observes its latency.
// Must run after RequestIDMiddleware to pick up the request-scoped logger.
func AccessLogMiddleware(fallback *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if m != nil {
			m.RequestDuration.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Observe(elapsed.Seconds())
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		reqctx.Logger(c.Request.Context(), fallback).LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// RecoveryMiddleware turns panics into the standard 500 JSON error.
func RecoveryMiddleware(fallback *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		reqctx.Logger(c.Request.Context(), fallback).Error("panic recovered", slog.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
