package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/vidshare/internal/logger"
)

// LoggerMiddleware writes one structured line per request.
type LoggerMiddleware struct {
	logger    *logrus.Logger
	skipPaths map[string]bool
}

// NewLoggerMiddleware logs through the shared logger. Requests to skipPaths
// (health probes, scrapes) are not logged.
func NewLoggerMiddleware(skipPaths ...string) *LoggerMiddleware {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &LoggerMiddleware{
		logger:    logger.GetLogger(),
		skipPaths: skip,
	}
}

// RequestLogger logs status, latency, client and request id after the
// handler chain ran. 5xx answers are logged at error level, 4xx at warn.
func (m *LoggerMiddleware) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if m.skipPaths[path] {
			c.Next()
			return
		}

		start := time.Now()
		raw := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		entry := m.logger.WithFields(logrus.Fields{
			"status":     status,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"raw_query":  raw,
			"user_agent": c.Request.UserAgent(),
			"request_id": c.GetString(RequestIDKey),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("HTTP Response")
		case status >= 400:
			entry.Warn("HTTP Response")
		default:
			entry.Info("HTTP Response")
		}
	}
}
