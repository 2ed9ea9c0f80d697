package middleware

import (
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger writes one access line per request, at warn for 4xx and error for 5xx.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		log := logger.FromContext(c.Request.Context())
		const format = "%s %s status=%d latency_ms=%d client_ip=%s"
		args := []interface{}{c.Request.Method, path, status, time.Since(start).Milliseconds(), c.ClientIP()}
		switch {
		case status >= 500:
			log.Errorf(format, args...)
		case status >= 400:
			log.Warnf(format, args...)
		default:
			log.Infof(format, args...)
		}
	}
}
