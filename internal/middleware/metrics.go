package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-hq/lifecycle-api/internal/service"
)

// Metrics returns middleware that captures request metrics using the provided service.
func Metrics(instruments *service.InstrumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if instruments == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		instruments.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
