package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"certhub/internal/metrics"
)

// Metrics counts requests by route template, so path ids do not explode
// label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
