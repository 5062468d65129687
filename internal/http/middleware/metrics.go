package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-order-backend/internal/observability"
)

// Metrics records request count, latency, in-flight concurrency and response
// size. Requests for the routes in skip (typically /metrics and /health) are
// passed through unrecorded so scrapes and health checks do not drown API traffic.
func Metrics(skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := ignored[c.FullPath()]; ok {
			c.Next()
			return
		}

		start := time.Now()
		observability.HTTPInflight.Inc()
		defer observability.HTTPInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = observability.RouteUnmatched
		}
		method := c.Request.Method

		observability.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		observability.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		// -1 when nothing was written
		if size := c.Writer.Size(); size >= 0 {
			observability.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
