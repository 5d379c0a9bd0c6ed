package middleware

import (
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/server/metrics"
)

var numericIDRegex = regexp.MustCompile(`/\d+(?:/|$)`)

// Metrics records request count, latency and response size for every
// request. Paths are taken from the matched route so metric labels stay
// low-cardinality; unmatched paths fall back to a normalized URL.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.HTTPActiveRequests.Inc()
		defer metrics.HTTPActiveRequests.Dec()

		path := c.FullPath()
		if path == "" {
			path = normalizeMetricPath(c.Request.URL.Path)
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		responseSize := float64(c.Writer.Size())
		if responseSize < 0 {
			responseSize = 0
		}

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
		metrics.HTTPResponseSize.WithLabelValues(c.Request.Method, path).Observe(responseSize)
	}
}

// normalizeMetricPath replaces numeric path segments with a placeholder
func normalizeMetricPath(path string) string {
	if path == "" {
		return "/"
	}
	return numericIDRegex.ReplaceAllString(path, "/:id/")
}
