package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/metrics"
)

// requestMetrics records renderq_api_requests_total and
// renderq_api_request_duration_seconds for every request, labeled by the
// route pattern rather than the raw path so templated routes
// (/api/v1/jobs/:id) don't explode label cardinality per distinct id.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := metrics.NewTimer()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.APIRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		timer.ObserveDurationVec(metrics.APIRequestDuration, c.Request.Method, path)
	}
}
