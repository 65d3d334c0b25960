package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pos-platform/pos/pkg/metrics"
)

// MetricsMiddleware records HTTP request metrics for each request
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	exclude := map[string]bool{
		"/health":  true,
		"/ready":   true,
		"/metrics": true,
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if exclude[path] {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		start := time.Now()

		c.Next()

		m.DecrementHTTPRequestsInFlight()

		// Use route pattern to avoid cardinality explosion from path params
		routePath := c.FullPath()
		if routePath == "" {
			routePath = "unmatched"
		}

		m.RecordHTTPRequest(c.Request.Method, routePath, c.Writer.Status(), time.Since(start))
	}
}

// MetricsEndpoint returns a handler that serves Prometheus metrics
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
