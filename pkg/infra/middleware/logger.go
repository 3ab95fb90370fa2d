package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-docqa/pkg/infra/tracing"
	mwopts "github.com/kart-io/sentinel-docqa/pkg/options/middleware"
)

// Logger returns a middleware that writes one structured access log line per request.
func Logger(opts *mwopts.LoggerOptions) gin.HandlerFunc {
	skip := make(map[string]struct{})
	if opts != nil {
		for _, p := range opts.SkipPaths {
			skip[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP(),
			"latency", latency.String(),
			"latency_ms", latency.Milliseconds(),
		}
		if id := GetRequestID(c.Request.Context()); id != "" {
			fields = append(fields, "request_id", id)
		}
		if traceID := tracing.TraceIDFromContext(c.Request.Context()); traceID != "" {
			fields = append(fields, "trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		logger.Infow("HTTP Request", fields...)
	}
}
