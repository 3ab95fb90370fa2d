package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mwopts "github.com/kart-io/sentinel-docqa/pkg/options/middleware"
	"github.com/kart-io/sentinel-docqa/pkg/utils/response"
)

// HeaderXRequestID is the default request id header.
const HeaderXRequestID = "X-Request-ID"

type requestIDKey struct{}

// GetRequestID returns the request id stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID 读取请求头中的 request id，缺失时生成 UUID。
// id 写回响应头，并存入 gin 上下文与 request context。
func RequestID(opts *mwopts.RequestIDOptions) gin.HandlerFunc {
	header := HeaderXRequestID
	if opts != nil && opts.Header != "" {
		header = opts.Header
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(header)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(header, requestID)
		c.Set(response.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
