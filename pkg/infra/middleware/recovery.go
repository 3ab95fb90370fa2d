package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	mwopts "github.com/kart-io/sentinel-docqa/pkg/options/middleware"
	"github.com/kart-io/sentinel-docqa/pkg/utils/response"
)

// Recovery returns a middleware that recovers from panics.
// The panic is logged and the client receives ErrInternal; the panic value never leaks.
func Recovery(opts *mwopts.RecoveryOptions) gin.HandlerFunc {
	withStack := opts == nil || opts.EnableStackTrace

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := []interface{}{
					"panic", fmt.Sprintf("%v", r),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(response.RequestIDKey),
				}
				if withStack {
					fields = append(fields, "stack", string(debug.Stack()))
				}
				logger.Errorw("Panic recovered", fields...)

				response.Fail(c, errors.ErrInternal)
				c.Abort()
			}
		}()
		c.Next()
	}
}
