package middleware

import (
	"context"

	"github.com/techstridesocial/ss-sub002/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceHeader      = "X-Trace-ID"
	maxTraceIDLength = 64
)

// TraceMiddleware 透传或生成 trace id，写入 gin 与 request context
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" || len(traceID) > maxTraceIDLength {
			traceID = "http-" + uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		ctx := context.WithValue(c.Request.Context(), logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(traceHeader, traceID)
		c.Next()
	}
}
