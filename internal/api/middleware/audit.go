package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const auditBodyLimit = 4096

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if remain := auditBodyLimit - r.body.Len(); remain > 0 {
		if len(b) > remain {
			r.body.Write(b[:remain])
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// AuditMiddleware 记录请求与响应。画像快照较大，响应体只保留前 4KB
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var reqBody []byte
		if c.Request.Body != nil {
			reqBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, auditBodyLimit+1))
			c.Request.Body = io.NopCloser(bytes.NewBuffer(reqBody))
		}
		if len(reqBody) > auditBodyLimit {
			reqBody = reqBody[:auditBodyLimit]
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", c.Request.URL.RawQuery),
			log.String("req_body", string(reqBody)),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		start := time.Now()

		c.Next()

		log.InfoContext(ctx, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(start)),
			log.String("res_body", w.body.String()),
		)
	}
}
