package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WriteMiddleware records every non-GET /api/ request after it completes.
func WriteMiddleware(c *Client, logger *zap.Logger) gin.HandlerFunc {
	if c == nil {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.Request.URL.Path
		method := strings.ToUpper(ctx.Request.Method)
		if !strings.HasPrefix(path, "/api/") {
			return
		}
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return
		}

		status := ctx.Writer.Status()
		reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := c.CreateLog(reqCtx, Record{
			Action: "http_write",
			Level:  LevelFromStatus(status),
			Details: map[string]any{
				"method":   method,
				"path":     ctx.FullPath(),
				"status":   status,
				"duration": time.Since(start).String(),
			},
		})
		if err != nil && logger != nil {
			logger.Debug("audit log failed", zap.Error(err))
		}
	}
}

func LevelFromStatus(status int) string {
	if status >= 500 {
		return "error"
	}
	if status >= 400 {
		return "warn"
	}
	return "info"
}
