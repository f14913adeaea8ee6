package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

var errNoHistory = errors.New("run history disabled")

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// abortWithError keeps err on the context for the request log and answers
// with msg only.
func abortWithError(c *gin.Context, status int, err error, msg string) {
	_ = c.Error(err)
	var resp errorResponse
	resp.Error.Message = msg
	c.AbortWithStatusJSON(status, resp)
}

func recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("recovered from panic", "error", rec, "path", c.Request.URL.Path)
				var resp errorResponse
				resp.Error.Message = "Internal server error"
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}

func requestLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status_code", status),
			slog.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		log.LogAttrs(context.Background(), level, "request completed", attrs...)
	}
}
