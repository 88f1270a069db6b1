package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"certhub/internal/pkg/response"
)

// ErrorLogger logs handler errors and 5xx responses, and turns panics into
// a 500 envelope.
func ErrorLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				logRequestError(logger, c, start, "panic", fmt.Sprintf("%v", recovered),
					slog.String("stack", string(debug.Stack())))
				response.CustomError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				c.Abort()
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					logRequestError(logger, c, start, "http_error", fmt.Sprintf("status=%d", c.Writer.Status()))
				}
				return
			}

			for _, err := range c.Errors {
				logRequestError(logger, c, start, fmt.Sprintf("%v", err.Type), err.Error())
			}
		}()

		c.Next()
	}
}

func logRequestError(logger *slog.Logger, c *gin.Context, start time.Time, errType, message string, extra ...any) {
	attrs := []any{
		slog.String("type", errType),
		slog.Int("status", c.Writer.Status()),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("client_ip", c.ClientIP()),
		slog.Int64("user_id", c.GetInt64("user_id")),
		slog.String("role", c.GetString("role")),
		slog.String("request_id", requestID(c)),
		slog.Duration("latency", time.Since(start)),
		slog.String("error", message),
	}
	logger.Error("request_error", append(attrs, extra...)...)
}
