package utils

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
)

// NewLogger builds the service logger for the given environment: JSON at
// Info level for production, text at Debug level for development.
func NewLogger(environment string) *slog.Logger {
	if environment == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// LoggerMiddleware creates a Gin middleware that routes request logs
// through slog instead of Gin's default writer. Status classes map to log
// levels so 4xx and 5xx responses stand out.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		level := slog.LevelInfo
		if param.StatusCode >= 400 {
			level = slog.LevelWarn
		}
		if param.StatusCode >= 500 {
			level = slog.LevelError
		}

		logger.Log(param.Request.Context(), level, "HTTP Request",
			"method", param.Method,
			"path", param.Path,
			"status_code", param.StatusCode,
			"duration", param.Latency.String(),
			"client_ip", param.ClientIP,
			"user_agent", param.Request.UserAgent(),
		)
		return ""
	})
}

// ContextLogger attaches a request-scoped logger to the Gin context.
func ContextLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger.With(
			"request_id", c.GetHeader("X-Request-ID"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.Set("logger", requestLogger)
		c.Next()
	}
}

// GetLoggerFromContext retrieves the request-scoped logger, falling back to
// the default slog logger when the middleware did not run.
func GetLoggerFromContext(c *gin.Context) *slog.Logger {
	if logger, exists := c.Get("logger"); exists {
		if typed, ok := logger.(*slog.Logger); ok {
			return typed
		}
	}
	return slog.Default()
}
