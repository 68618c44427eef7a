package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/quizforge/quiz-service/internal/errors"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger *slog.Logger
}

func NewBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogError logs error details through the request-scoped logger, which
// already carries the request id, method and path.
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	h.requestLogger(c).Error(msg,
		"error", err,
		"user_id", UserID(c))
}

// requestLogger prefers the logger attached by utils.ContextLogger and
// falls back to the handler's own when the middleware did not run.
func (h *BaseHandler) requestLogger(c *gin.Context) *slog.Logger {
	if _, exists := c.Get("logger"); exists {
		return utils.GetLoggerFromContext(c)
	}
	return h.logger
}

// handleServiceError maps service errors onto HTTP status codes
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: ve,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
		})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Attempt not found",
		})
	case errors.Is(err, services.ErrQuizAccessDenied), errors.Is(err, services.ErrAttemptAccessDenied), errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
		})
	case errors.Is(err, services.ErrGenerationFailed):
		// The upstream model failed or replied with garbage; the client
		// can retry without changing the request.
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Question generation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
		})
	case errors.Is(err, services.ErrValidationFailed), errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// ===== IDENTITY =====

const userIDKey = "user_id"

// IdentityMiddleware reads the caller identity set by the upstream gateway.
// Requests without one are rejected; authentication itself happens before
// this service.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the caller identity placed by IdentityMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// ===== HELPERS =====

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "quiz-service",
	})
}
