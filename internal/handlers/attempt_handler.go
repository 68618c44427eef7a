package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizforge/quiz-service/internal/services"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// SubmitAttempt grades the submitted answers and records the attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	quizID := ParseStringIDParam(c, "id")
	if quizID == "" {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), quizID, UserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// GetAttempt returns one attempt, visible to the taker and the quiz owner.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), id, UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAttemptResults returns the per-question breakdown with canonical answers.
func (h *AttemptHandler) GetAttemptResults(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	results, err := h.attemptService.Results(c.Request.Context(), id, UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ListQuizAttempts returns every attempt at one quiz, owner only.
func (h *AttemptHandler) ListQuizAttempts(c *gin.Context) {
	quizID := ParseStringIDParam(c, "id")
	if quizID == "" {
		return
	}

	req := services.ListAttemptsRequest{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}

	attempts, err := h.attemptService.ListByQuiz(c.Request.Context(), quizID, UserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// ListMyAttempts returns the caller's attempt history across quizzes.
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	req := services.ListAttemptsRequest{
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}

	attempts, err := h.attemptService.ListByUser(c.Request.Context(), UserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}
