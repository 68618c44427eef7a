package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quizforge/quiz-service/internal/services"
)

type QuizHandler struct {
	BaseHandler
	quizService   services.QuizService
	exportService services.ExportService
}

func NewQuizHandler(quizService services.QuizService, exportService services.ExportService, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler:   NewBaseHandler(logger),
		quizService:   quizService,
		exportService: exportService,
	}
}

// CreateQuiz generates questions from the request parameters and persists a
// new quiz owned by the caller.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req, UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns one of the caller's quizzes including questions.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), id, UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetQuizForTaking returns a quiz to any authenticated user for answering.
func (h *QuizHandler) GetQuizForTaking(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	quiz, err := h.quizService.GetForTaking(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListQuizzes returns the caller's quizzes, metadata only.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	req := services.ListQuizzesRequest{
		Difficulty: c.Query("difficulty"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}

	quizzes, err := h.quizService.List(c.Request.Context(), UserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// RegenerateQuiz replaces a quiz's questions with a fresh generation.
func (h *QuizHandler) RegenerateQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	quiz, err := h.quizService.Regenerate(c.Request.Context(), id, UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DuplicateQuiz copies a quiz's metadata under a "(Copy)" title with fresh
// questions.
func (h *QuizHandler) DuplicateQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	quiz, err := h.quizService.Duplicate(c.Request.Context(), id, UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// DeleteQuiz removes a quiz and its attempts.
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), id, UserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz deleted"})
}

// ExportQuiz streams the quiz's questions or results as a file download.
// Query params: format=xlsx|csv|json (default xlsx), target=questions|results.
func (h *QuizHandler) ExportQuiz(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	target := c.DefaultQuery("target", "questions")
	var data []byte
	switch target {
	case "questions":
		data, err = h.exportService.ExportQuestions(c.Request.Context(), id, UserID(c), format)
	case "results":
		data, err = h.exportService.ExportResults(c.Request.Context(), id, UserID(c), format)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid export target",
			Details: "target must be questions or results",
		})
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-%s-%s.%s", id, target, format.Extension())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, format.ContentType(), data)
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
