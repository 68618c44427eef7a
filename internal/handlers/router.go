package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/quizforge/quiz-service/internal/services"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
}

func NewHandlerManager(
	quizService services.QuizService,
	attemptService services.AttemptService,
	exportService services.ExportService,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(quizService, exportService, logger),
		attemptHandler: NewAttemptHandler(attemptService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware())
	{
		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/take", hm.quizHandler.GetQuizForTaking)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/regenerate", hm.quizHandler.RegenerateQuiz)
			quizzes.POST("/:id/duplicate", hm.quizHandler.DuplicateQuiz)
			quizzes.GET("/:id/export", hm.quizHandler.ExportQuiz)

			// Attempts at one quiz
			quizzes.POST("/:id/attempts", hm.attemptHandler.SubmitAttempt)
			quizzes.GET("/:id/attempts", hm.attemptHandler.ListQuizAttempts)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListMyAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/results", hm.attemptHandler.GetAttemptResults)
		}
	}
}
