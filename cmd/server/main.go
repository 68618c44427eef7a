package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizforge/quiz-service/internal/cache"
	"github.com/quizforge/quiz-service/internal/config"
	"github.com/quizforge/quiz-service/internal/handlers"
	"github.com/quizforge/quiz-service/internal/quizgen"
	"github.com/quizforge/quiz-service/internal/repositories/postgres"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
	"github.com/quizforge/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := config.LoadEventConfig().CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	llmClient, err := quizgen.NewOpenAIClient(quizgen.ClientConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	})
	if err != nil {
		logger.Error("Failed to create LLM client", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)
	cacheService := cache.NewRedisCache(redisClient, logger)
	generator := quizgen.NewGenerator(llmClient, logger)
	validate := utils.NewValidator()

	quizService := services.NewQuizService(repo, generator, cacheService, publisher, logger, validate)
	attemptService := services.NewAttemptService(repo, generator, publisher, logger, validate)
	exportService := services.NewExportService(repo, logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	handlers.NewHandlerManager(quizService, attemptService, exportService, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting quiz service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
