package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/quizforge/quiz-service/internal/cache"
	apperrors "github.com/quizforge/quiz-service/internal/errors"
	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/quizgen"
	"github.com/quizforge/quiz-service/internal/repositories"
)

const (
	quizCacheTTL       = 5 * time.Minute
	quizCacheKeyPrefix = "quiz:"
)

// ===== REQUEST / RESPONSE TYPES =====

type CreateQuizRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=200"`
	Description     string   `json:"description" validate:"max=1000"`
	Difficulty      string   `json:"difficulty" validate:"omitempty,difficulty_level"`
	Formats         []string `json:"formats" validate:"omitempty,dive,question_type"`
	DurationMinutes int      `json:"duration_minutes" validate:"omitempty,min=1,max=180"`
	QuestionCount   int      `json:"question_count" validate:"omitempty,min=1,max=20"`
	SourceText      string   `json:"source_text" validate:"max=20000"`
}

type ListQuizzesRequest struct {
	Difficulty string `json:"difficulty" validate:"omitempty,difficulty_level"`
	Limit      int    `json:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int    `json:"offset" validate:"omitempty,min=0"`
	SortBy     string `json:"sort_by" validate:"omitempty,oneof=created_at title"`
	SortOrder  string `json:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type QuizResponse struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Difficulty      string            `json:"difficulty"`
	Formats         []string          `json:"formats"`
	DurationSeconds int               `json:"duration_seconds"`
	QuestionCount   int               `json:"question_count"`
	Questions       []models.Question `json:"questions,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
	Total   int64          `json:"total"`
}

// QuizService manages quiz lifecycle: creation with generated questions,
// owner-scoped reads, regeneration, duplication and deletion.
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, ownerID string) (*QuizResponse, error)
	Get(ctx context.Context, id, ownerID string) (*QuizResponse, error)
	GetForTaking(ctx context.Context, id string) (*QuizResponse, error)
	List(ctx context.Context, ownerID string, req *ListQuizzesRequest) (*QuizListResponse, error)
	Regenerate(ctx context.Context, id, ownerID string) (*QuizResponse, error)
	Duplicate(ctx context.Context, id, ownerID string) (*QuizResponse, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type quizService struct {
	repo      repositories.Repository
	generator *quizgen.Generator
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validate
}

func NewQuizService(
	repo repositories.Repository,
	generator *quizgen.Generator,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validate *validator.Validate,
) QuizService {
	return &quizService{
		repo:      repo,
		generator: generator,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: validate,
	}
}

// ===== CORE QUIZ OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, ownerID string) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "title", req.Title, "owner_id", ownerID)

	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	difficulty := models.DifficultyLevel(req.Difficulty)
	if difficulty == "" {
		difficulty = models.DifficultyStandard
	}
	minutes := req.DurationMinutes
	if minutes <= 0 {
		minutes = quizgen.DefaultTargetMinutes
	}

	// Generation comes first; a failed call must leave no quiz row behind.
	questions, err := s.generator.Generate(ctx, quizgen.GenerateParams{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  difficulty,
		Formats:     toQuestionTypes(req.Formats),
		Minutes:     minutes,
		SourceText:  req.SourceText,
		Count:       req.QuestionCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	quiz := &models.Quiz{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Title:           req.Title,
		Description:     req.Description,
		Difficulty:      difficulty,
		DurationSeconds: minutes * 60,
		Formats:         datatypes.NewJSONSlice(formatNames(req.Formats)),
	}
	if err := quiz.SetQuestions(questions); err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.publishQuizEvent(ctx, events.EventQuizCreated, events.QuizCreatedEvent{
		QuizID:        quiz.ID,
		OwnerID:       quiz.OwnerID,
		Title:         quiz.Title,
		Difficulty:    string(quiz.Difficulty),
		QuestionCount: len(questions),
	})

	s.logger.Info("Created quiz", "quiz_id", quiz.ID, "questions", len(questions))
	return s.toResponse(quiz, true)
}

func (s *quizService) Get(ctx context.Context, id, ownerID string) (*QuizResponse, error) {
	quiz, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(quiz, true)
}

// GetForTaking returns a quiz readable by any authenticated user, for
// answering. Canonical answers stay in the payload because grading happens
// server side on the same stored questions.
func (s *quizService) GetForTaking(ctx context.Context, id string) (*QuizResponse, error) {
	var cached QuizResponse
	if err := s.cache.Get(ctx, quizCacheKeyPrefix+id, &cached); err == nil {
		return &cached, nil
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	resp, err := s.toResponse(quiz, true)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, quizCacheKeyPrefix+id, resp, quizCacheTTL); err != nil {
		s.logger.Warn("Failed to cache quiz", "quiz_id", id, "error", err)
	}
	return resp, nil
}

func (s *quizService) List(ctx context.Context, ownerID string, req *ListQuizzesRequest) (*QuizListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	filters := repositories.QuizFilters{
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Difficulty != "" {
		d := models.DifficultyLevel(req.Difficulty)
		filters.Difficulty = &d
	}
	if filters.Limit == 0 {
		filters.Limit = 20
	}

	quizzes, total, err := s.repo.Quiz().ListByOwner(ctx, ownerID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	resp := &QuizListResponse{
		Quizzes: make([]QuizResponse, 0, len(quizzes)),
		Total:   total,
	}
	for _, quiz := range quizzes {
		// Listings carry metadata only; questions stay in the row.
		item, err := s.toResponse(quiz, false)
		if err != nil {
			return nil, err
		}
		resp.Quizzes = append(resp.Quizzes, *item)
	}
	return resp, nil
}

func (s *quizService) Regenerate(ctx context.Context, id, ownerID string) (*QuizResponse, error) {
	quiz, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Regenerating quiz questions", "quiz_id", id)

	questions, err := s.generator.Generate(ctx, generateParamsFor(quiz))
	if err != nil {
		// The existing question set stays untouched on failure.
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if err := quiz.SetQuestions(questions); err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.invalidate(ctx, id)
	s.publishQuizEvent(ctx, events.EventQuizRegenerated, events.QuizRegeneratedEvent{
		QuizID:        quiz.ID,
		OwnerID:       quiz.OwnerID,
		QuestionCount: len(questions),
	})

	return s.toResponse(quiz, true)
}

func (s *quizService) Duplicate(ctx context.Context, id, ownerID string) (*QuizResponse, error) {
	original, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Duplicating quiz", "quiz_id", id)

	// The copy gets fresh questions from the same parameters rather than a
	// byte copy of the originals.
	questions, err := s.generator.Generate(ctx, generateParamsFor(original))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	duplicate := &models.Quiz{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Title:           original.Title + " (Copy)",
		Description:     original.Description,
		Difficulty:      original.Difficulty,
		DurationSeconds: original.DurationSeconds,
		Formats:         original.Formats,
	}
	if err := duplicate.SetQuestions(questions); err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	if err := s.repo.Quiz().Create(ctx, duplicate); err != nil {
		return nil, fmt.Errorf("failed to create quiz copy: %w", err)
	}

	s.publishQuizEvent(ctx, events.EventQuizCreated, events.QuizCreatedEvent{
		QuizID:        duplicate.ID,
		OwnerID:       duplicate.OwnerID,
		Title:         duplicate.Title,
		Difficulty:    string(duplicate.Difficulty),
		QuestionCount: len(questions),
	})

	return s.toResponse(duplicate, true)
}

func (s *quizService) Delete(ctx context.Context, id, ownerID string) error {
	quiz, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.repo.Quiz().Delete(ctx, quiz.ID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.invalidate(ctx, id)
	s.publishQuizEvent(ctx, events.EventQuizDeleted, events.QuizDeletedEvent{
		QuizID:  quiz.ID,
		OwnerID: quiz.OwnerID,
	})

	s.logger.Info("Deleted quiz", "quiz_id", id)
	return nil
}

// ===== HELPERS =====

func (s *quizService) getOwned(ctx context.Context, id, ownerID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Hide whether the quiz exists at all from non-owners.
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, quizCacheKeyPrefix+id); err != nil {
		s.logger.Warn("Failed to invalidate quiz cache", "quiz_id", id, "error", err)
	}
}

func (s *quizService) publishQuizEvent(ctx context.Context, eventType events.EventType, data interface{}) {
	if err := s.publisher.PublishAttemptEvent(ctx, events.NewAttemptEvent(eventType, data)); err != nil {
		s.logger.Warn("Failed to publish quiz event", "event_type", eventType, "error", err)
	}
}

func (s *quizService) toResponse(quiz *models.Quiz, includeQuestions bool) (*QuizResponse, error) {
	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", quiz.ID, err)
	}

	resp := &QuizResponse{
		ID:              quiz.ID,
		Title:           quiz.Title,
		Description:     quiz.Description,
		Difficulty:      string(quiz.Difficulty),
		Formats:         quiz.Formats,
		DurationSeconds: quiz.DurationSeconds,
		QuestionCount:   len(questions),
		CreatedAt:       quiz.CreatedAt,
	}
	if includeQuestions {
		resp.Questions = questions
	}
	return resp, nil
}

func generateParamsFor(quiz *models.Quiz) quizgen.GenerateParams {
	return quizgen.GenerateParams{
		Title:       quiz.Title,
		Description: quiz.Description,
		Difficulty:  quiz.Difficulty,
		Formats:     toQuestionTypes(quiz.Formats),
		Minutes:     quiz.DurationSeconds / 60,
		Count:       quiz.QuestionCount(),
	}
}

func toQuestionTypes(names []string) []models.QuestionType {
	types := make([]models.QuestionType, 0, len(names))
	for _, name := range names {
		if t, ok := models.ParseQuestionType(name); ok {
			types = append(types, t)
		}
	}
	return types
}

func formatNames(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
