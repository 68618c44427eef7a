package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	apperrors "github.com/quizforge/quiz-service/internal/errors"
	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/grading"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/quizgen"
	"github.com/quizforge/quiz-service/internal/repositories"
)

// ===== REQUEST / RESPONSE TYPES =====

type SubmitAttemptRequest struct {
	Answers   models.AnswerSet `json:"answers"`
	WeakAreas []string         `json:"weak_areas" validate:"omitempty,max=20,dive,max=200"`
}

type ListAttemptsRequest struct {
	Limit  int `json:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `json:"offset" validate:"omitempty,min=0"`
}

type AttemptResponse struct {
	ID         string    `json:"id"`
	QuizID     string    `json:"quiz_id"`
	QuizTitle  string    `json:"quiz_title,omitempty"`
	UserID     string    `json:"user_id"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	Remark     string    `json:"remark,omitempty"`
	WeakAreas  []string  `json:"weak_areas,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type AttemptListResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
	Total    int64             `json:"total"`
}

// QuestionResult is one row of the per-question breakdown of an attempt.
type QuestionResult struct {
	QuestionID string            `json:"question_id"`
	Question   string            `json:"question"`
	Type       string            `json:"type"`
	Correct    bool              `json:"correct"`
	Answer     grading.Canonical `json:"answer"`
}

type AttemptResultsResponse struct {
	Attempt AttemptResponse  `json:"attempt"`
	Results []QuestionResult `json:"results"`
}

// AttemptService grades submissions and records each one as an immutable
// attempt row. An attempt is created exactly once per submission; there is
// no update path.
type AttemptService interface {
	Submit(ctx context.Context, quizID, userID string, req *SubmitAttemptRequest) (*AttemptResponse, error)
	Get(ctx context.Context, id, userID string) (*AttemptResponse, error)
	Results(ctx context.Context, id, userID string) (*AttemptResultsResponse, error)
	ListByQuiz(ctx context.Context, quizID, ownerID string, req *ListAttemptsRequest) (*AttemptListResponse, error)
	ListByUser(ctx context.Context, userID string, req *ListAttemptsRequest) (*AttemptListResponse, error)
}

type attemptService struct {
	repo      repositories.Repository
	generator *quizgen.Generator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validate
}

func NewAttemptService(
	repo repositories.Repository,
	generator *quizgen.Generator,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validate *validator.Validate,
) AttemptService {
	return &attemptService{
		repo:      repo,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		validator: validate,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Submit(ctx context.Context, quizID, userID string, req *SubmitAttemptRequest) (*AttemptResponse, error) {
	s.logger.Info("Submitting attempt", "quiz_id", quizID, "user_id", userID)

	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", quizID, err)
	}

	result := grading.Grade(questions, req.Answers)

	// The remark is decoration on the score. A failed remark call degrades
	// to an empty remark; it never blocks the submission.
	remark, err := s.generator.Remark(ctx, quizgen.RemarkParams{
		Score:      result.Score,
		Total:      result.Total,
		Title:      quiz.Title,
		Difficulty: quiz.Difficulty,
		WeakAreas:  req.WeakAreas,
	})
	if err != nil {
		s.logger.Warn("Remark generation failed, recording attempt without it",
			"quiz_id", quizID,
			"error", err)
		remark = ""
	}

	attempt := &models.Attempt{
		ID:        uuid.New().String(),
		QuizID:    quiz.ID,
		UserID:    userID,
		Score:     result.Score,
		Total:     result.Total,
		Remark:    remark,
		WeakAreas: datatypes.NewJSONSlice(req.WeakAreas),
	}
	if err := attempt.SetAnswers(req.Answers); err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.publishCompleted(ctx, attempt, quiz.Title)

	s.logger.Info("Recorded attempt",
		"attempt_id", attempt.ID,
		"quiz_id", quizID,
		"score", result.Score,
		"total", result.Total)

	resp := toAttemptResponse(attempt)
	resp.QuizTitle = quiz.Title
	return resp, nil
}

func (s *attemptService) Get(ctx context.Context, id, userID string) (*AttemptResponse, error) {
	attempt, err := s.getVisible(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toAttemptResponse(attempt)
	resp.QuizTitle = attempt.Quiz.Title
	return resp, nil
}

// Results returns the per-question breakdown: correctness of the stored
// submission plus the canonical answers for review.
func (s *attemptService) Results(ctx context.Context, id, userID string) (*AttemptResultsResponse, error) {
	attempt, err := s.getVisible(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	questions, err := attempt.Quiz.DecodeQuestions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", attempt.QuizID, err)
	}
	answers, err := attempt.DecodeAnswers()
	if err != nil {
		return nil, fmt.Errorf("failed to decode answers for attempt %s: %w", id, err)
	}

	results := make([]QuestionResult, 0, len(questions))
	for i, q := range questions {
		qid := q.ID
		if qid == "" {
			qid = fmt.Sprintf("%d", i+1)
		}
		results = append(results, QuestionResult{
			QuestionID: qid,
			Question:   q.Text,
			Type:       string(q.Type),
			Correct:    grading.IsCorrect(q, answers[qid]),
			Answer:     grading.Explain(q),
		})
	}

	resp := toAttemptResponse(attempt)
	resp.QuizTitle = attempt.Quiz.Title
	return &AttemptResultsResponse{
		Attempt: *resp,
		Results: results,
	}, nil
}

func (s *attemptService) ListByQuiz(ctx context.Context, quizID, ownerID string, req *ListAttemptsRequest) (*AttemptListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	// Only the quiz owner can see everyone's attempts.
	if _, err := s.repo.Quiz().GetByIDForOwner(ctx, quizID, ownerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	attempts, total, err := s.repo.Attempt().ListByQuiz(ctx, quizID, listFilters(req))
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return toAttemptList(attempts, total), nil
}

func (s *attemptService) ListByUser(ctx context.Context, userID string, req *ListAttemptsRequest) (*AttemptListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	attempts, total, err := s.repo.Attempt().ListByUser(ctx, userID, listFilters(req))
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return toAttemptList(attempts, total), nil
}

// ===== HELPERS =====

func (s *attemptService) getVisible(ctx context.Context, id, userID string) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithQuiz(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.Quiz == nil {
		return nil, ErrQuizNotFound
	}

	// Visible to the taker and to the quiz owner, nobody else.
	if attempt.UserID != userID && attempt.Quiz.OwnerID != userID {
		return nil, ErrAttemptAccessDenied
	}
	return attempt, nil
}

func (s *attemptService) publishCompleted(ctx context.Context, attempt *models.Attempt, quizTitle string) {
	event := events.NewAttemptEvent(events.EventAttemptCompleted, events.AttemptCompletedEvent{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		QuizTitle:   quizTitle,
		UserID:      attempt.UserID,
		Score:       attempt.Score,
		Total:       attempt.Total,
		Percentage:  attempt.Percentage(),
		SubmittedAt: time.Now().UTC(),
	})
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish attempt completed event",
			"attempt_id", attempt.ID,
			"error", err)
	}
}

func toAttemptResponse(attempt *models.Attempt) *AttemptResponse {
	return &AttemptResponse{
		ID:         attempt.ID,
		QuizID:     attempt.QuizID,
		UserID:     attempt.UserID,
		Score:      attempt.Score,
		Total:      attempt.Total,
		Percentage: attempt.Percentage(),
		Remark:     attempt.Remark,
		WeakAreas:  attempt.WeakAreas,
		CreatedAt:  attempt.CreatedAt,
	}
}

func toAttemptList(attempts []*models.Attempt, total int64) *AttemptListResponse {
	resp := &AttemptListResponse{
		Attempts: make([]AttemptResponse, 0, len(attempts)),
		Total:    total,
	}
	for _, attempt := range attempts {
		item := toAttemptResponse(attempt)
		if attempt.Quiz != nil {
			item.QuizTitle = attempt.Quiz.Title
		}
		resp.Attempts = append(resp.Attempts, *item)
	}
	return resp
}

func listFilters(req *ListAttemptsRequest) repositories.AttemptFilters {
	filters := repositories.AttemptFilters{
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if filters.Limit == 0 {
		filters.Limit = 20
	}
	return filters
}
