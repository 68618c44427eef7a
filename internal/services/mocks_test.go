package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/quizgen"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/utils"
)

// ===== REPOSITORY MOCKS =====

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetByIDForOwner(ctx context.Context, id, ownerID string) (*models.Quiz, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuizRepository) ListByOwner(ctx context.Context, ownerID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, ownerID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Quiz), args.Get(1).(int64), args.Error(2)
}

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithQuiz(ctx context.Context, id string) (*models.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) ListByQuiz(ctx context.Context, quizID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	args := m.Called(ctx, quizID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Attempt), args.Get(1).(int64), args.Error(2)
}

type mockRepository struct {
	quiz    *MockQuizRepository
	attempt *MockAttemptRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quiz:    new(MockQuizRepository),
		attempt: new(MockAttemptRepository),
	}
}

func (r *mockRepository) Quiz() repositories.QuizRepository {
	return r.quiz
}

func (r *mockRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

// ===== CACHE MOCK =====

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

// ===== LLM CLIENT MOCK =====

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts quizgen.CallOptions) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, opts)
	return args.String(0), args.Error(1)
}

// ===== SHARED FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testGenerator(client quizgen.Client) *quizgen.Generator {
	return quizgen.NewGenerator(client, testLogger())
}

func testPublisher() *events.MockEventPublisher {
	return events.NewMockEventPublisher(testLogger())
}

const generatedQuestions = `[
  {"question":"What is the capital of France?","type":"multiple_choice","options":["Paris","Lyon","Nice"],"answers":["Paris"]},
  {"question":"The sky is blue.","type":"true_false","options":["True","False"],"answers":["True"]}
]`

func testQuiz(t *testing.T, id, ownerID string) *models.Quiz {
	t.Helper()
	quiz := &models.Quiz{
		ID:              id,
		OwnerID:         ownerID,
		Title:           "Geography",
		Difficulty:      models.DifficultyStandard,
		DurationSeconds: 600,
	}
	err := quiz.SetQuestions([]models.Question{
		{
			ID:      "1",
			Text:    "What is the capital of France?",
			Type:    models.MultipleChoice,
			Options: models.Options{Choices: []string{"Paris", "Lyon", "Nice"}},
			Answers: models.Answers{Accepted: []string{"Paris"}},
		},
		{
			ID:      "2",
			Text:    "The sky is blue.",
			Type:    models.TrueFalse,
			Options: models.Options{Choices: []string{"True", "False"}},
			Answers: models.Answers{Accepted: []string{"True"}},
		},
	})
	require.NoError(t, err)
	return quiz
}

var testValidator = utils.NewValidator()
