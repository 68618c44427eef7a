package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quizforge/quiz-service/internal/events"
	"github.com/quizforge/quiz-service/internal/models"
)

func newAttemptService(repo *mockRepository, llm *MockLLMClient, publisher *events.MockEventPublisher) AttemptService {
	return NewAttemptService(repo, testGenerator(llm), publisher, testLogger(), testValidator)
}

func TestAttemptService_Submit(t *testing.T) {
	repo := newMockRepository()
	llm := new(MockLLMClient)
	publisher := testPublisher()
	service := newAttemptService(repo, llm, publisher)

	repo.quiz.On("GetByID", mock.Anything, "quiz-1").Return(testQuiz(t, "quiz-1", "owner-1"), nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Well done, keep practicing capitals.", nil)

	var created *models.Attempt
	repo.attempt.On("Create", mock.Anything, mock.AnythingOfType("*models.Attempt")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Attempt)
		}).Return(nil)

	resp, err := service.Submit(context.Background(), "quiz-1", "taker-1", &SubmitAttemptRequest{
		Answers: models.AnswerSet{
			"1": {Text: " paris "},
			"2": {Text: "False"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Score)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 50, resp.Percentage)
	assert.Equal(t, "Well done, keep practicing capitals.", resp.Remark)
	assert.Equal(t, "Geography", resp.QuizTitle)

	require.NotNil(t, created)
	assert.Equal(t, "taker-1", created.UserID)
	stored, err := created.DecodeAnswers()
	require.NoError(t, err)
	assert.Equal(t, " paris ", stored["1"].Text)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptCompleted, published[0].Type)
	payload, ok := published[0].Data.(events.AttemptCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, payload.Score)
	assert.Equal(t, 50, payload.Percentage)
}

func TestAttemptService_Submit_EmptyAnswersScoreZero(t *testing.T) {
	repo := newMockRepository()
	llm := new(MockLLMClient)
	service := newAttemptService(repo, llm, testPublisher())

	repo.quiz.On("GetByID", mock.Anything, "quiz-1").Return(testQuiz(t, "quiz-1", "owner-1"), nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Keep at it.", nil)
	repo.attempt.On("Create", mock.Anything, mock.AnythingOfType("*models.Attempt")).Return(nil)

	resp, err := service.Submit(context.Background(), "quiz-1", "taker-1", &SubmitAttemptRequest{
		Answers: models.AnswerSet{},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Score)
	assert.Equal(t, 2, resp.Total)
}

func TestAttemptService_Submit_RemarkFailureDoesNotBlock(t *testing.T) {
	repo := newMockRepository()
	llm := new(MockLLMClient)
	service := newAttemptService(repo, llm, testPublisher())

	repo.quiz.On("GetByID", mock.Anything, "quiz-1").Return(testQuiz(t, "quiz-1", "owner-1"), nil)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)
	repo.attempt.On("Create", mock.Anything, mock.AnythingOfType("*models.Attempt")).Return(nil)

	resp, err := service.Submit(context.Background(), "quiz-1", "taker-1", &SubmitAttemptRequest{
		Answers: models.AnswerSet{"1": {Text: "Paris"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Score)
	assert.Empty(t, resp.Remark)
	repo.attempt.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*models.Attempt"))
}

func TestAttemptService_Submit_QuizNotFound(t *testing.T) {
	repo := newMockRepository()
	service := newAttemptService(repo, new(MockLLMClient), testPublisher())

	repo.quiz.On("GetByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	_, err := service.Submit(context.Background(), "missing", "taker-1", &SubmitAttemptRequest{
		Answers: models.AnswerSet{},
	})

	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestAttemptService_Results(t *testing.T) {
	repo := newMockRepository()
	service := newAttemptService(repo, new(MockLLMClient), testPublisher())

	quiz := testQuiz(t, "quiz-1", "owner-1")
	attempt := &models.Attempt{
		ID:     "attempt-1",
		QuizID: "quiz-1",
		UserID: "taker-1",
		Score:  1,
		Total:  2,
		Quiz:   quiz,
	}
	require.NoError(t, attempt.SetAnswers(models.AnswerSet{
		"1": {Text: "Paris"},
		"2": {Text: "False"},
	}))
	repo.attempt.On("GetByIDWithQuiz", mock.Anything, "attempt-1").Return(attempt, nil)

	resp, err := service.Results(context.Background(), "attempt-1", "taker-1")

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.True(t, resp.Results[0].Correct)
	assert.Equal(t, "Paris", resp.Results[0].Answer.Value)

	assert.False(t, resp.Results[1].Correct)
	assert.Equal(t, "True", resp.Results[1].Answer.Value)
}

func TestAttemptService_Get_AccessControl(t *testing.T) {
	repo := newMockRepository()
	service := newAttemptService(repo, new(MockLLMClient), testPublisher())

	attempt := &models.Attempt{
		ID:     "attempt-1",
		QuizID: "quiz-1",
		UserID: "taker-1",
		Quiz:   testQuiz(t, "quiz-1", "owner-1"),
	}
	repo.attempt.On("GetByIDWithQuiz", mock.Anything, "attempt-1").Return(attempt, nil)

	// The taker sees their own attempt.
	_, err := service.Get(context.Background(), "attempt-1", "taker-1")
	assert.NoError(t, err)

	// The quiz owner sees it too.
	_, err = service.Get(context.Background(), "attempt-1", "owner-1")
	assert.NoError(t, err)

	// Anyone else does not.
	_, err = service.Get(context.Background(), "attempt-1", "stranger")
	assert.ErrorIs(t, err, ErrAttemptAccessDenied)
}

func TestAttemptService_ListByQuiz_OwnerOnly(t *testing.T) {
	repo := newMockRepository()
	service := newAttemptService(repo, new(MockLLMClient), testPublisher())

	repo.quiz.On("GetByIDForOwner", mock.Anything, "quiz-1", "stranger").
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.ListByQuiz(context.Background(), "quiz-1", "stranger", &ListAttemptsRequest{})

	assert.ErrorIs(t, err, ErrQuizNotFound)
	repo.attempt.AssertNotCalled(t, "ListByQuiz", mock.Anything, mock.Anything, mock.Anything)
}

func TestAttemptService_ListByUser(t *testing.T) {
	repo := newMockRepository()
	service := newAttemptService(repo, new(MockLLMClient), testPublisher())

	attempts := []*models.Attempt{
		{ID: "attempt-1", QuizID: "quiz-1", UserID: "taker-1", Score: 2, Total: 2, Quiz: testQuiz(t, "quiz-1", "owner-1")},
	}
	repo.attempt.On("ListByUser", mock.Anything, "taker-1", mock.Anything).
		Return(attempts, int64(1), nil)

	resp, err := service.ListByUser(context.Background(), "taker-1", &ListAttemptsRequest{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, "Geography", resp.Attempts[0].QuizTitle)
	assert.Equal(t, 100, resp.Attempts[0].Percentage)
}
