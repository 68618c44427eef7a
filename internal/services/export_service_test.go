package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/quizforge/quiz-service/internal/models"
)

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    ExportFormat
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{"", FormatXLSX, false},
		{"CSV", FormatCSV, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseExportFormat(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestExportService_ExportQuestionsCSV(t *testing.T) {
	repo := newMockRepository()
	service := NewExportService(repo, testLogger())

	repo.quiz.On("GetByIDForOwner", mock.Anything, "quiz-1", "user-1").
		Return(testQuiz(t, "quiz-1", "user-1"), nil)

	data, err := service.ExportQuestions(context.Background(), "quiz-1", "user-1", FormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 questions
	assert.Equal(t, questionHeaders, records[0])
	assert.Equal(t, "What is the capital of France?", records[1][2])
	assert.Equal(t, "Paris", records[1][4])
}

func TestExportService_ExportQuestionsJSON(t *testing.T) {
	repo := newMockRepository()
	service := NewExportService(repo, testLogger())

	repo.quiz.On("GetByIDForOwner", mock.Anything, "quiz-1", "user-1").
		Return(testQuiz(t, "quiz-1", "user-1"), nil)

	data, err := service.ExportQuestions(context.Background(), "quiz-1", "user-1", FormatJSON)
	require.NoError(t, err)

	var questions []models.Question
	require.NoError(t, json.Unmarshal(data, &questions))
	require.Len(t, questions, 2)
	assert.Equal(t, models.MultipleChoice, questions[0].Type)
}

func TestExportService_ExportQuestionsXLSX(t *testing.T) {
	repo := newMockRepository()
	service := NewExportService(repo, testLogger())

	repo.quiz.On("GetByIDForOwner", mock.Anything, "quiz-1", "user-1").
		Return(testQuiz(t, "quiz-1", "user-1"), nil)

	data, err := service.ExportQuestions(context.Background(), "quiz-1", "user-1", FormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Questions", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	question, err := f.GetCellValue("Questions", "C2")
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", question)
}

func TestExportService_ExportResultsCSV(t *testing.T) {
	repo := newMockRepository()
	service := NewExportService(repo, testLogger())

	repo.quiz.On("GetByIDForOwner", mock.Anything, "quiz-1", "user-1").
		Return(testQuiz(t, "quiz-1", "user-1"), nil)
	repo.attempt.On("ListByQuiz", mock.Anything, "quiz-1", mock.Anything).
		Return([]*models.Attempt{
			{ID: "attempt-1", QuizID: "quiz-1", UserID: "taker-1", Score: 2, Total: 2, Remark: "Nice work"},
		}, int64(1), nil)

	data, err := service.ExportResults(context.Background(), "quiz-1", "user-1", FormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "taker-1", records[1][1])
	assert.Equal(t, "100", records[1][4])
}

func TestExportService_NonOwnerDenied(t *testing.T) {
	repo := newMockRepository()
	service := NewExportService(repo, testLogger())

	repo.quiz.On("GetByIDForOwner", mock.Anything, "quiz-1", "stranger").
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.ExportQuestions(context.Background(), "quiz-1", "stranger", FormatCSV)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}
