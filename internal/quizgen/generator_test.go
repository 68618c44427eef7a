package quizgen

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quiz-service/internal/models"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts CallOptions) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, opts)
	return args.String(0), args.Error(1)
}

func newTestGenerator(client Client) *Generator {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewGenerator(client, logger)
}

const sampleArray = `[
  {"question":"What is the capital of France?","type":"multiple_choice","options":["Paris","Lyon","Nice"],"answers":["Paris"]},
  {"question":"The sky is blue.","type":"true_false","options":["True","False"],"answers":["True"]}
]`

func TestGenerate_PlainAndFencedAreEquivalent(t *testing.T) {
	params := GenerateParams{Title: "Geography", Count: 2}

	plain := new(MockClient)
	plain.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleArray, nil)

	fenced := new(MockClient)
	fenced.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("```json\n"+sampleArray+"\n```", nil)

	fromPlain, err := newTestGenerator(plain).Generate(context.Background(), params)
	require.NoError(t, err)
	fromFenced, err := newTestGenerator(fenced).Generate(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, fromPlain, fromFenced)
	require.Len(t, fromPlain, 2)
	assert.Equal(t, "1", fromPlain[0].ID)
	assert.Equal(t, models.MultipleChoice, fromPlain[0].Type)
	assert.Equal(t, []string{"Paris"}, fromPlain[0].Answers.Accepted)
}

func TestGenerate_RecoversArrayFromSurroundingProse(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Here are your questions:\n"+sampleArray+"\nHope that helps!", nil)

	questions, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{Title: "Geography", Count: 2})

	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestGenerate_MalformedResponse(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("I cannot produce a quiz about that topic.", nil)

	_, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{Title: "Nope", Count: 3})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerate_NullResponseIsMalformed(t *testing.T) {
	// "null" decodes into a nil slice without error; it must be rejected
	// like any other non-array reply, not treated as an empty quiz.
	for _, reply := range []string{"null", "```json\nnull\n```"} {
		client := new(MockClient)
		client.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(reply, nil)

		_, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{Title: "Nothing", Count: 3})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	}
}

func TestGenerate_TruncatesToRequestedCount(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`[
			{"question":"Q1","type":"short_answer","answers":["a"]},
			{"question":"Q2","type":"short_answer","answers":["b"]},
			{"question":"Q3","type":"short_answer","answers":["c"]}
		]`, nil)

	questions, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{Title: "Short", Count: 2})

	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Q1", questions[0].Text)
	assert.Equal(t, "Q2", questions[1].Text)
}

func TestGenerate_CountClamping(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"zero uses default", 0, DefaultQuestionCount},
		{"negative uses default", -5, DefaultQuestionCount},
		{"above maximum clamps", 50, MaxQuestionCount},
		{"within range kept", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampCount(tt.count))
		})
	}
}

func TestGenerate_NormalizesMalformedItems(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`[
			{"type":"essay","question":"What is recursion?"},
			{"question":"Sort these","type":"ordering","options":{"order":["a","b","c"]}},
			"not even an object"
		]`, nil)

	questions, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{Title: "Mixed", Count: 3})

	require.NoError(t, err)
	require.Len(t, questions, 3)

	// Unknown type falls back to multiple_choice.
	assert.Equal(t, models.MultipleChoice, questions[0].Type)
	assert.Equal(t, "1", questions[0].ID)

	// Ordering answers default to the option order.
	assert.Equal(t, models.Ordering, questions[1].Type)
	assert.Equal(t, []string{"a", "b", "c"}, questions[1].Answers.Order)

	// Undecodable items become placeholder questions, not errors.
	assert.Equal(t, "3", questions[2].ID)
	assert.Equal(t, "Question 3", questions[2].Text)
}

func TestGenerate_NormalizationIsIdempotent(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleArray, nil)

	questions, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{Title: "Geography", Count: 2})
	require.NoError(t, err)

	// Re-encoding and re-normalizing a normalized question changes nothing.
	for i, q := range questions {
		encoded, err := q.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, q, normalizeQuestion(encoded, i))
	}
}

func TestGenerate_PropagatesClientError(t *testing.T) {
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	_, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{Title: "Down", Count: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerate_PromptMentionsCountAndFormats(t *testing.T) {
	var captured string
	client := new(MockClient)
	client.On("Complete", mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
		captured = p
		return true
	}), mock.Anything).Return(sampleArray, nil)

	_, err := newTestGenerator(client).Generate(context.Background(), GenerateParams{
		Title:   "Geography",
		Count:   2,
		Formats: []models.QuestionType{models.TrueFalse},
	})

	require.NoError(t, err)
	assert.Contains(t, captured, "Generate EXACTLY 2 questions")
	assert.Contains(t, captured, "true_false")
}
