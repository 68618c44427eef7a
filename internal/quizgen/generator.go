// Package quizgen turns quiz parameters into a normalized question list by
// prompting an external text-generation model, and produces short feedback
// remarks for completed attempts. It enforces structural shape only; it
// does not judge whether generated content is factually correct.
package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/quizforge/quiz-service/internal/models"
)

const (
	// Question counts outside this range are clamped, matching the
	// creation form's limits.
	MinQuestionCount = 1
	MaxQuestionCount = 20

	DefaultQuestionCount  = 10
	DefaultTargetMinutes  = 10
	generationTemperature = 0.7
	generationMaxTokens   = 4000
)

// ErrMalformedResponse marks a model reply that was not a JSON array even
// after fence stripping and bracket recovery. It is distinct from transport
// errors so callers can tell "service unreachable" from "service replied
// with garbage".
var ErrMalformedResponse = errors.New("model response is not a JSON question array")

const generationSystemPrompt = "You generate quizzes and must output ONLY a JSON array of question objects. No prose, no markdown fences."

// GenerateParams are the caller-supplied knobs for one generation call.
type GenerateParams struct {
	Title       string
	Description string
	Difficulty  models.DifficultyLevel
	Formats     []models.QuestionType
	Minutes     int
	SourceText  string
	Count       int
}

// Generator builds prompts, calls the model once per request, and
// normalizes whatever comes back into well-shaped questions.
type Generator struct {
	client Client
	logger *slog.Logger
}

func NewGenerator(client Client, logger *slog.Logger) *Generator {
	return &Generator{client: client, logger: logger}
}

// Generate produces a normalized question list. Exactly one model call is
// made; transport errors and parse failures bubble up and nothing is
// persisted here.
func (g *Generator) Generate(ctx context.Context, params GenerateParams) ([]models.Question, error) {
	count := clampCount(params.Count)
	formats := params.Formats
	if len(formats) == 0 {
		formats = models.AllQuestionTypes()
	}
	minutes := params.Minutes
	if minutes <= 0 {
		minutes = DefaultTargetMinutes
	}
	difficulty := params.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyStandard
	}

	prompt := buildGenerationPrompt(params.Title, params.Description, difficulty, formats, minutes, params.SourceText, count)

	g.logger.Info("Generating quiz questions",
		"title", params.Title,
		"difficulty", difficulty,
		"count", count,
		"formats", len(formats))

	text, err := g.client.Complete(ctx, generationSystemPrompt, prompt, CallOptions{
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	raw, err := parseQuestionArray(text)
	if err != nil {
		g.logger.Warn("Model returned unparseable question payload",
			"title", params.Title,
			"response_length", len(text))
		return nil, err
	}

	if len(raw) > count {
		raw = raw[:count]
	}

	questions := make([]models.Question, len(raw))
	for i, item := range raw {
		questions[i] = normalizeQuestion(item, i)
	}

	g.logger.Info("Generated quiz questions",
		"title", params.Title,
		"requested", count,
		"returned", len(questions))

	return questions, nil
}

func clampCount(count int) int {
	if count <= 0 {
		return DefaultQuestionCount
	}
	if count < MinQuestionCount {
		return MinQuestionCount
	}
	if count > MaxQuestionCount {
		return MaxQuestionCount
	}
	return count
}

func buildGenerationPrompt(title, description string, difficulty models.DifficultyLevel, formats []models.QuestionType, minutes int, sourceText string, count int) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}

	schema := `Return ONLY a JSON array (no markdown). Each item:
{
  "question": "string",
  "type": "multiple_choice" | "true_false" | "short_answer" | "cloze" | "matching" | "ordering",
  "options": [] | { "pairs": { "left": [], "right": [] } , "order": [] },
  "answers": [] | { "mapping": { }, "order": [] },
  "explanation": "string (optional)"
}`

	rules := fmt.Sprintf(`Rules:
- Allowed types ONLY: %s.
- multiple_choice: 3-5 options; answers = [exact correct option text].
- true_false: options=["True","False"]; answers=["True"] or ["False"].
- short_answer: answers=[one or more acceptable strings].
- cloze: single blank written as "___"; 3-5 options; answers=[exact correct option text].
- matching: options.pairs.left/right same length; answers.mapping maps each left->right.
- ordering: options.order is the correct order; answers.order repeats it.
- Output strictly valid JSON (no commentary or code fences).`, strings.Join(names, ", "))

	if description == "" {
		description = "N/A"
	}
	source := sourceText
	if source == "" {
		source = "(none)"
	}

	return fmt.Sprintf(`Generate EXACTLY %d questions
Title: %q
Description: %s
Difficulty: %s
Target duration: ~%d minutes for the whole quiz.
Source (optional, use if present):
%s

%s

%s`, count, title, description, difficulty, minutes, source, schema, rules)
}

// parseQuestionArray applies the two-stage parse strategy: strict parse of
// the fence-stripped text, then recovery on the first '['..last ']' span.
func parseQuestionArray(text string) ([]json.RawMessage, error) {
	cleaned := stripCodeFences(text)

	var items []json.RawMessage
	// A literal "null" decodes into a nil slice without error; that is not
	// an array, so it falls through to bracket recovery like any other
	// non-array reply.
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil && items != nil {
		return items, nil
	}

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, ErrMalformedResponse
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return items, nil
}

func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	lower := strings.ToLower(cleaned)
	if strings.HasPrefix(lower, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// normalizeQuestion shapes one raw array element independently of the rest
// of the batch. Partial malformation is absorbed here rather than failing
// the whole generation: missing fields get empty defaults and unknown types
// fall back to multiple_choice.
func normalizeQuestion(raw json.RawMessage, idx int) models.Question {
	var q models.Question
	// The Question codec is itself defensive; a completely undecodable
	// element just leaves the zero value for the defaults below.
	_ = json.Unmarshal(raw, &q)

	q.ID = strconv.Itoa(idx + 1)
	if q.Text == "" {
		q.Text = "Question " + q.ID
	}
	if _, ok := models.ParseQuestionType(string(q.Type)); !ok {
		q.Type = models.MultipleChoice
	}

	switch q.Type {
	case models.Matching:
		if q.Answers.Mapping == nil {
			q.Answers.Mapping = map[string]string{}
		}
	case models.Ordering:
		if len(q.Answers.Order) == 0 {
			q.Answers.Order = q.Options.Order
		}
	case models.TrueFalse:
		if len(q.Options.Choices) == 0 {
			q.Options.Choices = []string{"True", "False"}
		}
	}

	return q
}
