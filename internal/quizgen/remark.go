package quizgen

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/quizforge/quiz-service/internal/models"
)

const (
	remarkTemperature = 0.6
	remarkMaxTokens   = 200
)

const remarkSystemPrompt = "You write brief, encouraging feedback for quiz takers. Output a single short paragraph (max 2 sentences). No markdown."

// RemarkParams describe one graded attempt for remark generation.
type RemarkParams struct {
	Score      int
	Total      int
	Title      string
	Difficulty models.DifficultyLevel
	WeakAreas  []string
}

// Remark asks the model for a short feedback paragraph. Failures return an
// error so callers can degrade to an empty remark without blocking the
// attempt itself.
func (g *Generator) Remark(ctx context.Context, params RemarkParams) (string, error) {
	pct := ScorePercent(params.Score, params.Total)

	weak := "(none provided)"
	if len(params.WeakAreas) > 0 {
		weak = strings.Join(params.WeakAreas, ", ")
	}

	instruction := "The taker passed. Congratulate them briefly and suggest one way to keep improving."
	if pct < 70 {
		instruction = "The taker struggled. Encourage them briefly and point at what to review."
	}

	prompt := fmt.Sprintf(`Quiz: %s
Difficulty: %s
Score: %d/%d (%d%%)
Weak areas: %s
%s`, params.Title, params.Difficulty, params.Score, params.Total, pct, weak, instruction)

	text, err := g.client.Complete(ctx, remarkSystemPrompt, prompt, CallOptions{
		Temperature: remarkTemperature,
		MaxTokens:   remarkMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("remark generation failed: %w", err)
	}

	remark := strings.TrimSpace(text)
	g.logger.Debug("Generated attempt remark",
		"quiz", params.Title,
		"percent", pct,
		"length", len(remark))
	return remark, nil
}

// ScorePercent rounds score/total to a whole percentage. A zero total is
// treated as one so a fully empty quiz never divides by zero.
func ScorePercent(score, total int) int {
	if total < 1 {
		total = 1
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
