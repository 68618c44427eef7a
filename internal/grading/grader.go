// Package grading scores quiz attempts. Everything here is a pure function
// over the question list and the submitted answer set: no I/O, no state,
// and no failure mode — malformed input grades as incorrect instead of
// producing an error.
package grading

import (
	"strconv"
	"strings"

	"github.com/quizforge/quiz-service/internal/models"
)

// Result is the aggregate outcome of grading one attempt. Total always
// equals the number of questions graded, regardless of how many were
// answered.
type Result struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// Normalize is the comparison form used for every answer check:
// lowercase plus leading/trailing whitespace removal.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Grade scores every question against the submitted answers. Unanswered
// questions count as incorrect, never skipped.
func Grade(questions []models.Question, answers models.AnswerSet) Result {
	score := 0
	for i, q := range questions {
		qid := q.ID
		if qid == "" {
			qid = positionID(i)
		}
		if IsCorrect(q, answers[qid]) {
			score++
		}
	}
	return Result{Score: score, Total: len(questions)}
}

// IsCorrect applies the type-specific equality rule for one question.
func IsCorrect(q models.Question, v models.AnswerValue) bool {
	switch q.Type {
	case models.MultipleChoice, models.TrueFalse, models.ShortAnswer, models.Cloze:
		if len(q.Answers.Accepted) == 0 {
			return false
		}
		return Normalize(v.Text) == Normalize(q.Answers.Accepted[0])

	case models.Matching:
		if len(q.Answers.Mapping) == 0 {
			return false
		}
		for left, want := range q.Answers.Mapping {
			if Normalize(v.Mapping[left]) != Normalize(want) {
				return false
			}
		}
		return true

	case models.Ordering:
		want := q.Answers.Order
		if len(want) == 0 {
			return false
		}
		if len(v.Order) != len(want) {
			return false
		}
		for i, item := range v.Order {
			if Normalize(item) != Normalize(want[i]) {
				return false
			}
		}
		return true
	}

	// Unknown types never throw; they just cannot be answered correctly.
	return false
}

// CanonicalKind tags the shape of a canonical answer for rendering.
type CanonicalKind string

const (
	KindSingle  CanonicalKind = "single"
	KindMapping CanonicalKind = "mapping"
	KindOrder   CanonicalKind = "order"
)

// Canonical carries enough of a question's answer payload for a results
// view to display "correct answer was: ...".
type Canonical struct {
	Kind    CanonicalKind     `json:"kind"`
	Value   string            `json:"value,omitempty"`
	Mapping map[string]string `json:"mapping,omitempty"`
	Order   []string          `json:"order,omitempty"`
}

// Explain returns the canonical answer of a question as a tagged value.
func Explain(q models.Question) Canonical {
	switch q.Type {
	case models.Matching:
		mapping := q.Answers.Mapping
		if mapping == nil {
			mapping = map[string]string{}
		}
		return Canonical{Kind: KindMapping, Mapping: mapping}
	case models.Ordering:
		order := q.Answers.Order
		if order == nil {
			order = []string{}
		}
		return Canonical{Kind: KindOrder, Order: order}
	default:
		value := ""
		if len(q.Answers.Accepted) > 0 {
			value = q.Answers.Accepted[0]
		}
		return Canonical{Kind: KindSingle, Value: value}
	}
}

func positionID(i int) string {
	// Matches the generator's 1-based string ids.
	return strconv.Itoa(i + 1)
}
