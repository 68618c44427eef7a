package models

import (
	"encoding/json"
	"fmt"
)

// AnswerValue is one submitted answer. Exactly one field is populated,
// matching the question type it answers: Text for single-answer types,
// Mapping for matching, Order for ordering. The zero value means
// "unanswered" and grades as incorrect.
type AnswerValue struct {
	Text    string
	Mapping map[string]string
	Order   []string
}

// IsZero reports whether no answer was submitted.
func (v AnswerValue) IsZero() bool {
	return v.Text == "" && v.Mapping == nil && v.Order == nil
}

// UnmarshalJSON accepts the three submission shapes: a JSON string, an
// array of strings, or an object of left -> right picks.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	*v = AnswerValue{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &v.Text)
	case '[':
		return json.Unmarshal(data, &v.Order)
	case '{':
		return json.Unmarshal(data, &v.Mapping)
	}
	return fmt.Errorf("answer value must be a string, array, or object")
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Mapping != nil:
		return json.Marshal(v.Mapping)
	case v.Order != nil:
		return json.Marshal(v.Order)
	default:
		return json.Marshal(v.Text)
	}
}

// AnswerSet maps question id to the submitted answer for one quiz-taking
// session. It is graded once at submission; the attempt keeps a verbatim
// copy for its results view.
type AnswerSet map[string]AnswerValue
