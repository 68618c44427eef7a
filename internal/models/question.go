package models

import (
	"encoding/json"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Cloze          QuestionType = "cloze"
	Matching       QuestionType = "matching"
	Ordering       QuestionType = "ordering"
)

// AllQuestionTypes lists every supported type in the order forms present them.
func AllQuestionTypes() []QuestionType {
	return []QuestionType{MultipleChoice, TrueFalse, ShortAnswer, Cloze, Matching, Ordering}
}

// ParseQuestionType lowercases and validates a type string. The boolean is
// false for unknown types; callers at deserialization boundaries fall back
// to MultipleChoice.
func ParseQuestionType(s string) (QuestionType, bool) {
	t := QuestionType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer, Cloze, Matching, Ordering:
		return t, true
	}
	return MultipleChoice, false
}

func (t QuestionType) Valid() bool {
	_, ok := ParseQuestionType(string(t))
	return ok && QuestionType(strings.ToLower(string(t))) == t
}

// IsSingleAnswer reports whether the type is answered with one string.
func (t QuestionType) IsSingleAnswer() bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer, Cloze:
		return true
	}
	return false
}

// PairSet holds the two columns of a matching question. Left and Right have
// the same length.
type PairSet struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// Options is the per-type options payload of a question. Exactly one of the
// fields is meaningful, selected by the question's type:
//   - Choices for multiple_choice / true_false / cloze (may be empty for
//     short_answer and free-text cloze)
//   - Pairs for matching
//   - Order for ordering (the canonical order)
type Options struct {
	Choices []string
	Pairs   PairSet
	Order   []string
}

// Answers is the per-type canonical-answer payload:
//   - Accepted for single-answer types (first entry is the graded answer)
//   - Mapping for matching (left -> right, covering every left entry)
//   - Order for ordering (expected to equal Options.Order)
type Answers struct {
	Accepted []string
	Mapping  map[string]string
	Order    []string
}

// Question is one quiz item. The JSON representation matches the stored
// quiz payload: options and answers take a type-dependent shape (a bare
// array for single-answer types, {"pairs": ...}/{"mapping": ...} for
// matching, {"order": ...} for ordering).
type Question struct {
	ID          string
	Text        string
	Type        QuestionType
	Options     Options
	Answers     Answers
	Explanation string
}

type questionWire struct {
	ID          string          `json:"id"`
	Question    string          `json:"question"`
	Type        string          `json:"type"`
	Options     json.RawMessage `json:"options,omitempty"`
	Answers     json.RawMessage `json:"answers,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
}

type optionsWire struct {
	Pairs *PairSet `json:"pairs,omitempty"`
	Order []string `json:"order,omitempty"`
}

type answersWire struct {
	Mapping map[string]string `json:"mapping,omitempty"`
	Order   []string          `json:"order,omitempty"`
}

// Marshal-side envelopes keep the per-type keys explicit even when empty.
type pairsOut struct {
	Pairs PairSet `json:"pairs"`
}

type orderOut struct {
	Order []string `json:"order"`
}

type mappingOut struct {
	Mapping map[string]string `json:"mapping"`
}

// UnmarshalJSON decodes the stored wire shape. It is deliberately lenient:
// unknown types fall back to multiple_choice and malformed per-type payloads
// decode to empty values, so one bad element never rejects a whole quiz.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	qt, _ := ParseQuestionType(w.Type)
	*q = Question{
		ID:          w.ID,
		Text:        w.Question,
		Type:        qt,
		Explanation: w.Explanation,
	}

	switch qt {
	case Matching:
		var ow optionsWire
		if len(w.Options) > 0 {
			_ = json.Unmarshal(w.Options, &ow)
		}
		if ow.Pairs != nil {
			q.Options.Pairs = *ow.Pairs
		}
		var aw answersWire
		if len(w.Answers) > 0 {
			_ = json.Unmarshal(w.Answers, &aw)
		}
		if aw.Mapping != nil {
			q.Answers.Mapping = aw.Mapping
		} else {
			q.Answers.Mapping = map[string]string{}
		}
	case Ordering:
		var ow optionsWire
		if len(w.Options) > 0 {
			_ = json.Unmarshal(w.Options, &ow)
		}
		q.Options.Order = ow.Order
		var aw answersWire
		if len(w.Answers) > 0 {
			_ = json.Unmarshal(w.Answers, &aw)
		}
		if len(aw.Order) > 0 {
			q.Answers.Order = aw.Order
		} else {
			q.Answers.Order = ow.Order
		}
	default:
		var choices []string
		if len(w.Options) > 0 {
			_ = json.Unmarshal(w.Options, &choices)
		}
		if len(choices) == 0 && qt == TrueFalse {
			choices = []string{"True", "False"}
		}
		q.Options.Choices = choices
		var accepted []string
		if len(w.Answers) > 0 {
			_ = json.Unmarshal(w.Answers, &accepted)
		}
		q.Answers.Accepted = accepted
	}

	return nil
}

// MarshalJSON writes the canonical wire shape for the question's type.
func (q Question) MarshalJSON() ([]byte, error) {
	w := questionWire{
		ID:          q.ID,
		Question:    q.Text,
		Type:        string(q.Type),
		Explanation: q.Explanation,
	}

	var err error
	switch q.Type {
	case Matching:
		pairs := q.Options.Pairs
		if pairs.Left == nil {
			pairs.Left = []string{}
		}
		if pairs.Right == nil {
			pairs.Right = []string{}
		}
		if w.Options, err = json.Marshal(pairsOut{Pairs: pairs}); err != nil {
			return nil, err
		}
		mapping := q.Answers.Mapping
		if mapping == nil {
			mapping = map[string]string{}
		}
		if w.Answers, err = json.Marshal(mappingOut{Mapping: mapping}); err != nil {
			return nil, err
		}
	case Ordering:
		if w.Options, err = json.Marshal(orderOut{Order: emptyIfNil(q.Options.Order)}); err != nil {
			return nil, err
		}
		order := q.Answers.Order
		if len(order) == 0 {
			order = q.Options.Order
		}
		if w.Answers, err = json.Marshal(orderOut{Order: emptyIfNil(order)}); err != nil {
			return nil, err
		}
	default:
		if w.Options, err = json.Marshal(emptyIfNil(q.Options.Choices)); err != nil {
			return nil, err
		}
		if w.Answers, err = json.Marshal(emptyIfNil(q.Answers.Accepted)); err != nil {
			return nil, err
		}
	}

	return json.Marshal(w)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
