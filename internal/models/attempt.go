package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Attempt is an immutable record of one scored run of a quiz. It is created
// exactly once per submission and never updated; deleting the quiz removes
// its attempts.
type Attempt struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	QuizID string `json:"quiz_id" gorm:"not null;size:36;index"`
	UserID string `json:"user_id" gorm:"not null;size:255;index"`

	Score  int    `json:"score" gorm:"not null" validate:"min=0"`
	Total  int    `json:"total" gorm:"not null" validate:"min=0"`
	Remark string `json:"remark" gorm:"type:text"`

	// Answers is the submitted answer set, kept verbatim so a results view
	// can show per-question correctness after the fact.
	Answers   datatypes.JSON              `json:"answers" gorm:"type:jsonb"`
	WeakAreas datatypes.JSONSlice[string] `json:"weak_areas" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	Quiz *Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// DecodeAnswers unpacks the stored answer set. A missing column decodes to
// an empty set.
func (a *Attempt) DecodeAnswers() (AnswerSet, error) {
	if len(a.Answers) == 0 {
		return AnswerSet{}, nil
	}
	var answers AnswerSet
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// SetAnswers encodes the submitted answer set into the jsonb column.
func (a *Attempt) SetAnswers(answers AnswerSet) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	a.Answers = datatypes.JSON(data)
	return nil
}

// Percentage is the rounded score percentage; an empty attempt is 0%.
func (a *Attempt) Percentage() int {
	if a.Total <= 0 {
		return 0
	}
	return int(float64(a.Score)/float64(a.Total)*100 + 0.5)
}
