package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DifficultyLevel string

const (
	DifficultyEasy     DifficultyLevel = "easy"
	DifficultyStandard DifficultyLevel = "standard"
	DifficultyAdvanced DifficultyLevel = "advanced"
)

// Quiz is a named, owned collection of questions plus timing and difficulty
// metadata. Questions live in a jsonb column, stored exactly as the
// generator produced them; regeneration replaces the column without
// changing the quiz identity.
type Quiz struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	OwnerID     string          `json:"owner_id" gorm:"not null;size:255;index"`
	Title       string          `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description string          `json:"description" gorm:"type:text" validate:"max=1000"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"not null;default:standard" validate:"omitempty,difficulty_level"`

	DurationSeconds int                          `json:"duration_seconds" gorm:"not null;default:600" validate:"min=60,max=18000"`
	Formats         datatypes.JSONSlice[string]  `json:"formats" gorm:"type:jsonb"`
	Questions       datatypes.JSON               `json:"questions" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Attempts are removed with the quiz; an attempt cannot outlive it.
	Attempts []Attempt `json:"attempts,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// DecodeQuestions unpacks the jsonb questions column into typed questions.
func (q *Quiz) DecodeQuestions() ([]Question, error) {
	if len(q.Questions) == 0 {
		return nil, nil
	}
	var questions []Question
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SetQuestions encodes typed questions into the jsonb column.
func (q *Quiz) SetQuestions(questions []Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	q.Questions = datatypes.JSON(data)
	return nil
}

// QuestionCount reports how many questions the quiz currently carries.
func (q *Quiz) QuestionCount() int {
	questions, err := q.DecodeQuestions()
	if err != nil {
		return 0
	}
	return len(questions)
}
