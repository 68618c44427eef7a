package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of attempt events
type EventType string

const (
	EventQuizCreated      EventType = "quiz.created"
	EventQuizRegenerated  EventType = "quiz.regenerated"
	EventQuizDeleted      EventType = "quiz.deleted"
	EventAttemptCompleted EventType = "attempt.completed"
)

// AttemptEvent is the envelope shared by every published event
type AttemptEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// QuizCreatedEvent is published after a quiz and its questions are persisted
type QuizCreatedEvent struct {
	QuizID        string `json:"quiz_id"`
	OwnerID       string `json:"owner_id"`
	Title         string `json:"title"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
}

// QuizRegeneratedEvent is published after a quiz's questions are replaced
type QuizRegeneratedEvent struct {
	QuizID        string `json:"quiz_id"`
	OwnerID       string `json:"owner_id"`
	QuestionCount int    `json:"question_count"`
}

// QuizDeletedEvent is published after a quiz and its attempts are removed
type QuizDeletedEvent struct {
	QuizID  string `json:"quiz_id"`
	OwnerID string `json:"owner_id"`
}

// AttemptCompletedEvent is published once per graded submission
type AttemptCompletedEvent struct {
	AttemptID   string    `json:"attempt_id"`
	QuizID      string    `json:"quiz_id"`
	QuizTitle   string    `json:"quiz_title"`
	UserID      string    `json:"user_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  int       `json:"percentage"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewAttemptEvent wraps a payload in the standard envelope
func NewAttemptEvent(eventType EventType, data interface{}) *AttemptEvent {
	return &AttemptEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data:      data,
	}
}
