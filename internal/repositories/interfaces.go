package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quizforge/quiz-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	DateFrom   *time.Time              `json:"date_from"`
	DateTo     *time.Time              `json:"date_to"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "title"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	QuizID   string     `json:"quiz_id"`
	UserID   string     `json:"user_id"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	GetByIDForOwner(ctx context.Context, id, ownerID string) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, filters QuizFilters) ([]*models.Quiz, int64, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id string) (*models.Attempt, error)
	GetByIDWithQuiz(ctx context.Context, id string) (*models.Attempt, error)
	ListByQuiz(ctx context.Context, quizID string, filters AttemptFilters) ([]*models.Attempt, int64, error)
	ListByUser(ctx context.Context, userID string, filters AttemptFilters) ([]*models.Attempt, int64, error)
}

// Repository aggregates all repositories behind a single constructor-friendly
// surface.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
}

// IsNotFoundError reports whether the error is the database's missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
