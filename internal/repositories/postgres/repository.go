package postgres

import (
	"gorm.io/gorm"

	"github.com/quizforge/quiz-service/internal/repositories"
)

type repository struct {
	quiz    repositories.QuizRepository
	attempt repositories.AttemptRepository
}

// NewRepository builds the aggregate repository over one database handle.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		quiz:    NewQuizPostgreSQL(db),
		attempt: NewAttemptPostgreSQL(db),
	}
}

func (r *repository) Quiz() repositories.QuizRepository {
	return r.quiz
}

func (r *repository) Attempt() repositories.AttemptRepository {
	return r.attempt
}
