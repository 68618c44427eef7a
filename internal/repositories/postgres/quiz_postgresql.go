package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDForOwner(ctx context.Context, id, ownerID string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Save(quiz).Error
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, id string) error {
	// Attempts go with the quiz; they are meaningless without it.
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&models.Attempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, "id = ?", id).Error
	})
}

func (q *QuizPostgreSQL) ListByOwner(ctx context.Context, ownerID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Quiz{}).Where("owner_id = ?", ownerID)
	query = applyQuizFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyQuizPaginationAndSort(query, filters)

	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func applyQuizFilters(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func applyQuizPaginationAndSort(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
