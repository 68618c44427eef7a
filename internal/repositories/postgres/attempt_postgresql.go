package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.Attempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithQuiz(ctx context.Context, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).
		Preload("Quiz").
		First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) ListByQuiz(ctx context.Context, quizID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	filters.QuizID = quizID
	return a.list(ctx, filters)
}

func (a *AttemptPostgreSQL) ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	filters.UserID = userID
	return a.listWithQuiz(ctx, filters)
}

func (a *AttemptPostgreSQL) list(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	var attempts []*models.Attempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.Attempt{})
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyAttemptPagination(query, filters)

	if err := query.Order("created_at desc").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) listWithQuiz(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	var attempts []*models.Attempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.Attempt{})
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyAttemptPagination(query, filters)

	if err := query.Preload("Quiz").Order("created_at desc").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.QuizID != "" {
		query = query.Where("quiz_id = ?", filters.QuizID)
	}
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func applyAttemptPagination(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
