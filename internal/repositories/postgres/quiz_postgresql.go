package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return translateError(q.db.WithContext(ctx).Create(quiz).Error)
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	result := q.db.WithContext(ctx).Model(quiz).Select("*").Omit("id", "created_at").Updates(quiz)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Quiz{})
	if filters.Published != nil {
		query = query.Where("published = ?", *filters.Published)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		"created_at", "created_at", "title")
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}
