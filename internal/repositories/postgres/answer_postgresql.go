package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.QuizAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return translateError(a.db.WithContext(ctx).CreateInBatches(answers, 100).Error)
}

func (a *AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID string) ([]*models.QuizAnswer, error) {
	var answers []*models.QuizAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_index ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

// GetDifficultQuestions ranks question indices of a quiz by success rate,
// lowest first.
func (a *AnswerPostgreSQL) GetDifficultQuestions(ctx context.Context, quizID uint, limit int) ([]*models.DifficultQuestion, error) {
	var rows []*models.DifficultQuestion
	query := a.db.WithContext(ctx).
		Model(&models.QuizAnswer{}).
		Select(`question_index,
			MAX(question_type) AS question_type,
			COUNT(*) AS total_answers,
			SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct_count,
			ROUND(CAST(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS NUMERIC) * 100 / COUNT(*), 2) AS success_rate`).
		Where("quiz_id = ?", quizID).
		Group("question_index").
		Order("success_rate ASC, question_index ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
