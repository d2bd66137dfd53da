package postgres

import (
	"context"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return translateError(a.db.WithContext(ctx).Create(attempt).Error)
}

func (a *AttemptPostgreSQL) GetByAttemptID(ctx context.Context, attemptID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).Where("attempt_id = ?", attemptID).First(&attempt).Error; err != nil {
		return nil, translateError(err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetForUpdate(ctx context.Context, attemptID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("attempt_id = ?", attemptID).
		First(&attempt).Error; err != nil {
		return nil, translateError(err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) ExistsAttemptID(ctx context.Context, attemptID string) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AttemptPostgreSQL) UpdateIfStarted(ctx context.Context, attempt *models.QuizAttempt) error {
	result := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("attempt_id = ? AND status = ?", attempt.AttemptID, models.AttemptStarted).
		Updates(map[string]interface{}{
			"status":                 attempt.Status,
			"ended_at":               attempt.EndedAt,
			"time_spent":             attempt.TimeSpent,
			"answers":                attempt.Answers,
			"timings":                attempt.Timings,
			"current_question_index": attempt.CurrentQuestionIndex,
			"score_percent":          attempt.ScorePercent,
			"total_points":           attempt.TotalPoints,
			"earned_points":          attempt.EarnedPoints,
			"correct_answers":        attempt.CorrectAnswers,
			"total_questions":        attempt.TotalQuestions,
			"passed":                 attempt.Passed,
			"passing_score":          attempt.PassingScore,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	exists, err := a.ExistsAttemptID(ctx, attempt.AttemptID)
	if err != nil {
		return err
	}
	if !exists {
		return repositories.ErrNotFound
	}
	return repositories.ErrStatusConflict
}

func (a *AttemptPostgreSQL) MarkAbandoned(ctx context.Context, cutoff, endedAt time.Time) (int64, error) {
	result := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("status = ? AND started_at < ?", models.AttemptStarted, cutoff).
		Updates(map[string]interface{}{
			"status":     models.AttemptAbandoned,
			"ended_at":   endedAt,
			"updated_at": endedAt,
		})
	return result.RowsAffected, result.Error
}

func (a *AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	// apply filter first
	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		"started_at", "started_at", "score_percent", "ended_at")

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetShownQuestions(ctx context.Context, quizID uint, sessionID string) ([]int, error) {
	var shown []datatypes.JSONSlice[int]
	if err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND session_id = ? AND status = ?", quizID, sessionID, models.AttemptCompleted).
		Pluck("questions_shown", &shown).Error; err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	for _, list := range shown {
		for _, idx := range list {
			seen[idx] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

func (a *AttemptPostgreSQL) GetQuizStats(ctx context.Context, quizID uint) (*models.QuizStats, error) {
	stats := models.QuizStats{QuizID: quizID}
	err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Select(`COUNT(*) AS total_attempts,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_attempts,
			COALESCE(SUM(CASE WHEN status = ? AND passed THEN 1 ELSE 0 END), 0) AS passed_attempts,
			COALESCE(SUM(CASE WHEN status = ? AND NOT passed THEN 1 ELSE 0 END), 0) AS failed_attempts,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS abandoned_attempts,
			COALESCE(AVG(CASE WHEN status = ? THEN score_percent END), 0) AS average_score,
			COALESCE(MAX(CASE WHEN status = ? THEN score_percent END), 0) AS highest_score,
			COALESCE(MIN(CASE WHEN status = ? THEN score_percent END), 0) AS lowest_score,
			COALESCE(AVG(CASE WHEN status = ? THEN time_spent END), 0) AS average_time_spent`,
			models.AttemptCompleted, models.AttemptCompleted, models.AttemptCompleted, models.AttemptAbandoned,
			models.AttemptCompleted, models.AttemptCompleted, models.AttemptCompleted, models.AttemptCompleted).
		Where("quiz_id = ?", quizID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	stats.QuizID = quizID
	return &stats, nil
}
